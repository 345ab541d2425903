package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/sshcollectorpro/nodecollector/internal/util"
)

var (
	// ErrMissingFile 元数据文件不存在或不是普通文件
	ErrMissingFile = errors.New("missing file")
	// ErrMalformedDocument nodeid文档不是合法JSON
	ErrMalformedDocument = errors.New("invalid JSON format")
	// ErrEmptyValue 地址或设备ID去空白后为空
	ErrEmptyValue = errors.New("empty Node ID or Device ID")
)

// isRegularFile 判断路径是否存在且为普通文件，Stat失败一律视为不存在
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// readText 读取整个文件并按UTF-8解码
func readText(path string, allowLegacy bool) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := util.DecodeText(b, allowLegacy)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return s, nil
}

// readNodeAddress 解析nodeid文档并返回key对应的去空白字符串值
// key不存在时返回""且无错误；存在时必须是JSON字符串。其余字段不做解码。
func readNodeAddress(path, key string, allowLegacy bool) (string, error) {
	text, err := readText(path, allowLegacy)
	if err != nil {
		return "", err
	}

	var doc json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if kind := jsonKind(doc); kind != "object" {
		return "", fmt.Errorf("%s holds a JSON %s, expected an object", path, kind)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	raw, ok := obj[key]
	if !ok {
		return "", nil
	}
	if kind := jsonKind(raw); kind != "string" {
		return "", fmt.Errorf("%q in %s is a JSON %s, expected a string", key, path, kind)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("failed to decode %q in %s: %w", key, path, err)
	}
	return trimValue(s), nil
}

// readDeviceID 读取设备ID文件并去除首尾空白
func readDeviceID(path string, allowLegacy bool) (string, error) {
	text, err := readText(path, allowLegacy)
	if err != nil {
		return "", err
	}
	return trimValue(text), nil
}

// trimValue 去除首尾空白，U+001C..U+001F 分隔符也视为空白
func trimValue(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
	})
}

// jsonKind 根据已校验JSON值的首字节判断类型
func jsonKind(raw json.RawMessage) string {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
