package util

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// legacyEncodings 宽松解码时依次尝试的编码
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	simplifiedchinese.GBK,
	traditionalchinese.Big5,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// DecodeText 将b转换为UTF-8字符串
// 非法UTF-8默认返回错误；allowLegacy为true时使用第一个能完整映射的旧编码解码
func DecodeText(b []byte, allowLegacy bool) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, _, err := transform.Bytes(encoding.UTF8Validator, b)
	if err == nil {
		return string(out), nil
	}
	if !allowLegacy {
		return "", fmt.Errorf("decode text: %w", err)
	}
	for _, enc := range legacyEncodings {
		if s, ok := tryDecode(enc, b); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("decode text: no legacy encoding matched: %w", err)
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	decoded, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", false
	}
	// 无法映射的字节会被替换为 U+FFFD
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}
