package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/sshcollectorpro/nodecollector/internal/model"
)

// StoredListing 已关闭清单文件的描述
type StoredListing struct {
	URI      string
	Path     string
	Lines    int
	Size     int64
	Checksum string
}

// listingFile 清单写入所需的文件操作，*os.File 满足该接口
type listingFile interface {
	io.WriteSeeker
	Truncate(size int64) error
	Sync() error
	Close() error
}

// ListingWriter 逐条写入节点记录
// 打开时截断文件，每条记录立即落盘，中断时保留已写入的行
type ListingWriter struct {
	path      string
	delimiter string
	file      listingFile
	sum       hash.Hash
	size      int64
	lines     int
}

// OpenListing 创建或截断清单文件
func OpenListing(path, delimiter string) (*ListingWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return &ListingWriter{
		path:      path,
		delimiter: delimiter,
		file:      f,
		sum:       sha256.New(),
	}, nil
}

// Append 写入一条以换行结尾的记录
// 写入失败时回滚到写入前的长度，文件中不留半行
func (w *ListingWriter) Append(r model.NodeRecord) error {
	line := []byte(r.Line(w.delimiter) + "\n")
	if _, err := w.file.Write(line); err != nil {
		if rerr := w.rollback(); rerr != nil {
			return fmt.Errorf("failed to write listing: %w (rollback: %v)", err, rerr)
		}
		return fmt.Errorf("failed to write listing: %w", err)
	}
	w.sum.Write(line)
	w.size += int64(len(line))
	w.lines++
	return nil
}

func (w *ListingWriter) rollback() error {
	if err := w.file.Truncate(w.size); err != nil {
		return err
	}
	_, err := w.file.Seek(w.size, io.SeekStart)
	return err
}

// Close 刷盘并返回文件大小与校验和
func (w *ListingWriter) Close() (StoredListing, error) {
	syncErr := w.file.Sync()
	if err := w.file.Close(); err != nil {
		return StoredListing{}, fmt.Errorf("failed to close listing: %w", err)
	}
	if syncErr != nil {
		return StoredListing{}, fmt.Errorf("failed to sync listing: %w", syncErr)
	}

	abs, err := filepath.Abs(w.path)
	if err != nil {
		abs = w.path
	}
	return StoredListing{
		URI:      "file://" + abs,
		Path:     w.path,
		Lines:    w.lines,
		Size:     w.size,
		Checksum: "sha256:" + hex.EncodeToString(w.sum.Sum(nil)),
	}, nil
}
