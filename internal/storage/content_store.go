// Package storage 管理物理文件在磁盘上的读写。
// 存储根目录初始化时写入一个 deny-all 标记文件，
// 防止该目录被通用静态文件处理器直接对外暴露。
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrNotFound 物理文件不存在
var ErrNotFound = errors.New("物理文件不存在")

// ErrInvalidName 存储文件名含路径分隔符
var ErrInvalidName = errors.New("非法的存储文件名")

// ContentStore 物理文件存储
type ContentStore struct {
	root   string
	logger *logrus.Logger
}

// NewContentStore 创建物理文件存储
// 根目录不存在时创建，并写入 .htaccess 访问控制标记
func NewContentStore(root string, logger *logrus.Logger) (*ContentStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	markerPath := filepath.Join(root, ".htaccess")
	if _, err := os.Stat(markerPath); os.IsNotExist(err) {
		if err := os.WriteFile(markerPath, []byte("deny from all"), 0644); err != nil {
			return nil, fmt.Errorf("写入访问控制标记失败: %w", err)
		}
		logger.WithField("path", root).Info("存储目录已初始化")
	}

	return &ContentStore{root: root, logger: logger}, nil
}

// Path 获取存储文件名对应的物理路径
// 存储文件名不允许包含路径分隔符，保证不会越出根目录
func (cs *ContentStore) Path(storedName string) (string, error) {
	if storedName == "" || strings.ContainsAny(storedName, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(cs.root, storedName), nil
}

// Save 把reader中的全部内容写入存储文件
// 文件已存在时覆盖，返回物理路径和写入字节数
func (cs *ContentStore) Save(storedName string, r io.Reader) (string, int64, error) {
	path, err := cs.Path(storedName)
	if err != nil {
		return "", 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("创建文件失败: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("写入文件失败: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("关闭文件失败: %w", err)
	}

	return path, n, nil
}

// Open 打开存储文件用于读取
func (cs *ContentStore) Open(storedName string) (io.ReadCloser, error) {
	path, err := cs.Path(storedName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}

	return f, nil
}

// Exists 判断存储文件是否存在
func (cs *ContentStore) Exists(storedName string) bool {
	path, err := cs.Path(storedName)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Remove 删除存储文件
// 尽力而为：文件不存在不算错误
func (cs *ContentStore) Remove(storedName string) error {
	path, err := cs.Path(storedName)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}

	return nil
}
