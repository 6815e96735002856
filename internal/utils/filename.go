package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// invalidFileNameChars 文件名中不允许出现的字符
const invalidFileNameChars = `/\:*?"<>|`

// GenerateStoredName 生成存储文件名
//
// unique 为 true 时返回 {yyyyMMdd_HHmmss}_{8位十六进制随机}{扩展名}，
// 碰撞概率视为可忽略，不做重试；真正的唯一性由数据库唯一索引兜底。
// unique 为 false 时返回净化后的原始文件名。
func GenerateStoredName(originalFileName string, unique bool) string {
	if !unique {
		return SanitizeFileName(originalFileName)
	}

	ext := strings.ToLower(filepath.Ext(originalFileName))
	timestamp := time.Now().UTC().Format("20060102_150405")

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 读取失败时退化为纳秒时间戳
		return fmt.Sprintf("%s_%08x%s", timestamp, time.Now().UnixNano()&0xffffffff, ext)
	}

	return fmt.Sprintf("%s_%s%s", timestamp, hex.EncodeToString(buf), ext)
}

// SanitizeFileName 净化文件名
// 去掉文件系统非法字符和控制字符，超过100个字符时截断
func SanitizeFileName(fileName string) string {
	var b strings.Builder
	for _, r := range fileName {
		if r < 0x20 || strings.ContainsRune(invalidFileNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	sanitized := []rune(b.String())
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	return string(sanitized)
}

// ComputeFileHash 计算内容的SHA-256哈希（base64编码）
// 流式读取直到EOF，会消费掉整个reader，调用方负责在后续写入前重置读取位置
func ComputeFileHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("计算文件哈希失败: %w", err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
