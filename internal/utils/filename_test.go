package utils

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestGenerateStoredNameUnique(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{8}_\d{6}_[0-9a-f]{8}\.pdf$`)

	name := GenerateStoredName("report.pdf", true)
	if !pattern.MatchString(name) {
		t.Fatalf("存储文件名格式不符: %s", name)
	}

	// 扩展名统一小写
	name = GenerateStoredName("REPORT.PDF", true)
	if !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("扩展名未转小写: %s", name)
	}
}

func TestGenerateStoredNameDistinct(t *testing.T) {
	// 同一文件名连续生成，随机部分应保证彼此不同
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := GenerateStoredName("report.pdf", true)
		if seen[name] {
			t.Fatalf("生成了重复的存储文件名: %s", name)
		}
		seen[name] = true
	}
}

func TestGenerateStoredNameSanitized(t *testing.T) {
	name := GenerateStoredName(`re?po*rt<1>.pdf`, false)
	if name != "report1.pdf" {
		t.Fatalf("净化结果不符: %s", name)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"normal.txt", "normal.txt"},
		{`a/b\c:d*e?f"g<h>i|j.txt`, "abcdefghij.txt"},
		{"tab\there.txt", "tabhere.txt"},
		{strings.Repeat("x", 150) + ".txt", strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeFileHash(t *testing.T) {
	// SHA-256("hello world") 的base64编码
	const want = "uU0nuZNNPgilLlLX2n2r+sSE7+N6U4DukIj3rOLvzek="

	got, err := ComputeFileHash(bytes.NewReader([]byte("hello world")))
	if err != nil {
		t.Fatalf("计算哈希失败: %v", err)
	}
	if got != want {
		t.Fatalf("哈希值不符: %s", got)
	}
}

func TestComputeFileHashDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB, 0xCD}, 4096)

	first, err := ComputeFileHash(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("计算哈希失败: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := ComputeFileHash(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("计算哈希失败: %v", err)
		}
		if again != first {
			t.Fatalf("同样内容的哈希不稳定: %s != %s", again, first)
		}
	}
}
