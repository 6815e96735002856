package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *ContentStore {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cs, err := NewContentStore(filepath.Join(t.TempDir(), "files"), logger)
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	return cs
}

func TestNewContentStoreWritesMarker(t *testing.T) {
	cs := newTestStore(t)

	marker := filepath.Join(cs.root, ".htaccess")
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("访问控制标记未写入: %v", err)
	}
	if string(data) != "deny from all" {
		t.Fatalf("标记内容不符: %s", data)
	}
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	cs := newTestStore(t)
	content := bytes.Repeat([]byte("filevault"), 128)

	_, n, err := cs.Save("20240101_120000_deadbeef.txt", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if n != int64(len(content)) {
		t.Fatalf("写入字节数不符: %d != %d", n, len(content))
	}

	rc, err := cs.Open("20240101_120000_deadbeef.txt")
	if err != nil {
		t.Fatalf("打开失败: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("读出内容与写入内容不一致")
	}
}

func TestSaveOverwrites(t *testing.T) {
	cs := newTestStore(t)

	if _, _, err := cs.Save("a.txt", bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if _, _, err := cs.Save("a.txt", bytes.NewReader([]byte("second"))); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	rc, err := cs.Open("a.txt")
	if err != nil {
		t.Fatalf("打开失败: %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if string(got) != "second" {
		t.Fatalf("覆盖后内容不符: %s", got)
	}
}

func TestOpenMissing(t *testing.T) {
	cs := newTestStore(t)

	if _, err := cs.Open("missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("期望 ErrNotFound，得到 %v", err)
	}
}

func TestRemoveBestEffort(t *testing.T) {
	cs := newTestStore(t)

	// 不存在的文件不算错误
	if err := cs.Remove("missing.txt"); err != nil {
		t.Fatalf("删除不存在的文件不应报错: %v", err)
	}

	if _, _, err := cs.Save("b.txt", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := cs.Remove("b.txt"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if cs.Exists("b.txt") {
		t.Fatal("删除后文件仍然存在")
	}
}

func TestPathRejectsSeparators(t *testing.T) {
	cs := newTestStore(t)

	for _, name := range []string{"", "../escape.txt", `..\escape.txt`, "sub/dir.txt"} {
		if _, err := cs.Path(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) 应拒绝非法文件名，得到 %v", name, err)
		}
	}
}
