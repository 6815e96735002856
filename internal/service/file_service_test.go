package service

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"filevault/internal/config"
	"filevault/internal/models"
	"filevault/internal/repository"
	"filevault/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T, uniqueNames bool) (*FileService, *repository.UploadedFileRepository, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.UploadedFile{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	storageRoot := filepath.Join(t.TempDir(), "files")
	cs, err := storage.NewContentStore(storageRoot, log)
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	cfg := &config.Config{
		Upload: config.UploadConfig{
			StoragePath:         storageRoot,
			MaxSizeMB:           10,
			AllowedExtensions:   []string{".pdf", ".doc", ".docx", ".txt", ".jpg", ".jpeg", ".png"},
			GenerateUniqueNames: uniqueNames,
		},
	}

	fileRepo := repository.NewUploadedFileRepository(db)
	return NewFileService(fileRepo, cs, cfg, log), fileRepo, storageRoot
}

func uploadInput(title, fileName string, content []byte) StoreFileInput {
	return StoreFileInput{
		Title:       title,
		Content:     bytes.NewReader(content),
		Size:        int64(len(content)),
		FileName:    fileName,
		ContentType: "application/pdf",
		Username:    "alice",
		IPAddress:   "127.0.0.1",
	}
}

func TestStoreFileRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	content := make([]byte, 1024)
	if _, err := rand.Read(content); err != nil {
		t.Fatalf("生成随机内容失败: %v", err)
	}

	file, err := svc.StoreFile(uploadInput("Report", "report.pdf", content))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	if file.FileSizeInBytes != 1024 {
		t.Fatalf("记录大小应等于内容长度: %d", file.FileSizeInBytes)
	}
	if !file.IsActive {
		t.Fatal("新记录应为有效状态")
	}
	if file.FileExtension != ".pdf" {
		t.Fatalf("扩展名不符: %s", file.FileExtension)
	}
	if file.FileHash == "" {
		t.Fatal("哈希未计算")
	}

	// 重新读出的内容与上传内容一致
	rc, contentType, fileName, err := svc.Retrieve(file.ID)
	if err != nil {
		t.Fatalf("取回失败: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("取回内容与上传内容不一致")
	}
	if contentType != "application/pdf" || fileName != "report.pdf" {
		t.Fatalf("元信息不符: %s %s", contentType, fileName)
	}
}

func TestStoreFileEmpty(t *testing.T) {
	svc, repo, _ := newTestService(t, true)

	_, err := svc.StoreFile(uploadInput("Empty", "empty.pdf", nil))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("期望 ErrEmptyFile，得到 %v", err)
	}

	// 不应产生记录
	files, _ := repo.GetAllActive()
	if len(files) != 0 {
		t.Fatalf("空上传不应产生记录: %d", len(files))
	}
}

func TestStoreFileTooLarge(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	input := uploadInput("Big", "big.pdf", []byte("x"))
	input.Size = 11 * 1024 * 1024

	if _, err := svc.StoreFile(input); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("期望 ErrFileTooLarge，得到 %v", err)
	}
}

func TestStoreFileDisallowedExtension(t *testing.T) {
	svc, repo, storageRoot := newTestService(t, true)

	content := make([]byte, 1024)
	_, err := svc.StoreFile(uploadInput("Evil", "payload.exe", content))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("期望 ErrUnsupportedType，得到 %v", err)
	}

	// 不应产生记录，也不应写入文件
	files, _ := repo.GetAllActive()
	if len(files) != 0 {
		t.Fatalf("被拒绝的上传不应产生记录: %d", len(files))
	}

	entries, err := os.ReadDir(storageRoot)
	if err != nil {
		t.Fatalf("读取存储目录失败: %v", err)
	}
	for _, e := range entries {
		if e.Name() != ".htaccess" {
			t.Fatalf("被拒绝的上传不应落盘: %s", e.Name())
		}
	}
}

func TestStoreFileDuplicateStoredName(t *testing.T) {
	// 关闭唯一文件名后，相同原始文件名两次上传会生成同一个存储文件名，
	// 第二次必须被唯一索引拒绝，最终只有一条记录
	svc, repo, _ := newTestService(t, false)

	if _, err := svc.StoreFile(uploadInput("First", "same.pdf", []byte("first"))); err != nil {
		t.Fatalf("首次上传失败: %v", err)
	}

	_, err := svc.StoreFile(uploadInput("Second", "same.pdf", []byte("second")))
	if !errors.Is(err, ErrDuplicateStoredName) {
		t.Fatalf("期望 ErrDuplicateStoredName，得到 %v", err)
	}

	files, _ := repo.GetAllActive()
	if len(files) != 1 {
		t.Fatalf("冲突后应只有一条记录: %d", len(files))
	}
}

func TestDeleteThenRetrieve(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	file, err := svc.StoreFile(uploadInput("Doc", "doc.pdf", []byte("content")))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	storedName := file.StoredFileName

	deleted, err := svc.Delete(file.ID)
	if err != nil || !deleted {
		t.Fatalf("删除失败: deleted=%v err=%v", deleted, err)
	}

	// 按ID取回 → NotFound
	if _, _, _, err := svc.Retrieve(file.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("删除后按ID取回应 ErrFileNotFound，得到 %v", err)
	}
	// 按存储文件名取回 → 同样 NotFound
	if _, _, _, err := svc.RetrieveByStoredName(storedName); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("删除后按存储文件名取回应 ErrFileNotFound，得到 %v", err)
	}

	// 列表与统计不再包含
	active, _ := svc.ListActive()
	if len(active) != 0 {
		t.Fatalf("删除后列表应为空: %d", len(active))
	}
	stats, err := svc.GetUserStats("alice")
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.FileCount != 0 || stats.TotalSizeBytes != 0 {
		t.Fatalf("删除后统计应归零: %+v", stats)
	}

	// 按ID查详情仍可取到软删除记录，用于审计
	info, err := svc.GetFileInfo(file.ID)
	if err != nil {
		t.Fatalf("审计查询失败: %v", err)
	}
	if info.IsActive {
		t.Fatal("软删除后 IsActive 应为 false")
	}
}

func TestDeleteMissing(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	deleted, err := svc.Delete(9999)
	if err != nil {
		t.Fatalf("不存在的ID不应报错: %v", err)
	}
	if deleted {
		t.Fatal("不存在的ID应返回false")
	}
}

func TestRetrieveContentMissing(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	file, err := svc.StoreFile(uploadInput("Gone", "gone.pdf", []byte("bytes")))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	// 模拟存储损坏：元数据在，物理文件没了
	if err := os.Remove(file.StoragePath); err != nil {
		t.Fatalf("删除物理文件失败: %v", err)
	}

	_, _, _, err = svc.Retrieve(file.ID)
	if !errors.Is(err, ErrContentMissing) {
		t.Fatalf("期望 ErrContentMissing，得到 %v", err)
	}
}

func TestHashStableAcrossUploads(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	content := []byte("stable content")

	f1, err := svc.StoreFile(uploadInput("A", "a.pdf", content))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	f2, err := svc.StoreFile(uploadInput("B", "b.pdf", content))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	if f1.FileHash != f2.FileHash {
		t.Fatalf("相同内容的哈希应一致: %s != %s", f1.FileHash, f2.FileHash)
	}
	if f1.StoredFileName == f2.StoredFileName {
		t.Fatal("两次上传的存储文件名不应相同")
	}
}

func TestGetUserStats(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	if _, err := svc.StoreFile(uploadInput("A", "a.pdf", make([]byte, 100))); err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if _, err := svc.StoreFile(uploadInput("B", "b.pdf", make([]byte, 200))); err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	bobInput := uploadInput("C", "c.pdf", make([]byte, 400))
	bobInput.Username = "bob"
	if _, err := svc.StoreFile(bobInput); err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	stats, err := svc.GetUserStats("alice")
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.FileCount != 2 || stats.TotalSizeBytes != 300 {
		t.Fatalf("alice统计不符: %+v", stats)
	}
}
