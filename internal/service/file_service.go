package service

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"filevault/internal/config"
	"filevault/internal/models"
	"filevault/internal/repository"
	"filevault/internal/storage"
	"filevault/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FileService 文件服务
// 负责上传校验、存储文件名生成、内容落盘和元数据写入的编排
type FileService struct {
	fileRepo     *repository.UploadedFileRepository
	contentStore *storage.ContentStore
	cfg          *config.Config
	logger       *logrus.Logger
}

// NewFileService 创建文件服务
func NewFileService(
	fileRepo *repository.UploadedFileRepository,
	contentStore *storage.ContentStore,
	cfg *config.Config,
	logger *logrus.Logger,
) *FileService {
	return &FileService{
		fileRepo:     fileRepo,
		contentStore: contentStore,
		cfg:          cfg,
		logger:       logger,
	}
}

// StoreFileInput 上传文件参数
type StoreFileInput struct {
	Title       string
	Content     io.ReadSeeker
	Size        int64
	FileName    string
	ContentType string
	Description string
	Username    string
	IPAddress   string
}

// StoreFile 存储上传文件
//
// 校验顺序：空内容 → 大小上限 → 扩展名白名单。
// 通过后生成存储文件名、计算哈希、写入物理文件、写入元数据。
// 内容落盘成功而元数据写入失败时，磁盘上会留下孤儿文件，
// 这里不做补偿清理，只记录日志（与整体无事务设计一致）。
func (s *FileService) StoreFile(input StoreFileInput) (*models.UploadedFile, error) {
	if input.Content == nil || input.Size == 0 {
		return nil, ErrEmptyFile
	}

	if input.Size > s.cfg.Upload.MaxSizeBytes() {
		return nil, fmt.Errorf("%w: %d字节，上限%dMB", ErrFileTooLarge, input.Size, s.cfg.Upload.MaxSizeMB)
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if !s.cfg.Upload.IsExtensionAllowed(ext) {
		return nil, fmt.Errorf("%w: %s，允许的类型: %s",
			ErrUnsupportedType, ext, strings.Join(s.cfg.Upload.AllowedExtensions, ", "))
	}

	storedName := utils.GenerateStoredName(input.FileName, s.cfg.Upload.GenerateUniqueNames)

	// 哈希计算会消费整个流，落盘前回到起始位置
	hash, err := utils.ComputeFileHash(input.Content)
	if err != nil {
		return nil, err
	}
	if _, err := input.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("重置文件流失败: %w", err)
	}

	path, written, err := s.contentStore.Save(storedName, input.Content)
	if err != nil {
		return nil, fmt.Errorf("写入物理文件失败: %w", err)
	}

	now := time.Now().UTC()
	file := &models.UploadedFile{
		Title:            input.Title,
		OriginalFileName: input.FileName,
		StoredFileName:   storedName,
		FileExtension:    ext,
		FileSizeInBytes:  written,
		ContentType:      input.ContentType,
		Description:      input.Description,
		StoragePath:      path,
		FileHash:         hash,
		IsActive:         true,
		UploadedByUser:   input.Username,
		IPAddress:        input.IPAddress,
		UploadedAt:       now,
	}

	if err := s.fileRepo.Create(file); err != nil {
		// 已知缺口：此时物理文件已落盘，不做补偿删除
		s.logger.WithFields(logrus.Fields{
			"stored_file_name": storedName,
			"path":             path,
		}).Warn("元数据写入失败，磁盘上遗留孤儿文件")

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStoredName, storedName)
		}
		return nil, fmt.Errorf("写入文件元数据失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":               file.ID,
		"original":         input.FileName,
		"stored_file_name": storedName,
		"size":             written,
		"user":             input.Username,
	}).Info("文件上传成功")

	return file, nil
}

// Retrieve 按ID取回文件内容
// 返回内容流、Content-Type 和展示用的原始文件名
func (s *FileService) Retrieve(id uint) (io.ReadCloser, string, string, error) {
	file, err := s.fileRepo.GetByID(id)
	if err != nil || !file.IsActive {
		return nil, "", "", ErrFileNotFound
	}
	return s.openContent(file)
}

// RetrieveByStoredName 按存储文件名取回文件内容
func (s *FileService) RetrieveByStoredName(storedName string) (io.ReadCloser, string, string, error) {
	file, err := s.fileRepo.GetByStoredFileName(storedName)
	if err != nil || !file.IsActive {
		return nil, "", "", ErrFileNotFound
	}
	return s.openContent(file)
}

// openContent 打开记录对应的物理文件
// 元数据存在但物理文件缺失说明存储已损坏，按高严重级别记日志
func (s *FileService) openContent(file *models.UploadedFile) (io.ReadCloser, string, string, error) {
	rc, err := s.contentStore.Open(file.StoredFileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.WithFields(logrus.Fields{
				"id":               file.ID,
				"stored_file_name": file.StoredFileName,
			}).Error("元数据存在但物理文件缺失")
			return nil, "", "", ErrContentMissing
		}
		return nil, "", "", fmt.Errorf("读取物理文件失败: %w", err)
	}

	return rc, file.ContentType, file.OriginalFileName, nil
}

// Delete 删除文件
//
// 先软删除元数据，成功后再尽力删除物理文件。
// 物理删除失败只记日志不上抛：记录已从列表消失，字节可能残留在磁盘上。
// 返回 false 表示记录不存在。
func (s *FileService) Delete(id uint) (bool, error) {
	file, err := s.fileRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	ok, err := s.fileRepo.SoftDelete(id)
	if err != nil {
		return false, fmt.Errorf("软删除失败: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.contentStore.Remove(file.StoredFileName); err != nil {
		s.logger.WithFields(logrus.Fields{
			"id":               id,
			"stored_file_name": file.StoredFileName,
		}).Warn("物理文件删除失败，字节残留在磁盘上")
	}

	s.logger.WithField("id", id).Info("文件已删除")
	return true, nil
}

// HardDelete 物理删除文件记录及其内容（管理员审计清理用）
func (s *FileService) HardDelete(id uint) (bool, error) {
	file, err := s.fileRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	ok, err := s.fileRepo.HardDelete(id)
	if err != nil || !ok {
		return false, err
	}

	if err := s.contentStore.Remove(file.StoredFileName); err != nil {
		s.logger.WithFields(logrus.Fields{
			"id":               id,
			"stored_file_name": file.StoredFileName,
		}).Warn("物理文件删除失败，字节残留在磁盘上")
	}

	return true, nil
}

// GetFileInfo 获取文件记录
// 不过滤软删除标记，软删除的记录仍可按ID查到用于审计
func (s *FileService) GetFileInfo(id uint) (*models.UploadedFile, error) {
	file, err := s.fileRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// ListActive 获取全部有效文件
func (s *FileService) ListActive() ([]models.UploadedFile, error) {
	return s.fileRepo.GetAllActive()
}

// ListByUser 获取用户的有效文件
func (s *FileService) ListByUser(username string) ([]models.UploadedFile, error) {
	return s.fileRepo.GetByUser(username)
}

// Recent 获取最近上传的N个有效文件
func (s *FileService) Recent(count int) ([]models.UploadedFile, error) {
	return s.fileRepo.GetRecent(count)
}

// SearchByTitle 按标题搜索有效文件
func (s *FileService) SearchByTitle(searchTerm string) ([]models.UploadedFile, error) {
	return s.fileRepo.SearchByTitle(searchTerm)
}

// UserStats 用户文件统计
type UserStats struct {
	FileCount      int64 `json:"file_count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// GetUserStats 统计用户有效文件的数量和总大小
func (s *FileService) GetUserStats(username string) (*UserStats, error) {
	count, err := s.fileRepo.CountByUser(username)
	if err != nil {
		return nil, err
	}
	total, err := s.fileRepo.TotalSizeByUser(username)
	if err != nil {
		return nil, err
	}
	return &UserStats{FileCount: count, TotalSizeBytes: total}, nil
}
