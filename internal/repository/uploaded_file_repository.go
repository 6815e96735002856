package repository

import (
	"strings"
	"time"

	"filevault/internal/models"

	"gorm.io/gorm"
)

// UploadedFileRepository 上传文件元数据访问层
//
// 除按 ID / 存储文件名查询外，所有读查询都隐含 is_active = true 过滤；
// 按 ID / 存储文件名的查询不过滤，调用方据此区分"从未存在"和"已软删除"。
type UploadedFileRepository struct {
	db *gorm.DB
}

// NewUploadedFileRepository 创建上传文件Repository
func NewUploadedFileRepository(db *gorm.DB) *UploadedFileRepository {
	return &UploadedFileRepository{db: db}
}

// Create 创建文件记录
// 存储文件名与唯一索引冲突时返回 gorm.ErrDuplicatedKey
func (r *UploadedFileRepository) Create(file *models.UploadedFile) error {
	return r.db.Create(file).Error
}

// GetByID 根据ID获取文件记录（不过滤软删除）
func (r *UploadedFileRepository) GetByID(id uint) (*models.UploadedFile, error) {
	var file models.UploadedFile
	err := r.db.First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByStoredFileName 根据存储文件名获取文件记录（不过滤软删除）
func (r *UploadedFileRepository) GetByStoredFileName(storedFileName string) (*models.UploadedFile, error) {
	var file models.UploadedFile
	err := r.db.Where("stored_file_name = ?", storedFileName).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetAllActive 获取全部有效文件，按上传时间倒序
func (r *UploadedFileRepository) GetAllActive() ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := r.db.Where("is_active = ?", true).Order("uploaded_at DESC").Find(&files).Error
	return files, err
}

// GetAll 获取全部文件（含软删除，管理员审计用）
func (r *UploadedFileRepository) GetAll() ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := r.db.Order("uploaded_at DESC").Find(&files).Error
	return files, err
}

// GetByUser 获取指定用户的有效文件，按上传时间倒序
func (r *UploadedFileRepository) GetByUser(username string) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := r.db.Where("uploaded_by_user = ? AND is_active = ?", username, true).
		Order("uploaded_at DESC").Find(&files).Error
	return files, err
}

// GetRecent 获取最近上传的N个有效文件
func (r *UploadedFileRepository) GetRecent(count int) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := r.db.Where("is_active = ?", true).
		Order("uploaded_at DESC").Limit(count).Find(&files).Error
	return files, err
}

// likeEscaper 转义LIKE通配符
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchByTitle 按标题模糊搜索有效文件（不区分大小写）
func (r *UploadedFileRepository) SearchByTitle(searchTerm string) ([]models.UploadedFile, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(searchTerm)) + "%"

	var files []models.UploadedFile
	err := r.db.Where(`is_active = ? AND LOWER(title) LIKE ? ESCAPE '\'`, true, pattern).
		Order("uploaded_at DESC").Find(&files).Error
	return files, err
}

// Update 更新文件记录，ID不存在时返回 gorm.ErrRecordNotFound
func (r *UploadedFileRepository) Update(file *models.UploadedFile) error {
	exists, err := r.Exists(file.ID)
	if err != nil {
		return err
	}
	if !exists {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(file).Error
}

// SoftDelete 软删除文件记录
// 置 is_active = false 并记录更新时间，记录不存在时返回 false 而不是错误
func (r *UploadedFileRepository) SoftDelete(id uint) (bool, error) {
	result := r.db.Model(&models.UploadedFile{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HardDelete 物理删除文件记录，记录不存在时返回 false
func (r *UploadedFileRepository) HardDelete(id uint) (bool, error) {
	result := r.db.Delete(&models.UploadedFile{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists 判断记录是否存在（不过滤软删除）
func (r *UploadedFileRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UploadedFile{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByStoredFileName 判断存储文件名是否已被占用（含软删除）
func (r *UploadedFileRepository) ExistsByStoredFileName(storedFileName string) (bool, error) {
	var count int64
	err := r.db.Model(&models.UploadedFile{}).
		Where("stored_file_name = ?", storedFileName).Count(&count).Error
	return count > 0, err
}

// TotalSizeByUser 统计用户有效文件的总字节数
func (r *UploadedFileRepository) TotalSizeByUser(username string) (int64, error) {
	var total int64
	err := r.db.Model(&models.UploadedFile{}).
		Where("uploaded_by_user = ? AND is_active = ?", username, true).
		Select("COALESCE(SUM(file_size_in_bytes), 0)").Scan(&total).Error
	return total, err
}

// CountByUser 统计用户有效文件数
func (r *UploadedFileRepository) CountByUser(username string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UploadedFile{}).
		Where("uploaded_by_user = ? AND is_active = ?", username, true).Count(&count).Error
	return count, err
}
