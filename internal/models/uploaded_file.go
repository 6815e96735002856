package models

import (
	"time"
)

// UploadedFile 上传文件元数据模型
//
// StoredFileName 全局唯一且永不复用（软删除后该名字仍占用唯一索引）。
// IsActive 为 false 表示软删除：不出现在任何列表和统计中，
// 但按 ID / 存储文件名查询仍可取到，用于审计。
type UploadedFile struct {
	ID               uint   `gorm:"primarykey" json:"id"`
	Title            string `gorm:"size:200;not null" json:"title"`
	OriginalFileName string `gorm:"size:255;not null" json:"original_file_name"`
	StoredFileName   string `gorm:"uniqueIndex;size:255;not null" json:"stored_file_name"`
	FileExtension    string `gorm:"size:10;not null" json:"file_extension"`
	FileSizeInBytes  int64  `gorm:"not null" json:"file_size_in_bytes"`
	ContentType      string `gorm:"size:100;not null" json:"content_type"`
	Description      string `gorm:"size:500" json:"description,omitempty"`
	// StoragePath 仅供内部定位物理文件，不对外暴露
	StoragePath    string    `gorm:"size:500;not null" json:"-"`
	FileHash       string    `gorm:"size:255;not null" json:"file_hash"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	UploadedByUser string    `gorm:"size:100;not null;index" json:"uploaded_by_user"`
	IPAddress      string    `gorm:"size:45" json:"ip_address,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedByUser  string    `gorm:"size:100" json:"updated_by_user,omitempty"`
}

// TableName 指定表名
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
