package dto

import (
	"filevault/internal/models"
)

// UploadFileRequest 上传文件表单字段（文件本体在 multipart 的 file 字段）
type UploadFileRequest struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=500"`
}

// FileInfoResponse 文件详情响应
// 不含 StoragePath，物理路径永不对外暴露
type FileInfoResponse struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	OriginalFileName string `json:"original_file_name"`
	StoredFileName   string `json:"stored_file_name"`
	FileExtension    string `json:"file_extension"`
	FileSizeInBytes  int64  `json:"file_size_in_bytes"`
	ContentType      string `json:"content_type"`
	Description      string `json:"description,omitempty"`
	FileHash         string `json:"file_hash"`
	IsActive         bool   `json:"is_active"`
	UploadedByUser   string `json:"uploaded_by_user"`
	UploadedAt       string `json:"uploaded_at"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// timeLayout 响应中的时间格式
const timeLayout = "2006-01-02 15:04:05"

// NewFileInfoResponse 从模型构建文件详情响应
func NewFileInfoResponse(f *models.UploadedFile) FileInfoResponse {
	return FileInfoResponse{
		ID:               f.ID,
		Title:            f.Title,
		OriginalFileName: f.OriginalFileName,
		StoredFileName:   f.StoredFileName,
		FileExtension:    f.FileExtension,
		FileSizeInBytes:  f.FileSizeInBytes,
		ContentType:      f.ContentType,
		Description:      f.Description,
		FileHash:         f.FileHash,
		IsActive:         f.IsActive,
		UploadedByUser:   f.UploadedByUser,
		UploadedAt:       f.UploadedAt.Format(timeLayout),
		CreatedAt:        f.CreatedAt.Format(timeLayout),
		UpdatedAt:        f.UpdatedAt.Format(timeLayout),
	}
}

// FileListItem 文件列表项
type FileListItem struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	OriginalFileName string `json:"original_file_name"`
	FileSizeInBytes  int64  `json:"file_size_in_bytes"`
	ContentType      string `json:"content_type"`
	UploadedByUser   string `json:"uploaded_by_user"`
	UploadedAt       string `json:"uploaded_at"`
}

// NewFileListItems 从模型列表构建文件列表响应
func NewFileListItems(files []models.UploadedFile) []FileListItem {
	items := make([]FileListItem, len(files))
	for i, f := range files {
		items[i] = FileListItem{
			ID:               f.ID,
			Title:            f.Title,
			OriginalFileName: f.OriginalFileName,
			FileSizeInBytes:  f.FileSizeInBytes,
			ContentType:      f.ContentType,
			UploadedByUser:   f.UploadedByUser,
			UploadedAt:       f.UploadedAt.Format(timeLayout),
		}
	}
	return items
}
