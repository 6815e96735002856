package handler

import (
	"strconv"

	"filevault/internal/dto"
	"filevault/internal/repository"
	"filevault/internal/service"
	"filevault/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	userRepo    *repository.UserRepository
	fileRepo    *repository.UploadedFileRepository
	fileService *service.FileService
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(
	userRepo *repository.UserRepository,
	fileRepo *repository.UploadedFileRepository,
	fileService *service.FileService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		fileRepo:    fileRepo,
		fileService: fileService,
	}
}

// ListUsers 获取用户列表
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	infos := make([]dto.UserInfo, len(users))
	for i, u := range users {
		infos[i] = dto.UserInfo{
			ID:       u.ID,
			Username: u.Username,
			IsActive: u.IsActive,
			IsAdmin:  u.IsAdmin,
		}
	}

	utils.SuccessResponse(c, gin.H{
		"users": infos,
		"total": len(infos),
	})
}

// ListAllFiles 获取全部文件（含软删除的记录，审计用）
func (h *AdminHandler) ListAllFiles(c *gin.Context) {
	files, err := h.fileRepo.GetAll()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	infos := make([]dto.FileInfoResponse, len(files))
	for i := range files {
		infos[i] = dto.NewFileInfoResponse(&files[i])
	}

	utils.SuccessResponse(c, gin.H{
		"files": infos,
		"total": len(infos),
	})
}

// HardDeleteFile 彻底删除文件记录及物理文件
func (h *AdminHandler) HardDeleteFile(c *gin.Context) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的文件ID")
		return
	}

	deleted, err := h.fileService.HardDelete(uint(fileID))
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}
	if !deleted {
		utils.NotFound(c, "文件不存在")
		return
	}

	utils.SuccessWithMessage(c, "文件已彻底删除", gin.H{"success": true})
}
