package handler

import (
	"errors"
	"io"
	"net/url"
	"strconv"

	"filevault/internal/dto"
	"filevault/internal/middleware"
	"filevault/internal/service"
	"filevault/internal/utils"

	"github.com/gin-gonic/gin"
)

// FileHandler 文件处理器
type FileHandler struct {
	fileService *service.FileService
}

// NewFileHandler 创建文件处理器
func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

// writeFileError 把服务层错误映射为HTTP响应
func writeFileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyFile), errors.Is(err, service.ErrUnsupportedType):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		utils.PayloadTooLarge(c, err.Error())
	case errors.Is(err, service.ErrDuplicateStoredName):
		utils.Conflict(c, err.Error())
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, service.ErrContentMissing):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		utils.Forbidden(c, err.Error())
	default:
		utils.InternalError(c, err.Error())
	}
}

// Upload 上传文件
func (h *FileHandler) Upload(c *gin.Context) {
	username, _ := middleware.GetUsername(c)

	var req dto.UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "文件上传失败: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.BadRequest(c, "打开文件失败: "+err.Error())
		return
	}
	defer src.Close()

	file, err := h.fileService.StoreFile(service.StoreFileInput{
		Title:       req.Title,
		Content:     src,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Description: req.Description,
		Username:    username,
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		writeFileError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "文件上传成功", dto.NewFileInfoResponse(file))
}

// List 获取有效文件列表
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.fileService.ListActive()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"files": dto.NewFileListItems(files),
		"total": len(files),
	})
}

// ListMine 获取当前用户的有效文件列表
func (h *FileHandler) ListMine(c *gin.Context) {
	username, _ := middleware.GetUsername(c)

	files, err := h.fileService.ListByUser(username)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"files": dto.NewFileListItems(files),
		"total": len(files),
	})
}

// Recent 获取最近上传的文件
func (h *FileHandler) Recent(c *gin.Context) {
	count, _ := strconv.Atoi(c.DefaultQuery("count", "10"))
	if count < 1 || count > 100 {
		count = 10
	}

	files, err := h.fileService.Recent(count)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"files": dto.NewFileListItems(files),
		"total": len(files),
	})
}

// Search 按标题搜索文件
func (h *FileHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		utils.BadRequest(c, "搜索关键词不能为空")
		return
	}

	files, err := h.fileService.SearchByTitle(term)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"files": dto.NewFileListItems(files),
		"total": len(files),
	})
}

// Stats 当前用户的文件统计
func (h *FileHandler) Stats(c *gin.Context) {
	username, _ := middleware.GetUsername(c)

	stats, err := h.fileService.GetUserStats(username)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// guardedFile 解析路径中的文件ID并做访问权限判定
func (h *FileHandler) guardedFile(c *gin.Context) (uint, bool) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的文件ID")
		return 0, false
	}

	ident := middleware.GetIdentity(c)
	if !ident.Authenticated {
		// 未认证先于记录查询判定
		writeFileError(c, service.ErrUnauthenticated)
		return 0, false
	}

	file, err := h.fileService.GetFileInfo(uint(fileID))
	if err != nil && !errors.Is(err, service.ErrFileNotFound) {
		utils.InternalError(c, err.Error())
		return 0, false
	}

	if err := service.CheckFileAccess(ident, file); err != nil {
		writeFileError(c, err)
		return 0, false
	}

	return uint(fileID), true
}

// GetInfo 获取文件详情
func (h *FileHandler) GetInfo(c *gin.Context) {
	fileID, ok := h.guardedFile(c)
	if !ok {
		return
	}

	file, err := h.fileService.GetFileInfo(fileID)
	if err != nil {
		writeFileError(c, err)
		return
	}

	utils.SuccessResponse(c, dto.NewFileInfoResponse(file))
}

// Serve 在线预览文件
func (h *FileHandler) Serve(c *gin.Context) {
	h.sendContent(c, "inline")
}

// Download 强制下载文件
func (h *FileHandler) Download(c *gin.Context) {
	h.sendContent(c, "attachment")
}

// sendContent 输出文件内容
func (h *FileHandler) sendContent(c *gin.Context, disposition string) {
	fileID, ok := h.guardedFile(c)
	if !ok {
		return
	}

	rc, contentType, fileName, err := h.fileService.Retrieve(fileID)
	if err != nil {
		writeFileError(c, err)
		return
	}
	defer rc.Close()

	// Content-Disposition 同时给出 ASCII 回退和 RFC 5987 的 UTF-8 编码文件名
	encodedFilename := url.QueryEscape(fileName)
	c.Header("Content-Disposition",
		disposition+"; filename=\""+fileName+"\"; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)

	c.Status(200)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// 响应头已发出，只能记录中断
		c.Error(err)
	}
}

// Delete 删除文件（软删除元数据+尽力删除物理文件）
func (h *FileHandler) Delete(c *gin.Context) {
	fileID, ok := h.guardedFile(c)
	if !ok {
		return
	}

	deleted, err := h.fileService.Delete(fileID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}
	if !deleted {
		utils.NotFound(c, "文件不存在")
		return
	}

	utils.SuccessWithMessage(c, "文件已删除", gin.H{"success": true})
}
