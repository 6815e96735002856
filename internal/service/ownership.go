package service

import (
	"filevault/internal/models"
)

// Identity 请求方身份
type Identity struct {
	Username      string
	IsAdmin       bool
	Authenticated bool
}

// CheckFileAccess 文件访问权限判定
//
// 纯函数，在 serve / download / 详情 / 删除等敏感操作入口同步调用：
//   - 未认证 → ErrUnauthenticated（先于记录检查）
//   - 记录缺失或已软删除 → ErrFileNotFound
//   - 属主或管理员 → 放行
//   - 其余 → ErrAccessDenied
func CheckFileAccess(ident Identity, file *models.UploadedFile) error {
	if !ident.Authenticated {
		return ErrUnauthenticated
	}

	if file == nil || !file.IsActive {
		return ErrFileNotFound
	}

	if ident.IsAdmin || file.UploadedByUser == ident.Username {
		return nil
	}

	return ErrAccessDenied
}
