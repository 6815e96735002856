package service

import "errors"

// 服务层错误定义，handler 层用 errors.Is 匹配并映射为HTTP状态码
var (
	// ErrEmptyFile 上传内容为空
	ErrEmptyFile = errors.New("文件内容为空")
	// ErrFileTooLarge 文件超过大小上限
	ErrFileTooLarge = errors.New("文件大小超过上限")
	// ErrUnsupportedType 扩展名不在白名单中
	ErrUnsupportedType = errors.New("不支持的文件类型")
	// ErrDuplicateStoredName 存储文件名与已有记录冲突
	ErrDuplicateStoredName = errors.New("存储文件名已存在")
	// ErrFileNotFound 文件记录不存在或已被软删除
	ErrFileNotFound = errors.New("文件不存在")
	// ErrContentMissing 元数据存在但物理文件缺失，意味着存储损坏
	ErrContentMissing = errors.New("物理文件缺失")
	// ErrUnauthenticated 调用方未认证
	ErrUnauthenticated = errors.New("未认证")
	// ErrAccessDenied 已认证但既非属主也非管理员
	ErrAccessDenied = errors.New("无权访问该文件")
)
