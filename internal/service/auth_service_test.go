package service

import (
	"path/filepath"
	"testing"
	"time"

	"filevault/internal/config"
	"filevault/internal/dto"
	"filevault/internal/models"
	"filevault/internal/repository"
	"filevault/internal/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	cfg := &config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "admin-secret"},
	}
	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)

	return NewAuthService(repository.NewUserRepository(db), jwtManager, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if user.IsAdmin {
		t.Fatal("普通注册用户不应是管理员")
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("密码不应明文存储")
	}

	resp, err := svc.Login(&dto.LoginRequest{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("登录应返回Token")
	}
	if resp.User.Username != "alice" {
		t.Fatalf("用户信息不符: %+v", resp.User)
	}

	if _, err := svc.Login(&dto.LoginRequest{Username: "alice", Password: "wrong"}); err == nil {
		t.Fatal("错误密码不应登录成功")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Register(&dto.RegisterRequest{Username: "bob", Password: "secret123"}); err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if _, err := svc.Register(&dto.RegisterRequest{Username: "bob", Password: "secret456"}); err == nil {
		t.Fatal("重复用户名不应注册成功")
	}
}

func TestRegisterInvalidUsername(t *testing.T) {
	svc := newAuthService(t)

	for _, username := range []string{"ab", "has space", "名字", "bad-char!"} {
		if _, err := svc.Register(&dto.RegisterRequest{Username: username, Password: "secret123"}); err == nil {
			t.Errorf("非法用户名 %q 不应注册成功", username)
		}
	}
}

func TestInitAdmin(t *testing.T) {
	svc := newAuthService(t)

	if err := svc.InitAdmin(); err != nil {
		t.Fatalf("初始化管理员失败: %v", err)
	}

	resp, err := svc.Login(&dto.LoginRequest{Username: "admin", Password: "admin-secret"})
	if err != nil {
		t.Fatalf("管理员登录失败: %v", err)
	}
	if !resp.User.IsAdmin {
		t.Fatal("管理员账户应有管理员标记")
	}

	// 重复初始化不报错也不重复创建
	if err := svc.InitAdmin(); err != nil {
		t.Fatalf("重复初始化不应报错: %v", err)
	}
}
