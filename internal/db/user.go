package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRole 区分普通用户与站点管理员。
type UserRole string

const (
	RoleUser         UserRole = "u"
	RoleWebsiteAdmin UserRole = "wa"
	RoleSystemAdmin  UserRole = "sa"
)

// User 定义了用户模型
type User struct {
	gorm.Model
	Username string   `gorm:"unique;not null"`
	Email    string   `gorm:"index"`
	Password string   `gorm:"not null"`
	Role     UserRole `gorm:"size:2;default:u;index"`
}

// IsAdmin 报告用户是否具备站点管理权限。
func (u *User) IsAdmin() bool {
	return u.Role == RoleWebsiteAdmin || u.Role == RoleSystemAdmin
}

// SetPassword 以 bcrypt 哈希写入密码字段。
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword 校验明文密码是否与存储的哈希一致。
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// EnsureAdmin 存在性检查：若提供的用户名与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的站点管理员。
func EnsureAdmin(username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		admin := User{Username: trimmedUser, Role: RoleWebsiteAdmin}
		if err := admin.SetPassword(trimmedPassword); err != nil {
			return err
		}
		return DB.Create(&admin).Error
	}

	return nil
}
