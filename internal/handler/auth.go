package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/docwn/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

var errNotLoggedIn = errors.New("not logged in")

// AuthRequired 是一个简单的认证中间件：会话中没有 user_id 时拒绝请求。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUserID(c) == 0 {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 在认证之上再检查管理员角色。
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil || !user.IsAdmin() {
			respondError(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中取当前用户 ID，匿名访客返回 0。
func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	raw := session.Get("user_id")
	if raw == nil {
		return 0
	}
	id, ok := raw.(uint)
	if !ok {
		return 0
	}
	return id
}

func currentUser(c *gin.Context) (*db.User, error) {
	userID := currentUserID(c)
	if userID == 0 {
		return nil, errNotLoggedIn
	}
	var user db.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 校验用户名密码并写入会话。
func (a *API) Login(c *gin.Context) {
	var input loginInput
	if !bindJSON(c, &input, "invalid login payload") {
		return
	}

	var user db.User
	err := a.db.Where("username = ?", strings.TrimSpace(input.Username)).First(&user).Error
	if err != nil || !user.CheckPassword(input.Password) {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": user.Username,
		"role":     string(user.Role),
	})
}

// Logout 清空会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
