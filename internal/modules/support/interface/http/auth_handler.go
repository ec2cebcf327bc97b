package http

import (
	"strings"

	"UnyraSupport/internal/config"
	supportRequest "UnyraSupport/internal/modules/support/application/dto/request"
	"UnyraSupport/internal/modules/support/application/dto/respond"
	"UnyraSupport/pkg/back"
	"UnyraSupport/pkg/util/myjwt"
	"UnyraSupport/pkg/xerr"
	"UnyraSupport/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 登录HTTP Handler：运营人员用admin密钥，终端客户用访问码
type AuthHandler struct{}

// NewAuthHandler 创建AuthHandler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Login 登录换取JWT
//
// 路由: POST /login
// 请求体: LoginRequest
func (h *AuthHandler) Login(c *gin.Context) {
	var req supportRequest.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("login bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.AccessCode)
	if email == "" || code == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	conf := config.GetConfig()
	role := ""
	switch {
	case email == strings.ToLower(conf.OperatorConfig.AdminEmail) && code == conf.OperatorConfig.AdminSecret:
		role = "admin"
	case code == conf.OperatorConfig.AccessCode:
		role = "client"
	default:
		back.Error(c, xerr.Unauthorized, "credenciales inválidas")
		return
	}

	token, err := myjwt.GenerateToken(email, role)
	if err != nil {
		zlog.Error("token generation failed", zap.Error(err), zap.String("email", email))
		back.Error(c, xerr.InternalServerError, xerr.ErrServerError.Message)
		return
	}

	zlog.Info("login ok", zap.String("email", email), zap.String("role", role))
	back.Success(c, respond.LoginRespond{Token: token, Email: email, Role: role})
}
