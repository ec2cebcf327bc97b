package http

import (
	"context"

	"UnyraSupport/internal/config"
	"UnyraSupport/internal/initial"
	jwtMiddleware "UnyraSupport/internal/middleware/jwt"
	"UnyraSupport/internal/modules/support/application/service"
	"UnyraSupport/internal/modules/support/infrastructure/llm"
	"UnyraSupport/internal/modules/support/infrastructure/orchestrator"
	"UnyraSupport/internal/modules/support/infrastructure/persistence"
	"UnyraSupport/internal/modules/support/infrastructure/sheets"
	"UnyraSupport/internal/modules/support/infrastructure/unyra"
	supportHandler "UnyraSupport/internal/modules/support/interface/http"
	"UnyraSupport/pkg/ssl"
	"UnyraSupport/pkg/ws"
	"UnyraSupport/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	wsHub := ws.NewHub()

	sessionRepo := persistence.NewSupportSessionRepository(initial.GormDB)
	messageRepo := persistence.NewSupportMessageRepository(initial.GormDB)
	ticketRepo := persistence.NewSupportTicketRepository(initial.GormDB)

	sheetsClient := sheets.NewClientFromConfig(conf)
	unyraClient := unyra.NewClientFromConfig(conf)

	// 模型不可用时不中止启动：编排器收到nil模型后所有会话走fallback路径
	chatModel, chatMeta, err := llm.NewChatModelFromConfig(context.Background(), conf)
	if err != nil {
		zlog.Warn("chat model unavailable, sessions will run in fallback mode", zap.Error(err))
		chatModel = nil
	}

	orch, err := orchestrator.New(chatModel, chatMeta, sheetsClient, unyraClient,
		orchestrator.WithRepositories(sessionRepo, messageRepo, ticketRepo))
	if err != nil {
		zlog.Fatal("orchestrator init failed: " + err.Error())
	}

	accountSvc := service.NewAccountService(unyraClient)
	chatSvc := service.NewChatService(orch, accountSvc)
	ticketSvc := service.NewTicketService(sheetsClient, ticketRepo)

	authH := supportHandler.NewAuthHandler()
	supportH := supportHandler.NewSupportHandler(chatSvc, accountSvc, ticketSvc, wsHub)
	wsH := supportHandler.NewWsHandler(wsHub)

	GE.POST("/login", authH.Login)
	GE.GET("/wss", wsH.Connect)

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/auth/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"email": c.GetString("email"),
			"role":  c.GetString("role"),
		})
	})
	authed.GET("/support/accounts", supportH.ListAccounts)
	authed.POST("/support/session/start", supportH.StartSession)
	authed.POST("/support/chat/send", supportH.Send)
	authed.POST("/support/tickets/list", supportH.ListTickets)
}
