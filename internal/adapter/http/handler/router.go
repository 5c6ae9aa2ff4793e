package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	UserSvc        ports.UserService
	WalletSvc      ports.WalletService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService         // nil = audit logging disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode; empty means release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	userHandler := NewUserHandler(deps.UserSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc, deps.UserSvc)
	transferHandler := NewTransferHandler(deps.WalletSvc, deps.UserSvc)
	historyHandler := NewHistoryHandler(deps.HistorySvc, deps.UserSvc)

	// --- Public routes ---
	v1.POST("/users", rl("users_register"), userHandler.Register)
	v1.POST("/auth/login", rl("auth_login"), userHandler.Login)

	// --- JWT-authenticated routes ---
	users := v1.Group("/users", jwtAuth)
	{
		users.GET("/:userId", rl("reads"), userHandler.Profile)
		users.GET("/:userId/wallets/:walletId/transactions", rl("reads"), historyHandler.ListTransactions)
	}

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", rl("reads"), walletHandler.GetBalance)
		wallets.POST("/deposit", rl("wallets_write"), walletHandler.Deposit)
		wallets.POST("/withdraw", rl("wallets_write"), walletHandler.Withdraw)
	}

	v1.POST("/transfers", jwtAuth, rl("transfers"), transferHandler.Transfer)

	return r
}
