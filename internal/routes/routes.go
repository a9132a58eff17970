// Package routes wires the services together and defines the API surface.
package routes

import (
	"time"

	"custora/internal/config"
	"custora/internal/handlers"
	"custora/internal/middleware"
	"custora/internal/models"
	"custora/internal/providers/exchange"
	"custora/internal/repositories"
	"custora/internal/services/deposit"
	"custora/internal/services/transfer"
	"custora/internal/services/wallet"
	"custora/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services bundles the engine's wired service layer so main can run the
// background loops against the same instances the handlers use.
type Services struct {
	Wallet     wallet.Service
	Transfer   transfer.Service
	Deposit    deposit.Service
	Withdrawal withdrawal.Service
	Exchange   exchange.Client
}

// SetupRoutes builds the service graph and registers every route.
func SetupRoutes(app *fiber.App, db *gorm.DB, walletCache wallet.Cache, log *logrus.Logger) *Services {
	store := repositories.NewStore(db)

	exchangeClient := exchange.NewClient(exchange.Config{
		BaseURL:   config.GetEnv("EXCHANGE_BASE_URL", "https://api.exchange.example.com"),
		APIKey:    config.GetEnv("EXCHANGE_API_KEY", ""),
		SecretKey: config.GetEnv("EXCHANGE_API_SECRET", ""),
		Lookback:  config.GetDurationEnv("DEPOSIT_LOOKBACK", 24*time.Hour),
	})

	walletService := wallet.NewService(store, walletCache, &wallet.NoopMetricsCollector{}, log)
	transferService := transfer.NewService(walletService, store, transfer.Config{
		MinTradingTransfer:  config.GetFloatEnv("MIN_TRADING_TRANSFER", transfer.DefaultConfig().MinTradingTransfer),
		PrincipalLockPeriod: config.GetDurationEnv("PRINCIPAL_LOCK_PERIOD", transfer.DefaultConfig().PrincipalLockPeriod),
	}, log)
	depositService := deposit.NewService(store, walletService, exchangeClient, deposit.Config{
		MinConfirmations: config.GetIntEnv("DEPOSIT_MIN_CONFIRMATIONS", deposit.DefaultConfig().MinConfirmations),
		DepositAddress:   config.GetEnv("DEPOSIT_ADDRESS", ""),
	}, log)
	withdrawalService := withdrawal.NewService(store, walletService, withdrawal.PrincipalOnlyPolicy{}, withdrawal.Config{
		ProcessingWindow: config.GetDurationEnv("WITHDRAWAL_PROCESSING_WINDOW", withdrawal.DefaultConfig().ProcessingWindow),
	}, log)

	walletHandler := handlers.NewWalletHandler(walletService)
	transferHandler := handlers.NewTransferHandler(transferService)
	depositHandler := handlers.NewDepositHandler(depositService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	adminHandler := handlers.NewAdminHandler(withdrawalService, walletService)
	webhookHandler := handlers.NewWebhookHandler(depositService, config.GetEnv("WEBHOOK_SECRET", ""), log)

	app.Get("/health", handlers.HealthCheck(db))

	api := app.Group("/api")

	// Webhook ingress is unauthenticated but signed; rate-limit it per IP.
	api.Post("/webhooks/deposits",
		limiter.New(limiter.Config{
			Max:        60,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}),
		webhookHandler.HandleDeposit,
	)

	protected := api.Use(middleware.Auth())

	walletGroup := protected.Group("/wallets")
	walletGroup.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetBalances)
	walletGroup.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetTransactions)

	protected.Post("/transfers", middleware.HasPermission(models.PermissionTransferWrite), transferHandler.Transfer)

	deposits := protected.Group("/deposits")
	deposits.Get("/address", depositHandler.GetAddress)
	deposits.Post("/", middleware.HasPermission(models.PermissionDepositWrite), depositHandler.SubmitClaim)
	deposits.Get("/", depositHandler.ListClaims)
	deposits.Get("/:txId", depositHandler.GetClaim)
	deposits.Post("/:txId/verify", middleware.HasPermission(models.PermissionDepositWrite), depositHandler.Verify)

	withdrawals := protected.Group("/withdrawals")
	withdrawals.Post("/", middleware.HasPermission(models.PermissionWithdrawalWrite), withdrawalHandler.Create)
	withdrawals.Get("/:id", withdrawalHandler.Get)
	withdrawals.Post("/:id/cancel", middleware.HasPermission(models.PermissionWithdrawalWrite), withdrawalHandler.Cancel)

	admin := app.Group("/api/admin", middleware.Auth(), middleware.AdminOnly)
	admin.Get("/withdrawals", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.ListPendingWithdrawals)
	admin.Post("/withdrawals/:id/approve", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.RejectWithdrawal)
	admin.Post("/withdrawals/:id/complete", middleware.HasPermission(models.PermissionWriteAdmin), adminHandler.CompleteWithdrawal)
	admin.Get("/audit/:userId", middleware.HasPermission(models.PermissionReadAdmin), adminHandler.AuditUser)

	return &Services{
		Wallet:     walletService,
		Transfer:   transferService,
		Deposit:    depositService,
		Withdrawal: withdrawalService,
		Exchange:   exchangeClient,
	}
}
