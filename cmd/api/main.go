package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/config"
	"github.com/wishpool/wishpool-api/internal/domain/contribution"
	"github.com/wishpool/wishpool-api/internal/domain/notification"
	"github.com/wishpool/wishpool-api/internal/domain/payout"
	"github.com/wishpool/wishpool-api/internal/domain/wallet"
	"github.com/wishpool/wishpool-api/internal/domain/wishlist"
	"github.com/wishpool/wishpool-api/internal/domain/withdrawal"
	"github.com/wishpool/wishpool-api/internal/middleware"
	"github.com/wishpool/wishpool-api/internal/pkg/database"
	"github.com/wishpool/wishpool-api/internal/pkg/jwt"
	"github.com/wishpool/wishpool-api/internal/pkg/logger"
	"github.com/wishpool/wishpool-api/internal/pkg/paystack"
	pkgresponse "github.com/wishpool/wishpool-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Wishpool API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	paystackClient := paystack.NewClient(paystack.Config{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
	})

	// ---------- Repositories ----------
	walletRepo := wallet.NewRepository(db)
	payoutRepo := payout.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	wishlistRepo := wishlist.NewRepository(db)
	contributionRepo := contribution.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// ---------- Adapters ----------
	payoutVerifier := &payoutVerifierAdapter{client: paystackClient}
	transferClient := &transferClientAdapter{client: paystackClient}

	// ---------- Services ----------
	notificationService := notification.NewService(notificationRepo)
	walletService := wallet.NewService(walletRepo)
	payoutService := payout.NewService(payoutRepo, payoutVerifier, redis)
	withdrawalService := withdrawal.NewService(withdrawalRepo, walletRepo, payoutService, transferClient, notificationService, cfg.WithdrawalMinimum)
	wishlistService := wishlist.NewService(wishlistRepo, walletRepo)
	contributionService := contribution.NewService(contributionRepo, wishlistRepo, walletRepo, paystackClient, notificationService)

	// ---------- Handlers ----------
	walletHandler := wallet.NewHandler(walletService)
	payoutHandler := payout.NewHandler(payoutService)
	withdrawalHandler := withdrawal.NewHandler(withdrawalService)
	wishlistHandler := wishlist.NewHandler(wishlistService)
	contributionHandler := contribution.NewHandler(contributionService, withdrawalService, cfg.PaystackSecretKey)
	notificationHandler := notification.NewHandler(notificationService)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/payout-methods", payoutHandler.Routes(authMiddleware))
		r.Mount("/withdrawals", withdrawalHandler.Routes(authMiddleware))
		r.Mount("/wishlists", wishlistHandler.Routes(authMiddleware))
		r.Mount("/contributions", contributionHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	r.Post("/webhooks/paystack", contributionHandler.Webhook)

	r.Route("/api/admin", func(r chi.Router) {
		r.Mount("/withdrawals", withdrawalHandler.AdminRoutes(authMiddleware, adminMiddleware))
		r.Mount("/contributions", contributionHandler.AdminRoutes(authMiddleware, adminMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// Adapter implementations to bridge interface mismatches

// payoutVerifierAdapter adapts paystack.Client to payout.Verifier
type payoutVerifierAdapter struct {
	client *paystack.Client
}

func (a *payoutVerifierAdapter) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	resolved, err := a.client.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		return "", err
	}
	return resolved.AccountName, nil
}

func (a *payoutVerifierAdapter) CreateTransferRecipient(ctx context.Context, accountNumber, accountName, bankCode string) (string, error) {
	recipient, err := a.client.CreateTransferRecipient(ctx, accountNumber, accountName, bankCode)
	if err != nil {
		return "", err
	}
	return recipient.RecipientCode, nil
}

func (a *payoutVerifierAdapter) ListBanks(ctx context.Context) ([]payout.Bank, error) {
	banks, err := a.client.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]payout.Bank, len(banks))
	for i, b := range banks {
		out[i] = payout.Bank{Name: b.Name, Code: b.Code}
	}
	return out, nil
}

// transferClientAdapter adapts paystack.Client to withdrawal.TransferClient
type transferClientAdapter struct {
	client *paystack.Client
}

func (a *transferClientAdapter) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) (string, error) {
	transfer, err := a.client.InitiateTransfer(ctx, recipientCode, amount, reference, reason)
	if err != nil {
		return "", err
	}
	return transfer.TransferCode, nil
}
