// Package app wires configuration, storage, domain services, and the HTTP
// server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/user"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/domain/wishlist"
	"github.com/najiyasheri/pawsome/internal/email"
	"github.com/najiyasheri/pawsome/internal/handler"
	"github.com/najiyasheri/pawsome/internal/payment"
	"github.com/najiyasheri/pawsome/internal/storage/postgres"
	"github.com/najiyasheri/pawsome/pkg/health"
	"github.com/najiyasheri/pawsome/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	wishlistRepo := postgres.NewWishlistRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	otpRepo := postgres.NewOTPRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	intentRepo := postgres.NewIntentRepository(pool)
	orderStore := postgres.NewOrderStore(pool)

	// Payment gateway and OTP mail.
	gateway := payment.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.Secret)

	var sender email.Sender
	if cfg.SMTP.Addr != "" {
		sender = email.NewSMTPSender(cfg.SMTP.Addr, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		lg.Warn("SMTP not configured, logging OTP codes instead")
		sender = email.NewLogSender(lg)
	}

	// Domain services.
	userService := user.NewService(
		userRepo, sessionRepo, otpRepo, addressRepo, walletRepo, sender,
		[]byte(cfg.SessionPepper),
		user.Config{
			SessionTTL:    cfg.SessionTTL,
			OTPTTL:        cfg.OTPTTL,
			ReferralBonus: decimal.NewFromFloat(cfg.Referral.Bonus),
		},
	)
	cartService := cart.NewService(cartRepo, catalogRepo)
	wishlistService := wishlist.NewService(wishlistRepo, catalogRepo, cartService)
	walletService := wallet.NewService(walletRepo, gateway, intentRepo)
	couponValidator := coupon.NewRepoValidator(couponRepo)
	orderService := order.NewService(
		orderStore, catalogRepo, cartService, couponValidator, couponRepo,
		gateway, intentRepo,
		order.Config{
			DeliveryCharge:        decimal.NewFromFloat(cfg.Checkout.DeliveryCharge),
			ExpressDeliveryCharge: decimal.NewFromFloat(cfg.Checkout.ExpressDeliveryCharge),
			CODLimit:              decimal.NewFromFloat(cfg.Checkout.CODLimit),
			ReturnWindow:          cfg.Checkout.ReturnWindow,
		},
	)

	// HTTP handlers: health endpoints + API routes on one server.
	h := handler.NewHandler(
		userService, catalogRepo, cartService, wishlistService,
		orderService, walletService, couponRepo,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("pawsome-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
