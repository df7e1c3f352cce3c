// Package app wires configuration, storage, services and workers into one
// application shared by the HTTP server and the rentctl CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/config"
	"github.com/Omyelshetty/RentApp/internal/database"
	"github.com/Omyelshetty/RentApp/internal/gateway"
	"github.com/Omyelshetty/RentApp/internal/handlers"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/receipts"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/Omyelshetty/RentApp/internal/scheduler"
	"github.com/Omyelshetty/RentApp/internal/services"
	"github.com/gin-gonic/gin"
)

// App holds every long-lived component. Construct it with New and release it with Close.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	// DB is nil when the memory store is selected.
	DB       *database.Database
	Store    *repository.Store
	Files    *receipts.FileStore
	Receipts *receipts.Pool
	Tokens   *auth.TokenManager
	Policy   *auth.Policy
	Billing  services.BillingPolicy

	Payments       services.PaymentService
	Dues           services.DueGenerator
	Sweeper        services.OverdueSweeper
	Tenants        services.TenantService
	Properties     services.PropertyService
	Reports        services.ReportService
	Auth           services.AuthService
	PaymentOptions services.PaymentOptionsService
	Gateway        services.GatewayService

	scheduler *scheduler.OverdueScheduler
	started   bool
}

// New connects the store and builds the services. Workers are not running until Start.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Log:    log,
		Tokens: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Policy: auth.DefaultPolicy(),
		Billing: services.BillingPolicy{
			Location:  time.Local,
			DueDay:    cfg.Billing.DueDay,
			GraceDays: cfg.Billing.OverdueGraceDays,
		},
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	files, err := receipts.NewFileStore(cfg.Receipts.Dir, cfg.Server.PublicBaseURL)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.Files = files
	a.Receipts = receipts.NewPool(a.Store, files, receipts.NewPDFRenderer(), receipts.PoolConfig{
		Workers:     cfg.Receipts.Workers,
		QueueSize:   cfg.Receipts.QueueSize,
		WaitTimeout: cfg.Receipts.WaitTimeout,
	}, log.WithComponent("receipts"))

	a.buildServices()

	if cfg.Billing.SweepEnabled {
		a.scheduler, err = scheduler.NewOverdueScheduler(cfg.Billing.SweepCron, a.Billing.Location, a.Sweeper, log)
		if err != nil {
			a.closeStore()
			return nil, err
		}
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Database.Driver {
	case config.StoreDriverMemory:
		a.Store = repository.NewMemoryStore().Store()
		a.Log.Warn("Using the in-memory store; data is lost on restart", nil)
		return nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresPool(ctx, a.Config.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.DB = db
		a.Store = repository.NewPostgresStore(db)
		a.Log.Info("Database connection established", map[string]interface{}{
			"host":     a.Config.Database.Host,
			"port":     a.Config.Database.Port,
			"database": a.Config.Database.Name,
			"pool_min": a.Config.Database.PoolMin,
			"pool_max": a.Config.Database.PoolMax,
		})
		return nil
	}
	return fmt.Errorf("unknown store driver %q", a.Config.Database.Driver)
}

func (a *App) buildServices() {
	cfg := a.Config
	log := a.Log.WithComponent("services")
	store := a.Store

	a.Payments = services.NewPaymentService(store.Payments, store.Tenants, store.Properties, a.Receipts, log,
		services.WithBillingPolicy(a.Billing))
	a.Dues = services.NewDueGenerator(store.Payments, store.Tenants, a.Billing, log)
	a.Sweeper = services.NewOverdueSweeper(store.Payments, a.Billing, log)
	a.Tenants = services.NewTenantService(store.Tenants, store.Properties, store.Payments, store.Users, a.Receipts, log)
	a.Properties = services.NewPropertyService(store.Properties, log)
	a.Reports = services.NewReportService(store.Payments, store.Tenants, store.Properties, log)
	a.Auth = services.NewAuthService(store.Users, a.Tokens, log)
	a.PaymentOptions = services.NewPaymentOptionsService(store.Settings, models.PaymentOptions{
		UPIID: cfg.PaymentOptions.UPIID,
		BankDetails: models.BankDetails{
			BankName:          cfg.PaymentOptions.BankName,
			AccountHolderName: cfg.PaymentOptions.AccountHolderName,
			AccountNumber:     cfg.PaymentOptions.AccountNumber,
			IFSCCode:          cfg.PaymentOptions.IFSCCode,
			Branch:            cfg.PaymentOptions.Branch,
		},
	}, cfg.PaymentOptions.UPIQRBaseURL, log)

	// A typed nil *Midtrans would not compare equal to nil inside the service.
	if cfg.Gateway.Enabled() {
		provider := gateway.NewMidtrans(cfg.Gateway.ServerKey, cfg.Gateway.Production)
		a.Gateway = services.NewGatewayService(provider, a.Payments, store.Payments, store.Tenants, log)
	} else {
		a.Gateway = services.NewGatewayService(nil, a.Payments, store.Payments, store.Tenants, log)
	}
}

// Migrate applies the database schema. It is a no-op for the memory store.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Migrate(ctx)
}

// Start launches the receipt workers and, when enabled, the overdue scheduler.
func (a *App) Start(ctx context.Context) {
	a.Receipts.Start(ctx)
	if a.scheduler != nil {
		a.scheduler.Start()
		a.Log.Debug("Next overdue sweep", map[string]interface{}{
			"at": a.scheduler.Next().Format(time.RFC3339),
		})
	}
	a.started = true
}

// Router builds the HTTP handler.
func (a *App) Router() *gin.Engine {
	var pinger handlers.Pinger
	if a.DB != nil {
		pinger = a.DB
	}

	return handlers.NewRouter(handlers.RouterDeps{
		Log:            a.Log,
		Tokens:         a.Tokens,
		Policy:         a.Policy,
		Health:         handlers.NewHealthHandler(pinger, a.Config.Server.Env, a.Config.Database.Driver),
		Payments:       handlers.NewPaymentHandler(a.Payments, a.Dues, a.Sweeper, a.PaymentOptions, a.Gateway),
		Tenants:        handlers.NewTenantHandler(a.Tenants, a.Properties),
		Reports:        handlers.NewReportHandler(a.Reports),
		Auth:           handlers.NewAuthHandler(a.Auth),
		Settings:       handlers.NewSettingsHandler(a.PaymentOptions),
		Receipts:       a.Files,
		CORSOrigins:    a.Config.CORS.Origins,
		RequestTimeout: a.Config.Server.RequestTimeout,
	})
}

// Close stops the scheduler, drains the receipt workers and closes the store, in that order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.started {
		if a.scheduler != nil {
			if err := a.scheduler.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
			}
		}
		a.Receipts.Stop()
	}
	a.closeStore()
	return errors.Join(errs...)
}

func (a *App) closeStore() {
	if a.DB != nil {
		a.DB.Close()
	}
}
