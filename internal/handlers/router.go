package handlers

import (
	"time"

	"github.com/Omyelshetty/RentApp/internal/auth"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/middleware"
	"github.com/Omyelshetty/RentApp/internal/receipts"
	"github.com/gin-gonic/gin"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Log            *logger.Logger
	Tokens         *auth.TokenManager
	Policy         *auth.Policy
	Health         *HealthHandler
	Payments       *PaymentHandler
	Tenants        *TenantHandler
	Reports        *ReportHandler
	Auth           *AuthHandler
	Settings       *SettingsHandler
	Receipts       *receipts.FileStore
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine with middleware in order:
// RequestID -> Logger -> Recovery -> CORS -> Timeout.
func NewRouter(deps RouterDeps) *gin.Engine {
	registerJSONFieldNames()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Log))
	router.Use(middleware.Recovery(deps.Log))
	router.Use(middleware.CORS(deps.CORSOrigins))
	if deps.RequestTimeout > 0 {
		router.Use(middleware.Timeout(deps.RequestTimeout))
	}

	router.GET("/health", deps.Health.Health)
	router.GET("/health/ready", deps.Health.Ready)
	router.GET("/receipts/:file", NewReceiptHandler(deps.Receipts).Serve)

	authenticated := middleware.Authenticate(deps.Tokens)
	can := func(capability auth.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(deps.Policy, capability)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", deps.Health.Info)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", deps.Auth.Login)
			authGroup.GET("/me", authenticated, deps.Auth.Me)
		}

		// The gateway authenticates itself with the notification signature.
		v1.POST("/payments/gateway/notification", deps.Payments.GatewayNotification)

		payments := v1.Group("/payments", authenticated)
		{
			payments.GET("/me", can(auth.CapViewOwnPayments), deps.Payments.Mine)
			payments.GET("/monthly-due", can(auth.CapViewOwnPayments), deps.Payments.MonthlyDue)
			payments.GET("/payment-options", can(auth.CapViewOwnPayments), deps.Payments.PaymentOptions)
			payments.POST("/generate-monthly-dues", can(auth.CapGenerateDues), deps.Payments.GenerateMonthlyDues)
			payments.POST("/sweep-overdue", can(auth.CapGenerateDues), deps.Payments.SweepOverdue)

			payments.GET("", can(auth.CapManagePayments), deps.Payments.List)
			payments.POST("", can(auth.CapManagePayments), deps.Payments.Create)
			payments.GET("/:id", can(auth.CapManagePayments), deps.Payments.Get)
			payments.PATCH("/:id", can(auth.CapManagePayments), deps.Payments.Update)
			payments.DELETE("/:id", can(auth.CapManagePayments), deps.Payments.Delete)
			payments.POST("/:id/settle", can(auth.CapManagePayments), deps.Payments.Settle)
			payments.POST("/:id/receipt", can(auth.CapManagePayments), deps.Payments.Receipt)
			payments.POST("/:id/checkout", can(auth.CapViewOwnPayments), deps.Payments.Checkout)
		}

		settings := v1.Group("/settings", authenticated, can(auth.CapManageSettings))
		{
			settings.PUT("/payment-options", deps.Settings.UpdatePaymentOptions)
		}

		reports := v1.Group("/reports", authenticated, can(auth.CapViewReports))
		{
			reports.GET("", deps.Reports.Summary)
			reports.GET("/tenants/:id", deps.Reports.Tenant)
			reports.GET("/payments", deps.Reports.Payments)
			reports.GET("/owners", deps.Reports.Owners)
		}

		tenants := v1.Group("/tenants", authenticated, can(auth.CapManageTenants))
		{
			tenants.GET("", deps.Tenants.ListTenants)
			tenants.POST("", deps.Tenants.CreateTenant)
			tenants.GET("/:id", deps.Tenants.GetTenant)
			tenants.PATCH("/:id", deps.Tenants.UpdateTenant)
			tenants.DELETE("/:id", deps.Tenants.DeleteTenant)
		}

		properties := v1.Group("/properties", authenticated, can(auth.CapManageTenants))
		{
			properties.GET("", deps.Tenants.ListProperties)
			properties.POST("", deps.Tenants.CreateProperty)
			properties.GET("/:id", deps.Tenants.GetProperty)
			properties.PATCH("/:id", deps.Tenants.UpdateProperty)
		}
	}

	return router
}
