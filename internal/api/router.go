package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhdb91/therinproperty/internal/api/handlers"
	"github.com/muhdb91/therinproperty/internal/api/middleware"
	"github.com/muhdb91/therinproperty/internal/captcha"
	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/gen"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/services"
	"github.com/muhdb91/therinproperty/internal/state"
	"github.com/muhdb91/therinproperty/internal/storage"
)

// adminSessionTTL bounds how long an issued admin token stays valid.
// Sessions also die with the process regardless.
const adminSessionTTL = 12 * time.Hour

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(
	cfg *config.Config,
	container *state.Container,
	dispatcher notify.IDispatcher,
	storageService storage.IS3Storage,
	taskClient handlers.IAsynqClient,
) *gin.Engine {
	// Services over the shared state container.
	catalogService := services.NewCatalogService(container)
	configService := services.NewConfigService(container)
	verifier := captcha.NewVerifier(cfg)
	leadService := services.NewLeadService(container, verifier, dispatcher)
	generator := gen.NewGenerator(cfg)

	sessions := middleware.NewSessionStore(adminSessionTTL)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())

	publicHandler := handlers.NewPublicHandler(catalogService, configService, leadService, verifier)
	adminHandler := handlers.NewAdminHandler(cfg, sessions, catalogService, configService, leadService, dispatcher, generator, storageService, taskClient)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", publicHandler.Ping)
		v1.GET("/config", publicHandler.GetPublicConfig)
		v1.GET("/whatsapp", publicHandler.WhatsAppLink)

		v1.GET("/listing", publicHandler.ListListings)
		v1.GET("/listing/:id", publicHandler.GetListing)

		v1.GET("/captcha", publicHandler.GetCaptcha)
		// Intake is the only rate-limited route. The admin gate stays
		// unthrottled: wrong passwords block with 401 and nothing more.
		v1.POST("/lead", rateLimiter.Limit(), publicHandler.SubmitLead)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/login", adminHandler.Login)

		authed := admin.Group("")
		authed.Use(middleware.AdminAuthMiddleware(sessions))
		{
			authed.POST("/logout", adminHandler.Logout)

			authed.POST("/listing", adminHandler.CreateListing)
			authed.PUT("/listing/:id", adminHandler.UpdateListing)
			authed.DELETE("/listing/:id", adminHandler.DeleteListing)
			authed.POST("/listing/description", adminHandler.GenerateDescription)

			authed.GET("/lead", adminHandler.ListLeads)
			authed.PUT("/lead/:id/status", adminHandler.SetLeadStatus)
			authed.GET("/lead/report.csv", adminHandler.LeadReport)

			authed.GET("/config", adminHandler.GetConfig)
			authed.PUT("/config", adminHandler.UpdateConfig)
			authed.POST("/banner", adminHandler.AddBanner)
			authed.PUT("/banner/:id", adminHandler.UpdateBanner)
			authed.DELETE("/banner/:id", adminHandler.RemoveBanner)

			authed.GET("/notifications", adminHandler.GetNotificationPermission)
			authed.POST("/notifications", adminHandler.RequestNotificationPermission)

			authed.POST("/upload-url", adminHandler.GetUploadURL)
			authed.POST("/upload-confirm", adminHandler.ConfirmUpload)
		}
	}

	return r
}
