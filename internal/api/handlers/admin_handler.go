package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/muhdb91/therinproperty/internal/api/middleware"
	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/export"
	"github.com/muhdb91/therinproperty/internal/gen"
	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/services"
	"github.com/muhdb91/therinproperty/internal/storage"
	"github.com/muhdb91/therinproperty/internal/tasks"
)

// IAsynqClient defines the interface for the Asynq client methods used by
// the handler. Allows mocking in tests.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AdminHandler serves the operator endpoints behind the session gate.
type AdminHandler struct {
	cfg            *config.Config
	sessions       *middleware.SessionStore
	catalogService services.ICatalogService
	configService  services.IConfigService
	leadService    services.ILeadService
	dispatcher     notify.IDispatcher
	generator      gen.IGenerator
	storageService storage.IS3Storage
	taskClient     IAsynqClient // nil when redis is not configured
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cfg *config.Config,
	sessions *middleware.SessionStore,
	catalogService services.ICatalogService,
	configService services.IConfigService,
	leadService services.ILeadService,
	dispatcher notify.IDispatcher,
	generator gen.IGenerator,
	storageService storage.IS3Storage,
	taskClient IAsynqClient,
) *AdminHandler {
	return &AdminHandler{
		cfg:            cfg,
		sessions:       sessions,
		catalogService: catalogService,
		configService:  configService,
		leadService:    leadService,
		dispatcher:     dispatcher,
		generator:      generator,
		storageService: storageService,
		taskClient:     taskClient,
	}
}

// Login handles POST /v1/admin/login. A wrong password blocks with 401 and
// nothing else: no lockout, no attempt counting.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": h.sessions.Issue()})
}

// Logout handles POST /v1/admin/logout.
func (h *AdminHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 {
		h.sessions.Revoke(parts[1])
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// --- Listings ---

// CreateListing handles POST /v1/admin/listing.
func (h *AdminHandler) CreateListing(c *gin.Context) {
	var listing models.Listing
	if err := c.ShouldBindJSON(&listing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.catalogService.Create(c.Request.Context(), listing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateListing handles PUT /v1/admin/listing/:id, a whole-record replace.
func (h *AdminHandler) UpdateListing(c *gin.Context) {
	var listing models.Listing
	if err := c.ShouldBindJSON(&listing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	listing.ID = c.Param("id")

	if err := h.catalogService.Update(c.Request.Context(), listing); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing handles DELETE /v1/admin/listing/:id?confirm=true.
func (h *AdminHandler) DeleteListing(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	err := h.catalogService.Delete(c.Request.Context(), c.Param("id"), confirmed)
	if err != nil {
		if errors.Is(err, services.ErrNotConfirmed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirm=true"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// GenerateDescription handles POST /v1/admin/listing/description. Always
// returns a usable description; generation failures fall back silently.
func (h *AdminHandler) GenerateDescription(c *gin.Context) {
	var details gen.Details
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": h.generator.Generate(c.Request.Context(), details)})
}

// --- Leads ---

// ListLeads handles GET /v1/admin/lead, newest first.
func (h *AdminHandler) ListLeads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.leadService.Leads()})
}

// SetLeadStatus handles PUT /v1/admin/lead/:id/status.
func (h *AdminHandler) SetLeadStatus(c *gin.Context) {
	var req struct {
		Status models.LeadStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.leadService.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// LeadReport handles GET /v1/admin/lead/report.csv.
func (h *AdminHandler) LeadReport(c *gin.Context) {
	data, err := export.LeadsCSV(h.leadService.Leads())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	filename := export.ReportFilename(time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// --- Site configuration ---

// UpdateConfig handles PUT /v1/admin/config, a whole-record replace.
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	var cfg models.SiteConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.configService.Set(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save configuration"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetConfig handles GET /v1/admin/config, the full record including the
// notification address.
func (h *AdminHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.configService.Get())
}

// AddBanner handles POST /v1/admin/banner.
func (h *AdminHandler) AddBanner(c *gin.Context) {
	banner, err := h.configService.AddBanner(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add banner"})
		return
	}
	c.JSON(http.StatusCreated, banner)
}

// RemoveBanner handles DELETE /v1/admin/banner/:id.
func (h *AdminHandler) RemoveBanner(c *gin.Context) {
	if err := h.configService.RemoveBanner(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner removed"})
}

// UpdateBanner handles PUT /v1/admin/banner/:id with a single field/value
// pair.
func (h *AdminHandler) UpdateBanner(c *gin.Context) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.configService.UpdateBannerField(c.Request.Context(), c.Param("id"), req.Field, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner updated"})
}

// --- Notifications ---

// GetNotificationPermission handles GET /v1/admin/notifications. The
// settings surface re-queries this on every render.
func (h *AdminHandler) GetNotificationPermission(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permission": h.dispatcher.Permission()})
}

// RequestNotificationPermission handles POST /v1/admin/notifications. On
// grant a test notification goes out immediately.
func (h *AdminHandler) RequestNotificationPermission(c *gin.Context) {
	email := h.configService.Get().NotificationEmail
	permission := h.dispatcher.RequestPermission(c.Request.Context(), email)
	c.JSON(http.StatusOK, gin.H{"permission": permission})
}

// --- Image uploads ---

// GetUploadURL handles POST /v1/admin/upload-url.
func (h *AdminHandler) GetUploadURL(c *gin.Context) {
	var req struct {
		Kind        string `json:"kind"` // "listing" or "banner"
		RefID       string `json:"refId"`
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if h.storageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads not configured"})
		return
	}

	uploadURL, objectKey, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), req.Kind, req.RefID, req.Filename, req.ContentType)
	if err != nil {
		log.Printf("Failed to generate upload URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	// Client needs the key back for the confirm step.
	c.JSON(http.StatusOK, gin.H{"upload_url": uploadURL, "object_key": objectKey})
}

// ConfirmUpload handles POST /v1/admin/upload-confirm, scheduling
// normalization of the uploaded object.
func (h *AdminHandler) ConfirmUpload(c *gin.Context) {
	var req struct {
		ObjectKey string `json:"object_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ObjectKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if h.taskClient == nil {
		// No worker without redis; the raw upload stays as-is.
		c.JSON(http.StatusOK, gin.H{"message": "Upload recorded"})
		return
	}

	payload, err := json.Marshal(tasks.ImagePayload{S3Key: req.ObjectKey})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}
	task := asynq.NewTask(tasks.TypeImageProcess, payload, asynq.Queue("images"))
	taskInfo, err := h.taskClient.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		log.Printf("ERROR enqueuing image processing task for key %s: %v", req.ObjectKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}

	log.Printf("Enqueued image processing task ID %s for key %s", taskInfo.ID, req.ObjectKey)
	c.JSON(http.StatusOK, gin.H{"message": "Upload recorded", "task_id": taskInfo.ID})
}
