package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhdb91/therinproperty/internal/captcha"
	"github.com/muhdb91/therinproperty/internal/services"
)

// PublicHandler serves the visitor-facing endpoints.
type PublicHandler struct {
	catalogService services.ICatalogService
	configService  services.IConfigService
	leadService    services.ILeadService
	verifier       captcha.IVerifier
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(catalogService services.ICatalogService, configService services.IConfigService, leadService services.ILeadService, verifier captcha.IVerifier) *PublicHandler {
	return &PublicHandler{
		catalogService: catalogService,
		configService:  configService,
		leadService:    leadService,
		verifier:       verifier,
	}
}

// ListListings handles GET /v1/listing with optional q and sort parameters.
func (h *PublicHandler) ListListings(c *gin.Context) {
	query := c.Query("q")
	sortMode := services.SortMode(c.DefaultQuery("sort", string(services.SortNone)))

	listings := h.catalogService.Search(query, sortMode)
	c.JSON(http.StatusOK, gin.H{"data": listings})
}

// GetListing handles GET /v1/listing/:id
func (h *PublicHandler) GetListing(c *gin.Context) {
	listing, err := h.catalogService.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetPublicConfig handles GET /v1/config. The notification address never
// leaves the admin surface.
func (h *PublicHandler) GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.configService.GetPublic())
}

// GetCaptcha handles GET /v1/captcha, issuing a fresh challenge.
func (h *PublicHandler) GetCaptcha(c *gin.Context) {
	challenge, err := h.verifier.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue challenge"})
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// SubmitLead handles POST /v1/lead, the whole intake pipeline.
func (h *PublicHandler) SubmitLead(c *gin.Context) {
	var req services.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lead, err := h.leadService.Submit(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, captcha.ErrMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Incorrect answer. Please try again."})
		case errors.Is(err, captcha.ErrInvalidToken):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Challenge expired. Please try again."})
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record enquiry"})
		}
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// WhatsAppLink handles GET /v1/whatsapp.
func (h *PublicHandler) WhatsAppLink(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": h.configService.WhatsAppLink()})
}

// Ping handles GET /v1/ping.
func (h *PublicHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
