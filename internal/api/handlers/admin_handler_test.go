package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muhdb91/therinproperty/internal/api/handlers"
	"github.com/muhdb91/therinproperty/internal/api/middleware"
	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/gen"
	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/services"
)

type adminTestEnv struct {
	router     *gin.Engine
	sessions   *middleware.SessionStore
	catalog    *MockCatalogService
	config     *MockConfigService
	lead       *MockLeadService
	dispatcher *MockDispatcher
	generator  *MockGenerator
	storage    *MockS3Storage
}

func setupAdminRouter(t *testing.T) *adminTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &adminTestEnv{
		sessions:   middleware.NewSessionStore(time.Hour),
		catalog:    new(MockCatalogService),
		config:     new(MockConfigService),
		lead:       new(MockLeadService),
		dispatcher: new(MockDispatcher),
		generator:  new(MockGenerator),
		storage:    new(MockS3Storage),
	}

	cfg := &config.Config{AdminPassword: "admin123"}
	h := handlers.NewAdminHandler(cfg, env.sessions, env.catalog, env.config, env.lead, env.dispatcher, env.generator, env.storage, nil)

	r := gin.New()
	admin := r.Group("/v1/admin")
	admin.POST("/login", h.Login)
	authed := admin.Group("")
	authed.Use(middleware.AdminAuthMiddleware(env.sessions))
	{
		authed.POST("/logout", h.Logout)
		authed.POST("/listing", h.CreateListing)
		authed.PUT("/listing/:id", h.UpdateListing)
		authed.DELETE("/listing/:id", h.DeleteListing)
		authed.POST("/listing/description", h.GenerateDescription)
		authed.GET("/lead", h.ListLeads)
		authed.PUT("/lead/:id/status", h.SetLeadStatus)
		authed.GET("/lead/report.csv", h.LeadReport)
		authed.GET("/config", h.GetConfig)
		authed.PUT("/config", h.UpdateConfig)
		authed.POST("/banner", h.AddBanner)
		authed.PUT("/banner/:id", h.UpdateBanner)
		authed.DELETE("/banner/:id", h.RemoveBanner)
		authed.GET("/notifications", h.GetNotificationPermission)
		authed.POST("/notifications", h.RequestNotificationPermission)
		authed.POST("/upload-url", h.GetUploadURL)
	}
	env.router = r
	return env
}

func (env *adminTestEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *adminTestEnv) login(t *testing.T) string {
	t.Helper()
	w := env.do(t, "POST", "/v1/admin/login", "", gin.H{"password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupAdminRouter(t)
	w := env.do(t, "POST", "/v1/admin/login", "", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginCorrectPasswordIssuesToken(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)
	assert.True(t, env.sessions.Valid(token))
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := setupAdminRouter(t)

	w := env.do(t, "GET", "/v1/admin/lead", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "GET", "/v1/admin/lead", "forged-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	w := env.do(t, "POST", "/v1/admin/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.sessions.Valid(token))
}

func TestCreateListing(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.catalog.On("Create", mock.Anything, mock.MatchedBy(func(l models.Listing) bool {
		return l.Title == "New Villa"
	})).Return(models.Listing{ID: "gen-id", Title: "New Villa", Status: models.ListingAvailable}, nil)

	w := env.do(t, "POST", "/v1/admin/listing", token, gin.H{"title": "New Villa"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var got models.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "gen-id", got.ID)
	env.catalog.AssertExpectations(t)
}

func TestUpdateListingUsesPathID(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.catalog.On("Update", mock.Anything, mock.MatchedBy(func(l models.Listing) bool {
		return l.ID == "path-id" && l.Title == "Renamed"
	})).Return(nil)

	w := env.do(t, "PUT", "/v1/admin/listing/path-id", token, gin.H{"id": "body-id", "title": "Renamed"})
	assert.Equal(t, http.StatusOK, w.Code)
	env.catalog.AssertExpectations(t)
}

func TestDeleteListingConfirmation(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.catalog.On("Delete", mock.Anything, "l1", false).Return(services.ErrNotConfirmed)
	w := env.do(t, "DELETE", "/v1/admin/listing/l1", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.catalog.On("Delete", mock.Anything, "l1", true).Return(nil)
	w = env.do(t, "DELETE", "/v1/admin/listing/l1?confirm=true", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	env.catalog.AssertExpectations(t)
}

func TestGenerateDescription(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.generator.On("Generate", mock.Anything, gen.Details{Title: "Villa", Beds: 3, Baths: 2, Location: "KL"}).
		Return("A lovely villa.")

	w := env.do(t, "POST", "/v1/admin/listing/description", token, gin.H{
		"title": "Villa", "beds": 3, "baths": 2, "location": "KL",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"description":"A lovely villa."}`, w.Body.String())
}

func TestSetLeadStatus(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.lead.On("SetStatus", mock.Anything, "lead-1", models.LeadContacted).Return(nil)
	w := env.do(t, "PUT", "/v1/admin/lead/lead-1/status", token, gin.H{"status": "Contacted"})
	assert.Equal(t, http.StatusOK, w.Code)

	env.lead.On("SetStatus", mock.Anything, "lead-1", models.LeadStatus("Nope")).Return(services.ErrValidation)
	w = env.do(t, "PUT", "/v1/admin/lead/lead-1/status", token, gin.H{"status": "Nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadReportServesCSVAttachment(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.lead.On("Leads").Return([]models.Lead{
		{ID: "1", Name: "Jane", Email: "j@x.com", Status: models.LeadNew, Timestamp: "2026-08-01T00:00:00Z"},
	})

	w := env.do(t, "GET", "/v1/admin/lead/report.csv", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Leads_Report_")
	assert.Contains(t, w.Body.String(), "Client Name,Email,Phone")
	assert.Contains(t, w.Body.String(), "Jane")
}

func TestBannerEndpoints(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.config.On("AddBanner", mock.Anything).Return(models.AdItem{ID: "ad-1", Title: "New Promotional Ad"}, nil)
	w := env.do(t, "POST", "/v1/admin/banner", token, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	env.config.On("UpdateBannerField", mock.Anything, "ad-1", "title", "Promo").Return(nil)
	w = env.do(t, "PUT", "/v1/admin/banner/ad-1", token, gin.H{"field": "title", "value": "Promo"})
	assert.Equal(t, http.StatusOK, w.Code)

	env.config.On("RemoveBanner", mock.Anything, "ad-1").Return(nil)
	w = env.do(t, "DELETE", "/v1/admin/banner/ad-1", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	env.config.AssertExpectations(t)
}

func TestNotificationPermissionEndpoints(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.dispatcher.On("Permission").Return(notify.PermissionDefault)
	w := env.do(t, "GET", "/v1/admin/notifications", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"permission":"default"}`, w.Body.String())

	env.config.On("Get").Return(models.SiteConfig{NotificationEmail: "ops@x.com"})
	env.dispatcher.On("RequestPermission", mock.Anything, "ops@x.com").Return(notify.PermissionGranted)
	w = env.do(t, "POST", "/v1/admin/notifications", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"permission":"granted"}`, w.Body.String())
}

func TestGetUploadURL(t *testing.T) {
	env := setupAdminRouter(t)
	token := env.login(t)

	env.storage.On("GeneratePresignedPutURL", mock.Anything, "listing", "l1", "photo.jpg", "image/jpeg").
		Return("https://s3.example.com/put", "uploads/listing/l1/key_photo.jpg", nil)

	w := env.do(t, "POST", "/v1/admin/upload-url", token, gin.H{
		"kind": "listing", "refId": "l1", "filename": "photo.jpg", "contentType": "image/jpeg",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://s3.example.com/put")
	assert.Contains(t, w.Body.String(), "uploads/listing/l1/key_photo.jpg")
}
