package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muhdb91/therinproperty/internal/api/handlers"
	"github.com/muhdb91/therinproperty/internal/captcha"
	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/services"
)

func setupPublicRouter(catalog *MockCatalogService, config *MockConfigService, lead *MockLeadService, verifier *MockVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewPublicHandler(catalog, config, lead, verifier)
	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/ping", h.Ping)
	v1.GET("/config", h.GetPublicConfig)
	v1.GET("/whatsapp", h.WhatsAppLink)
	v1.GET("/listing", h.ListListings)
	v1.GET("/listing/:id", h.GetListing)
	v1.GET("/captcha", h.GetCaptcha)
	v1.POST("/lead", h.SubmitLead)
	return r
}

func TestPing(t *testing.T) {
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestListListingsPassesQueryAndSort(t *testing.T) {
	catalog := new(MockCatalogService)
	catalog.On("Search", "villa", services.SortPriceAsc).Return([]models.Listing{{ID: "1", Title: "Villa"}})
	r := setupPublicRouter(catalog, new(MockConfigService), new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listing?q=villa&sort=low-high", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "1", body.Data[0].ID)
	catalog.AssertExpectations(t)
}

func TestListListingsDefaultsSortToNone(t *testing.T) {
	catalog := new(MockCatalogService)
	catalog.On("Search", "", services.SortNone).Return([]models.Listing{})
	r := setupPublicRouter(catalog, new(MockConfigService), new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	catalog.AssertExpectations(t)
}

func TestGetListingNotFound(t *testing.T) {
	catalog := new(MockCatalogService)
	catalog.On("FindByID", "nope").Return(models.Listing{}, assert.AnError)
	r := setupPublicRouter(catalog, new(MockConfigService), new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/listing/nope", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPublicConfig(t *testing.T) {
	config := new(MockConfigService)
	config.On("GetPublic").Return(map[string]interface{}{"siteName": "Therin Property"})
	r := setupPublicRouter(new(MockCatalogService), config, new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/config", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"siteName":"Therin Property"}`, w.Body.String())
}

func TestGetCaptcha(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Issue").Return(captcha.Challenge{A: 3, B: 4, Token: "tok"}, nil)
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), new(MockLeadService), verifier)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/captcha", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":3,"b":4,"token":"tok"}`, w.Body.String())
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitLeadCreated(t *testing.T) {
	lead := new(MockLeadService)
	lead.On("Submit", mock.Anything, mock.MatchedBy(func(req services.SubmitLeadRequest) bool {
		return req.Name == "Jane" && req.CaptchaAnswer == 7
	})).Return(models.Lead{ID: "new-id", Name: "Jane", Status: models.LeadNew}, nil)
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), lead, new(MockVerifier))

	w := postJSON(r, "/v1/lead", gin.H{
		"name": "Jane", "phone": "0123", "email": "j@x.com",
		"countryState": "Selangor", "captchaToken": "tok", "captchaAnswer": 7,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var got models.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "new-id", got.ID)
	lead.AssertExpectations(t)
}

func TestSubmitLeadCaptchaMismatch(t *testing.T) {
	lead := new(MockLeadService)
	lead.On("Submit", mock.Anything, mock.Anything).Return(models.Lead{}, captcha.ErrMismatch)
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), lead, new(MockVerifier))

	w := postJSON(r, "/v1/lead", gin.H{"name": "Jane"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitLeadValidationFailure(t *testing.T) {
	lead := new(MockLeadService)
	lead.On("Submit", mock.Anything, mock.Anything).Return(models.Lead{}, services.ErrValidation)
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), lead, new(MockVerifier))

	w := postJSON(r, "/v1/lead", gin.H{"name": "Jane"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitLeadBadBody(t *testing.T) {
	r := setupPublicRouter(new(MockCatalogService), new(MockConfigService), new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/lead", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWhatsAppLink(t *testing.T) {
	config := new(MockConfigService)
	config.On("WhatsAppLink").Return("https://wa.me/60123456789?text=Hello")
	r := setupPublicRouter(new(MockCatalogService), config, new(MockLeadService), new(MockVerifier))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/whatsapp", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://wa.me/60123456789?text=Hello"}`, w.Body.String())
}
