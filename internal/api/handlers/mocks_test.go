package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/muhdb91/therinproperty/internal/captcha"
	"github.com/muhdb91/therinproperty/internal/gen"
	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/services"
)

// --- Mocks ---

// MockCatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Listings() []models.Listing {
	args := m.Called()
	return args.Get(0).([]models.Listing)
}
func (m *MockCatalogService) FindByID(id string) (models.Listing, error) {
	args := m.Called(id)
	return args.Get(0).(models.Listing), args.Error(1)
}
func (m *MockCatalogService) Search(query string, sortMode services.SortMode) []models.Listing {
	args := m.Called(query, sortMode)
	return args.Get(0).([]models.Listing)
}
func (m *MockCatalogService) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	args := m.Called(ctx, listing)
	return args.Get(0).(models.Listing), args.Error(1)
}
func (m *MockCatalogService) Update(ctx context.Context, listing models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockCatalogService) Delete(ctx context.Context, id string, confirmed bool) error {
	args := m.Called(ctx, id, confirmed)
	return args.Error(0)
}

// MockConfigService
type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) Get() models.SiteConfig {
	args := m.Called()
	return args.Get(0).(models.SiteConfig)
}
func (m *MockConfigService) GetPublic() map[string]interface{} {
	args := m.Called()
	return args.Get(0).(map[string]interface{})
}
func (m *MockConfigService) Set(ctx context.Context, cfg models.SiteConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}
func (m *MockConfigService) AddBanner(ctx context.Context) (models.AdItem, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.AdItem), args.Error(1)
}
func (m *MockConfigService) RemoveBanner(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockConfigService) UpdateBannerField(ctx context.Context, id, field, value string) error {
	args := m.Called(ctx, id, field, value)
	return args.Error(0)
}
func (m *MockConfigService) WhatsAppLink() string {
	args := m.Called()
	return args.String(0)
}

// MockLeadService
type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) Submit(ctx context.Context, req services.SubmitLeadRequest) (models.Lead, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Lead), args.Error(1)
}
func (m *MockLeadService) Leads() []models.Lead {
	args := m.Called()
	return args.Get(0).([]models.Lead)
}
func (m *MockLeadService) SetStatus(ctx context.Context, id string, status models.LeadStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Issue() (captcha.Challenge, error) {
	args := m.Called()
	return args.Get(0).(captcha.Challenge), args.Error(1)
}
func (m *MockVerifier) Verify(token string, answer int) error {
	args := m.Called(token, answer)
	return args.Error(0)
}

// MockDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Permission() notify.Permission {
	args := m.Called()
	return args.Get(0).(notify.Permission)
}
func (m *MockDispatcher) RequestPermission(ctx context.Context, notificationEmail string) notify.Permission {
	args := m.Called(ctx, notificationEmail)
	return args.Get(0).(notify.Permission)
}
func (m *MockDispatcher) Notify(ctx context.Context, lead models.Lead, notificationEmail string) {
	m.Called(ctx, lead, notificationEmail)
}

// MockGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, details gen.Details) string {
	args := m.Called(ctx, details)
	return args.String(0)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, kind, refID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, kind, refID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

// MockAsynqClient implements handlers.IAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
