package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/state"
)

// IConfigService defines the interface for site configuration operations.
type IConfigService interface {
	Get() models.SiteConfig
	GetPublic() map[string]interface{}
	Set(ctx context.Context, cfg models.SiteConfig) error
	AddBanner(ctx context.Context) (models.AdItem, error)
	RemoveBanner(ctx context.Context, id string) error
	UpdateBannerField(ctx context.Context, id, field, value string) error
	WhatsAppLink() string
}

// configService implements IConfigService.
type configService struct {
	container *state.Container
}

// NewConfigService creates a new ConfigService.
func NewConfigService(container *state.Container) IConfigService {
	return &configService{container: container}
}

func (s *configService) Get() models.SiteConfig {
	return s.container.Config()
}

// GetPublic is the visitor-facing subset: everything except the
// notification address.
func (s *configService) GetPublic() map[string]interface{} {
	cfg := s.container.Config()
	return map[string]interface{}{
		"siteName":   cfg.SiteName,
		"agentNo":    cfg.AgentNo,
		"phone":      cfg.Phone,
		"footerText": cfg.FooterText,
		"aboutText":  cfg.AboutText,
		"adsEnabled": cfg.AdsEnabled,
		"ads":        cfg.Ads,
	}
}

// Set replaces the singleton wholesale; there are no partial-field
// transactions beyond copy-and-override on the caller's side.
func (s *configService) Set(ctx context.Context, cfg models.SiteConfig) error {
	return s.container.SetConfig(ctx, cfg)
}

// AddBanner appends a placeholder slide the operator then edits in place.
// Insertion order is display order.
func (s *configService) AddBanner(ctx context.Context) (models.AdItem, error) {
	banner := models.AdItem{
		ID:       uuid.NewString(),
		ImageURL: "https://images.unsplash.com/photo-1449844908441-8829872d2607?q=80&w=1200",
		Title:    "New Promotional Ad",
		Link:     "#",
	}
	cfg := s.container.Config()
	cfg.Ads = append(cfg.Ads, banner)
	if err := s.container.SetConfig(ctx, cfg); err != nil {
		return models.AdItem{}, fmt.Errorf("failed to add banner: %w", err)
	}
	return banner, nil
}

func (s *configService) RemoveBanner(ctx context.Context, id string) error {
	cfg := s.container.Config()
	kept := make([]models.AdItem, 0, len(cfg.Ads))
	found := false
	for _, ad := range cfg.Ads {
		if ad.ID == id {
			found = true
			continue
		}
		kept = append(kept, ad)
	}
	if !found {
		return fmt.Errorf("banner %s not found", id)
	}
	cfg.Ads = kept
	return s.container.SetConfig(ctx, cfg)
}

func (s *configService) UpdateBannerField(ctx context.Context, id, field, value string) error {
	cfg := s.container.Config()
	found := false
	for i := range cfg.Ads {
		if cfg.Ads[i].ID != id {
			continue
		}
		switch field {
		case "imageUrl":
			cfg.Ads[i].ImageURL = value
		case "title":
			cfg.Ads[i].Title = value
		case "link":
			cfg.Ads[i].Link = value
		default:
			return fmt.Errorf("field '%s' cannot be updated on a banner", field)
		}
		found = true
		break
	}
	if !found {
		return fmt.Errorf("banner %s not found", id)
	}
	return s.container.SetConfig(ctx, cfg)
}

// WhatsAppLink builds the outbound messaging deep link: configured phone
// stripped to digits plus the fixed greeting. Opened by the client in a new
// context; there is no delivery confirmation.
func (s *configService) WhatsAppLink() string {
	cfg := s.container.Config()
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cfg.Phone)
	message := fmt.Sprintf("Hello %s, I am interested in your property listings.", cfg.SiteName)
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(message))
}
