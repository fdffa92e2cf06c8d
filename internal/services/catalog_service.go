package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/state"
)

// SortMode selects the ordering of a derived catalog view. Values match the
// public API's sort parameter.
type SortMode string

const (
	SortNone      SortMode = "none"
	SortPriceAsc  SortMode = "low-high"
	SortPriceDesc SortMode = "high-low"
)

// ErrNotConfirmed is returned when a delete arrives without the explicit
// confirmation step.
var ErrNotConfirmed = errors.New("deletion not confirmed")

// ICatalogService defines the interface for listing operations.
type ICatalogService interface {
	Listings() []models.Listing
	FindByID(id string) (models.Listing, error)
	Search(query string, sortMode SortMode) []models.Listing
	Create(ctx context.Context, listing models.Listing) (models.Listing, error)
	Update(ctx context.Context, listing models.Listing) error
	Delete(ctx context.Context, id string, confirmed bool) error
}

// catalogService implements ICatalogService over the state container.
type catalogService struct {
	container *state.Container
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(container *state.Container) ICatalogService {
	return &catalogService{container: container}
}

func (s *catalogService) Listings() []models.Listing {
	return s.container.Listings()
}

func (s *catalogService) FindByID(id string) (models.Listing, error) {
	for _, l := range s.container.Listings() {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, fmt.Errorf("listing %s not found", id)
}

func (s *catalogService) Search(query string, sortMode SortMode) []models.Listing {
	return Derive(s.container.Listings(), query, sortMode)
}

// Create assigns a fresh identifier; end users never reach this path.
func (s *catalogService) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	listing.ID = uuid.NewString()
	if listing.Status == "" {
		listing.Status = models.ListingAvailable
	}
	if err := s.container.AddListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// Update replaces the full record by identifier match; idempotent for an
// identical record.
func (s *catalogService) Update(ctx context.Context, listing models.Listing) error {
	return s.container.UpdateListing(ctx, listing)
}

// Delete removes exactly one listing; irreversible, so it demands the
// explicit confirmation the admin surface collects interactively.
func (s *catalogService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return s.container.DeleteListing(ctx, id)
}

// Derive filters and orders a catalog view. Pure function of its inputs:
// case-insensitive substring match against the title only, stable sort on a
// copy, source collection untouched.
func Derive(listings []models.Listing, query string, sortMode SortMode) []models.Listing {
	needle := strings.ToLower(query)
	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Title), needle) {
			result = append(result, l)
		}
	}
	switch sortMode {
	case SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	}
	return result
}
