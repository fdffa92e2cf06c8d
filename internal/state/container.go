package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/store"
)

// Container owns the three collections (listings, leads, site config) and is
// the sole writer of the Store. Every mutation runs under the lock and ends
// with a mirror pass that re-serializes all three documents; the passes are
// sequential and deliberately non-transactional, so a crash between writes
// can leave the documents mutually inconsistent. Last-write-wins across
// concurrent contexts is inherited from the store and not strengthened here.
type Container struct {
	mu         sync.RWMutex
	st         store.Store
	dispatcher notify.IDispatcher

	listings []models.Listing
	leads    []models.Lead
	config   models.SiteConfig
}

// NewContainer hydrates each collection from the store, seeding built-in
// defaults when a document is absent or unreadable. A corrupted document is
// indistinguishable from first run except in the logs.
func NewContainer(ctx context.Context, st store.Store, dispatcher notify.IDispatcher) (*Container, error) {
	c := &Container{
		st:         st,
		dispatcher: dispatcher,
	}

	c.listings = models.DefaultListings()
	if found, err := st.Load(ctx, store.KeyListings, &c.listings); err != nil {
		log.Printf("Stored listings unreadable, seeding defaults: %v", err)
		c.listings = models.DefaultListings()
	} else if !found {
		c.listings = models.DefaultListings()
	}

	c.leads = []models.Lead{}
	if found, err := st.Load(ctx, store.KeyLeads, &c.leads); err != nil {
		log.Printf("Stored leads unreadable, starting empty: %v", err)
		c.leads = []models.Lead{}
	} else if !found {
		c.leads = []models.Lead{}
	}

	c.config = models.DefaultSiteConfig()
	if found, err := st.Load(ctx, store.KeyConfig, &c.config); err != nil {
		log.Printf("Stored configuration unreadable, seeding defaults: %v", err)
		c.config = models.DefaultSiteConfig()
	} else if !found {
		c.config = models.DefaultSiteConfig()
	}

	return c, nil
}

// --- Read access (copies; views never hold references into the container) ---

func (c *Container) Listings() []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Listing, len(c.listings))
	copy(out, c.listings)
	for i := range out {
		out[i].ExtraImages = append([]string(nil), out[i].ExtraImages...)
	}
	return out
}

func (c *Container) Leads() []models.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Lead, len(c.leads))
	copy(out, c.leads)
	return out
}

func (c *Container) Config() models.SiteConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.config
	out.Ads = append([]models.AdItem(nil), c.config.Ads...)
	return out
}

// --- Mutations ---

// AddLead prepends the record (newest-first display invariant) and persists
// the leads document immediately so other contexts see it without waiting
// for the mirror pass; the mirror pass then writes it again by design.
func (c *Container) AddLead(ctx context.Context, lead models.Lead) error {
	c.mu.Lock()
	c.leads = append([]models.Lead{lead}, c.leads...)
	c.mu.Unlock()

	if err := c.saveLeads(ctx); err != nil {
		return err
	}
	return c.persistAll(ctx)
}

// SetLeadStatus is the only lead mutation available to the operator; leads
// are never deleted.
func (c *Container) SetLeadStatus(ctx context.Context, id string, status models.LeadStatus) error {
	c.mu.Lock()
	found := false
	for i := range c.leads {
		if c.leads[i].ID == id {
			c.leads[i].Status = status
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("lead %s not found", id)
	}
	return c.persistAll(ctx)
}

func (c *Container) AddListing(ctx context.Context, listing models.Listing) error {
	c.mu.Lock()
	c.listings = append(c.listings, listing)
	c.mu.Unlock()
	return c.persistAll(ctx)
}

// UpdateListing replaces the full record matched by ID. Applying the same
// record twice leaves the catalog identical.
func (c *Container) UpdateListing(ctx context.Context, listing models.Listing) error {
	c.mu.Lock()
	found := false
	for i := range c.listings {
		if c.listings[i].ID == listing.ID {
			c.listings[i] = listing
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("listing %s not found", listing.ID)
	}
	return c.persistAll(ctx)
}

func (c *Container) DeleteListing(ctx context.Context, id string) error {
	c.mu.Lock()
	kept := c.listings[:0]
	found := false
	for _, l := range c.listings {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	c.listings = kept
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("listing %s not found", id)
	}
	return c.persistAll(ctx)
}

// SetConfig replaces the singleton wholesale.
func (c *Container) SetConfig(ctx context.Context, cfg models.SiteConfig) error {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	return c.persistAll(ctx)
}

// --- Persistence ---

func (c *Container) saveLeads(ctx context.Context) error {
	c.mu.RLock()
	leads := make([]models.Lead, len(c.leads))
	copy(leads, c.leads)
	c.mu.RUnlock()
	if err := c.st.Save(ctx, store.KeyLeads, leads); err != nil {
		return fmt.Errorf("failed to persist leads: %w", err)
	}
	return nil
}

// persistAll mirrors all three documents to the store regardless of which
// one changed. No transaction spans the three writes.
func (c *Container) persistAll(ctx context.Context) error {
	c.mu.RLock()
	listings := make([]models.Listing, len(c.listings))
	copy(listings, c.listings)
	leads := make([]models.Lead, len(c.leads))
	copy(leads, c.leads)
	cfg := c.config
	c.mu.RUnlock()

	var firstErr error
	if err := c.st.Save(ctx, store.KeyListings, listings); err != nil {
		log.Printf("Failed to persist listings: %v", err)
		firstErr = err
	}
	if err := c.st.Save(ctx, store.KeyLeads, leads); err != nil {
		log.Printf("Failed to persist leads: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := c.st.Save(ctx, store.KeyConfig, cfg); err != nil {
		log.Printf("Failed to persist configuration: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// --- Cross-context change handling ---

// Run consumes the store's external-change stream until ctx is cancelled.
// Same-context writes never appear here; that suppression lives in the
// store backends.
func (c *Container) Run(ctx context.Context) error {
	events, err := c.st.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch store: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.applyExternal(ctx, ev)
		}
	}
}

func (c *Container) applyExternal(ctx context.Context, ev store.Event) {
	switch ev.Key {
	case store.KeyLeads:
		var incoming []models.Lead
		if err := json.Unmarshal(ev.Data, &incoming); err != nil {
			log.Printf("Ignoring malformed external leads document: %v", err)
			return
		}
		c.MergeExternalLeads(ctx, incoming)
	case store.KeyListings:
		var incoming []models.Listing
		if err := json.Unmarshal(ev.Data, &incoming); err != nil {
			log.Printf("Ignoring malformed external listings document: %v", err)
			return
		}
		c.mu.Lock()
		c.listings = incoming
		c.mu.Unlock()
	case store.KeyConfig:
		var incoming models.SiteConfig
		if err := json.Unmarshal(ev.Data, &incoming); err != nil {
			log.Printf("Ignoring malformed external configuration document: %v", err)
			return
		}
		c.mu.Lock()
		c.config = incoming
		c.mu.Unlock()
	}
}

// MergeExternalLeads folds a leads document written by another context into
// this one. Records whose IDs are unknown locally are treated as newly
// arrived and announced through the dispatcher. The collections are merged
// as an ID union ordered newest-first rather than compared by size, so an
// unrelated size change (a future deletion feature, say) cannot fake a new
// arrival.
func (c *Container) MergeExternalLeads(ctx context.Context, incoming []models.Lead) {
	c.mu.Lock()
	known := make(map[string]bool, len(c.leads))
	for _, l := range c.leads {
		known[l.ID] = true
	}

	var arrived []models.Lead
	for _, l := range incoming {
		if !known[l.ID] {
			arrived = append(arrived, l)
		}
	}

	merged := make([]models.Lead, 0, len(incoming)+len(c.leads))
	merged = append(merged, incoming...)
	seen := make(map[string]bool, len(incoming))
	for _, l := range incoming {
		seen[l.ID] = true
	}
	localOnly := false
	for _, l := range c.leads {
		if !seen[l.ID] {
			merged = append(merged, l)
			localOnly = true
		}
	}
	// RFC 3339 UTC timestamps order lexicographically.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	c.leads = merged
	notificationEmail := c.config.NotificationEmail
	c.mu.Unlock()

	for _, l := range arrived {
		c.dispatcher.Notify(ctx, l, notificationEmail)
	}

	// Write back only when we held records the other context lacked, so two
	// contexts converge instead of ping-ponging identical documents.
	if localOnly {
		if err := c.saveLeads(ctx); err != nil {
			log.Printf("Failed to persist merged leads: %v", err)
		}
	}
}
