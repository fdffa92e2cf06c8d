package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/muhdb91/therinproperty/internal/models"
)

// Permission mirrors the desktop-notification permission states. It is held
// in memory for the lifetime of the process only and is never persisted;
// the settings surface re-queries it on each load.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Deliverer is the capability that actually carries a notification out of
// the process. Absence of a deliverer models a platform without
// notification support: every operation becomes a no-op.
type Deliverer interface {
	Deliver(ctx context.Context, subject, body, toEmail string) error
}

// IDispatcher announces newly captured leads, best-effort.
type IDispatcher interface {
	Permission() Permission
	RequestPermission(ctx context.Context, notificationEmail string) Permission
	Notify(ctx context.Context, lead models.Lead, notificationEmail string)
}

type dispatcher struct {
	mu         sync.Mutex
	permission Permission
	deliverer  Deliverer
}

// NewDispatcher starts in the default state; the application never requests
// permission on its own, only the operator does.
func NewDispatcher(deliverer Deliverer) IDispatcher {
	return &dispatcher{
		permission: PermissionDefault,
		deliverer:  deliverer,
	}
}

func (d *dispatcher) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission
}

// RequestPermission resolves the operator's explicit request: granted when a
// delivery capability exists, denied otherwise. On grant a test
// notification confirms the channel, as the original surface does.
func (d *dispatcher) RequestPermission(ctx context.Context, notificationEmail string) Permission {
	d.mu.Lock()
	if d.deliverer == nil {
		d.permission = PermissionDenied
	} else {
		d.permission = PermissionGranted
	}
	result := d.permission
	d.mu.Unlock()

	if result == PermissionGranted {
		if err := d.deliverer.Deliver(ctx, "Alerts Enabled!",
			"You will now receive desktop notifications for new leads.", notificationEmail); err != nil {
			log.Printf("Notification test delivery failed: %v", err)
		}
	}
	return result
}

// Notify announces a new lead. Silent no-op unless permission has been
// explicitly granted and a deliverer exists; delivery failure is logged and
// never retried or surfaced.
func (d *dispatcher) Notify(ctx context.Context, lead models.Lead, notificationEmail string) {
	d.mu.Lock()
	granted := d.permission == PermissionGranted && d.deliverer != nil
	d.mu.Unlock()
	if !granted || notificationEmail == "" {
		return
	}

	body := fmt.Sprintf("%s is interested in %s", lead.Name, lead.PropertyName)
	if err := d.deliverer.Deliver(ctx, "New Lead Captured!", body, notificationEmail); err != nil {
		log.Printf("Lead notification delivery failed for lead %s: %v", lead.ID, err)
	}
}
