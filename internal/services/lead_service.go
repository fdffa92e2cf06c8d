package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muhdb91/therinproperty/internal/captcha"
	"github.com/muhdb91/therinproperty/internal/models"
	"github.com/muhdb91/therinproperty/internal/notify"
	"github.com/muhdb91/therinproperty/internal/state"
)

// ErrValidation marks a rejected submission: required fields empty. The form
// shows it inline; no record is created.
var ErrValidation = errors.New("validation failed")

// SubmitLeadRequest carries the client-supplied part of a lead. Identifier,
// timestamp and status are always assigned here, never taken from the
// client.
type SubmitLeadRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CountryState  string `json:"countryState"`
	AgentReferral string `json:"agentReferral"`
	PropertyID    string `json:"propertyId"`
	PropertyName  string `json:"propertyName"`
	CaptchaToken  string `json:"captchaToken"`
	CaptchaAnswer int    `json:"captchaAnswer"`
}

// ILeadService defines the interface for the lead intake pipeline and the
// operator-side lead operations.
type ILeadService interface {
	Submit(ctx context.Context, req SubmitLeadRequest) (models.Lead, error)
	Leads() []models.Lead
	SetStatus(ctx context.Context, id string, status models.LeadStatus) error
}

// leadService implements ILeadService.
type leadService struct {
	container  *state.Container
	verifier   captcha.IVerifier
	dispatcher notify.IDispatcher
}

// NewLeadService creates a new LeadService.
func NewLeadService(container *state.Container, verifier captcha.IVerifier, dispatcher notify.IDispatcher) ILeadService {
	return &leadService{
		container:  container,
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

// Submit runs the intake pipeline: challenge check, required-field check,
// server-side identity fields, newest-first prepend with immediate
// persistence, then best-effort notification.
func (s *leadService) Submit(ctx context.Context, req SubmitLeadRequest) (models.Lead, error) {
	if err := s.verifier.Verify(req.CaptchaToken, req.CaptchaAnswer); err != nil {
		return models.Lead{}, err
	}

	if missing := firstMissing(map[string]string{
		"name":         req.Name,
		"phone":        req.Phone,
		"email":        req.Email,
		"countryState": req.CountryState,
	}); missing != "" {
		return models.Lead{}, fmt.Errorf("%w: %s is required", ErrValidation, missing)
	}

	propertyID := req.PropertyID
	propertyName := req.PropertyName
	if propertyID == "" {
		propertyID = models.GeneralInquiryID
		propertyName = models.GeneralInquiryName
	}
	referral := strings.TrimSpace(req.AgentReferral)
	if referral == "" {
		referral = models.DefaultReferral
	}

	lead := models.Lead{
		ID:            uuid.NewString(),
		PropertyID:    propertyID,
		PropertyName:  propertyName,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		AgentReferral: referral,
		CountryState:  req.CountryState,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Status:        models.LeadNew,
	}

	if err := s.container.AddLead(ctx, lead); err != nil {
		return models.Lead{}, fmt.Errorf("failed to record lead: %w", err)
	}

	s.dispatcher.Notify(ctx, lead, s.container.Config().NotificationEmail)
	return lead, nil
}

func (s *leadService) Leads() []models.Lead {
	return s.container.Leads()
}

// SetStatus is the only mutation the operator has over a lead.
func (s *leadService) SetStatus(ctx context.Context, id string, status models.LeadStatus) error {
	if !models.ValidLeadStatus(status) {
		return fmt.Errorf("%w: invalid lead status %q", ErrValidation, status)
	}
	return s.container.SetLeadStatus(ctx, id, status)
}

// firstMissing returns the name of a required field that is empty after
// trimming, checked in a stable order so the error message is
// deterministic.
func firstMissing(fields map[string]string) string {
	for _, name := range []string{"name", "phone", "email", "countryState"} {
		if strings.TrimSpace(fields[name]) == "" {
			return name
		}
	}
	return ""
}
