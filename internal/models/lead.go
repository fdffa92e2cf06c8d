package models

// LeadStatus is the operator-managed follow-up state of a lead.
type LeadStatus string

const (
	LeadNew       LeadStatus = "New"
	LeadContacted LeadStatus = "Contacted"
	LeadClosed    LeadStatus = "Closed"
	LeadLost      LeadStatus = "Lost"
)

// Sentinel property pair used when an inquiry is not tied to a listing.
const (
	GeneralInquiryID   = "GENERAL"
	GeneralInquiryName = "General Inquiry"
)

// DefaultReferral marks a lead submitted without a referral code.
const DefaultReferral = "Website Form"

// Lead represents a captured visitor inquiry. Leads are created by the
// intake pipeline only; the submitter never controls ID, Timestamp or
// Status, and leads are never deleted.
type Lead struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"propertyId"`
	PropertyName  string     `json:"propertyName"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	AgentReferral string     `json:"agentReferral"`
	CountryState  string     `json:"countryState"`
	Timestamp     string     `json:"timestamp"` // RFC 3339 UTC
	Status        LeadStatus `json:"status"`
}

// ValidLeadStatus reports whether s is one of the four lead states.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadContacted, LeadClosed, LeadLost:
		return true
	}
	return false
}
