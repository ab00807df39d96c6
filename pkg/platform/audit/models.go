package audit

import (
	"time"

	id "verimint/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so that
// stores and sinks can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers events with membership or legal significance,
	// e.g. a credential being issued or a verification being confirmed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers overrides and failures worth alerting on,
	// e.g. dev-mode bypasses or declined signatures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as sessions starting.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from UserID.
	ActorID string
	// Device labels the client that triggered the action, when known.
	Device string
}

type AuditEvent string

const (
	// Verification events
	EventVerificationStarted   AuditEvent = "verification_started"
	EventVerificationConfirmed AuditEvent = "verification_confirmed"
	EventVerificationTimedOut  AuditEvent = "verification_timed_out"
	EventVerificationFailed    AuditEvent = "verification_failed"
	EventVerificationAbandoned AuditEvent = "verification_abandoned"
	EventKYCBypassed           AuditEvent = "kyc_bypassed"

	// Credential events
	EventCredentialMinted       AuditEvent = "credential_minted"
	EventCredentialMintFailed   AuditEvent = "credential_mint_failed"
	EventCredentialMintPending  AuditEvent = "credential_mint_pending"
	EventCredentialMintSkipped  AuditEvent = "credential_mint_skipped"
	EventCredentialPendingReset AuditEvent = "credential_pending_reset"

	// Wallet events
	EventWalletConnected    AuditEvent = "wallet_connected"
	EventWalletDisconnected AuditEvent = "wallet_disconnected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationConfirmed: CategoryCompliance,
	EventCredentialMinted:      CategoryCompliance,

	EventKYCBypassed:           CategorySecurity,
	EventCredentialMintSkipped: CategorySecurity,
	EventCredentialMintFailed:  CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
