package models

import "time"

// Class groups routes that share a limit.
type Class string

const (
	// ClassWalletPrompt covers routes that put a prompt in front of the
	// wallet owner (connect, mint).
	ClassWalletPrompt Class = "wallet_prompt"
	// ClassVerificationStart covers starting a verification session.
	ClassVerificationStart Class = "verification_start"
)

// Policy is a sliding-window limit.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until a slot frees up. Zero when allowed.
	RetryAfter int
}

type RateLimitExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}
