package handler

import (
	"time"

	"verimint/internal/verification/models"
	dErrors "verimint/pkg/domain-errors"
)

// SessionResponse is the JSON view of a verification session.
type SessionResponse struct {
	SessionID  string        `json:"session_id"`
	State      models.State  `json:"state"`
	StartedAt  time.Time     `json:"started_at"`
	DeadlineAt time.Time     `json:"deadline_at"`
	Released   bool          `json:"released"`
	Abandoned  bool          `json:"abandoned"`
	Error      string        `json:"error,omitempty"`
	Message    string        `json:"message,omitempty"`
	Mint       *MintResponse `json:"mint,omitempty"`
}

type MintResponse struct {
	TransactionID  string `json:"transaction_id"`
	AssetID        uint64 `json:"asset_id"`
	ConfirmedRound uint64 `json:"confirmed_round"`
}

func toResponse(snap models.Snapshot) SessionResponse {
	resp := SessionResponse{
		SessionID:  snap.ID.String(),
		State:      snap.State,
		StartedAt:  snap.StartedAt,
		DeadlineAt: snap.DeadlineAt,
		Released:   snap.Released,
		Abandoned:  snap.Abandoned,
	}
	switch snap.State {
	case models.StateVerifying:
		resp.Message = "Waiting for identity verification to complete."
	case models.StateVerified:
		resp.Message = "Identity verified. You can now mint your membership NFT."
	case models.StateMinted:
		resp.Message = "Membership NFT issued."
	case models.StateTimeout:
		resp.Error = string(dErrors.CodeVerificationTimeout)
		resp.Message = "Verification did not complete in time. Please try again."
	case models.StateError:
		resp.Error = string(dErrors.CodeInternal)
		resp.Message = "Verification failed. Please try again."
	}
	if snap.Mint != nil {
		resp.Mint = &MintResponse{
			TransactionID:  snap.Mint.TransactionID,
			AssetID:        snap.Mint.AssetID,
			ConfirmedRound: snap.Mint.ConfirmedRound,
		}
	}
	return resp
}
