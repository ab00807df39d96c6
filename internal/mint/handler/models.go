package handler

import "verimint/internal/mint/models"

type ResultResponse struct {
	TransactionID  string `json:"transaction_id"`
	AssetID        uint64 `json:"asset_id"`
	ConfirmedRound uint64 `json:"confirmed_round,omitempty"`
}

type CheckResponse struct {
	Outcome       models.CheckOutcome `json:"outcome"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Result        *ResultResponse     `json:"result,omitempty"`
	Message       string              `json:"message"`
}

type MembershipResponse struct {
	KYCVerified   bool `json:"kyc_verified"`
	HasCredential bool `json:"has_credential"`
}

func toResultResponse(result *models.Result) *ResultResponse {
	if result == nil {
		return nil
	}
	return &ResultResponse{
		TransactionID:  result.TransactionID,
		AssetID:        result.AssetID,
		ConfirmedRound: result.ConfirmedRound,
	}
}

func toCheckResponse(check *models.CheckResult) CheckResponse {
	resp := CheckResponse{
		Outcome:       check.Outcome,
		TransactionID: check.TransactionID,
		Result:        toResultResponse(check.Result),
	}
	switch check.Outcome {
	case models.CheckNone:
		resp.Message = "No mint is waiting for confirmation."
	case models.CheckPending:
		resp.Message = "The transaction is still waiting for confirmation. Check again shortly."
	case models.CheckConfirmed:
		resp.Message = "Your verification NFT has been issued."
	case models.CheckCleared:
		resp.Message = "The transaction expired without being confirmed. You can mint again."
	}
	return resp
}
