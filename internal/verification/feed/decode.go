// Package feed implements the push channel of profile status changes.
// All drivers decode the same {table, op, new} payload and fan out through
// a Hub that filters per user.
package feed

import (
	"encoding/json"
	"fmt"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
)

const (
	profilesTable = "profiles"
	opUpdate      = "UPDATE"
)

// Decode parses a change notification. ok is false for payloads that are
// well-formed but not a profiles UPDATE carrying kyc_verified.
func Decode(payload []byte) (change models.StatusChange, ok bool, err error) {
	var event models.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.StatusChange{}, false, fmt.Errorf("decode change event: %w", err)
	}
	return FromEvent(event)
}

func FromEvent(event models.ChangeEvent) (models.StatusChange, bool, error) {
	if event.Table != profilesTable || event.Op != opUpdate || event.New == nil {
		return models.StatusChange{}, false, nil
	}
	rawID, _ := event.New["id"].(string)
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return models.StatusChange{}, false, fmt.Errorf("change event id: %w", err)
	}
	verified, present := event.New["kyc_verified"].(bool)
	if !present {
		return models.StatusChange{}, false, nil
	}
	return models.StatusChange{UserID: userID, KYCVerified: verified}, true, nil
}

// Encode renders change as the wire payload the decoders accept.
func Encode(change models.StatusChange) ([]byte, error) {
	return json.Marshal(models.ChangeEvent{
		Table: profilesTable,
		Op:    opUpdate,
		New: map[string]any{
			"id":           change.UserID.String(),
			"kyc_verified": change.KYCVerified,
		},
	})
}
