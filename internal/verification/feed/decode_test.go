package feed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
)

func TestDecode(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		payload string
		want    models.StatusChange
		ok      bool
		wantErr bool
	}{
		{
			name:    "profiles update with flag",
			payload: `{"table":"profiles","op":"UPDATE","new":{"id":"` + userID.String() + `","kyc_verified":true,"updated_at":"2024-01-01T00:00:00Z"}}`,
			want:    models.StatusChange{UserID: id.UserID(userID), KYCVerified: true},
			ok:      true,
		},
		{
			name:    "flag false still decodes",
			payload: `{"table":"profiles","op":"UPDATE","new":{"id":"` + userID.String() + `","kyc_verified":false}}`,
			want:    models.StatusChange{UserID: id.UserID(userID)},
			ok:      true,
		},
		{
			name:    "other table ignored",
			payload: `{"table":"orders","op":"UPDATE","new":{"id":"` + userID.String() + `"}}`,
		},
		{
			name:    "insert ignored",
			payload: `{"table":"profiles","op":"INSERT","new":{"id":"` + userID.String() + `","kyc_verified":true}}`,
		},
		{
			name:    "missing flag ignored",
			payload: `{"table":"profiles","op":"UPDATE","new":{"id":"` + userID.String() + `","has_verification_nft":true}}`,
		},
		{
			name:    "bad id",
			payload: `{"table":"profiles","op":"UPDATE","new":{"id":"nope","kyc_verified":true}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `{`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Decode([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodes(t *testing.T) {
	change := models.StatusChange{UserID: id.UserID(uuid.New()), KYCVerified: true}
	payload, err := Encode(change)
	require.NoError(t, err)

	got, ok, err := Decode(payload)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, change, got)
}
