package domain

import (
	"github.com/google/uuid"
)

// BuildIdempotencyKey scopes a client-supplied key to one account.
func BuildIdempotencyKey(accountID uuid.UUID, clientKey string) string {
	return accountID.String() + ":" + clientKey
}
