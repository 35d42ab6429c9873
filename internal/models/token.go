package models

import "time"

type TokenRole string

const (
	TokenRoleCandidate TokenRole = "candidate"
	TokenRoleReferent  TokenRole = "referent"
)

// ReviewToken records an issued access token. The bound email is always the
// candidate's primary email, regardless of which party the token was issued
// for. Tokens are never mutated after creation; past ExpiresAt they are
// treated as invalid even if still stored.
type ReviewToken struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Value     string    `bson:"value" json:"value"`
	Email     string    `bson:"email" json:"email"` // candidate primary email, normalized
	Role      TokenRole `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

func (t *ReviewToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
