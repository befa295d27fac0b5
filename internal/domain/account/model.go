package account

import "time"

// APIKey binds a hashed bearer token to a user.
type APIKey struct {
	ID                  string     `json:"id"`
	Hash                string     `json:"-"`
	UserID              string     `json:"user_id"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	Description         string     `json:"description,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	LastUsed            *time.Time `json:"last_used,omitempty"`
}

// Issued is a freshly created key. Token is only available at creation.
type Issued struct {
	Token string `json:"token"`
	Key   APIKey `json:"key"`
}
