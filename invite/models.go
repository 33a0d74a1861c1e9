package invite

import "time"

// Code mirrors the invite_codes table. A code is usable while used_count is
// below max_uses and it has not expired.
type Code struct {
	Code      string
	MaxUses   int
	UsedCount int
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// WaitlistEntry mirrors the waitlist table.
type WaitlistEntry struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
