package domain

import (
	"strings"
	"time"
)

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Tier enumerates subscription levels. The tier decides whether exported
// images carry the visible brand overlay.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// ParseTier normalizes free-form input into a supported tier. Unknown or empty
// values resolve to the free tier.
func ParseTier(v string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(v))) {
	case TierPro:
		return TierPro
	case TierBusiness:
		return TierBusiness
	default:
		return TierFree
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness:
		return true
	}
	return false
}

// User represents an authenticated account within the platform.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      UserRole
	Tier      Tier
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFree reports whether the user is on the free tier.
func (u User) IsFree() bool {
	return u.Tier == TierFree
}
