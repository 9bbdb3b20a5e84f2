// Package session carries the caller's identity and selected role through an
// operation. The session is an explicit value on each request, never ambient
// process state.
package session

import (
	"github.com/openlease/lease-ledger/internal/domain"
)

// Section identifies one area of the presentation surface
type Section string

const (
	SectionOverview Section = "overview"
	SectionMyLease  Section = "my_lease"
	SectionHistory  Section = "history"
)

// Session is the caller's identity and role for the duration of a request
type Session struct {
	// Account is the caller's ledger identity (may be empty for read-only access)
	Account string
	// Role is the caller's selected role; operations gate on it explicitly
	Role domain.Role
}

// IsOwner reports whether the session acts with owner privileges
func (s Session) IsOwner() bool {
	return s.Role == domain.RoleOwner
}

// IsTenant reports whether the session acts with tenant privileges
func (s Session) IsTenant() bool {
	return s.Role == domain.RoleTenant
}

// Navigation returns the sections visible to a role. Owners see the location
// overview but not the tenant lease view, tenants the reverse, and an unset
// role sees everything read-only.
func Navigation(role domain.Role) []Section {
	switch role {
	case domain.RoleOwner:
		return []Section{SectionOverview, SectionHistory}
	case domain.RoleTenant:
		return []Section{SectionMyLease, SectionHistory}
	default:
		return []Section{SectionOverview, SectionMyLease, SectionHistory}
	}
}
