package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Role represents the caller's role in the rental relationship.
// It is carried explicitly in the session context rather than read from
// ambient state.
type Role string

const (
	RoleUnset  Role = ""
	RoleOwner  Role = "owner"
	RoleTenant Role = "tenant"
)

// ParseRole parses a role string into a Role, defaulting to RoleUnset
func ParseRole(s string) Role {
	switch strings.ToLower(s) {
	case "owner":
		return RoleOwner
	case "tenant":
		return RoleTenant
	default:
		return RoleUnset
	}
}

// Location represents a leasable rental unit as recorded on the ledger.
// The id space is dense and append-only: ids run 0..count-1 and are never
// reused or reordered.
type Location struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	MonthlyRent  *big.Int `json:"monthly_rent"` // in wei
	Tenant       string   `json:"tenant"`       // zero address = unassigned
	OwnerSigned  bool     `json:"owner_signed"`
	TenantSigned bool     `json:"tenant_signed"`
	LastPaid     uint64   `json:"last_paid"` // unix seconds, 0 = never paid
	Active       bool     `json:"active"`
}

// HasTenant reports whether a tenant has been assigned to the location
func (l *Location) HasTenant() bool {
	return l.Tenant != "" && !strings.EqualFold(l.Tenant, ETHEREUM_ZERO_ADDRESS)
}

// LeasedBy reports whether the location is assigned to the given identity.
// Identity comparison is case-insensitive since Ethereum addresses are
// checksummed inconsistently across providers.
func (l *Location) LeasedBy(identity string) bool {
	return l.HasTenant() && identity != "" && strings.EqualFold(l.Tenant, identity)
}

// Payable reports whether the ledger would accept a rent payment for the
// location: both parties signed and the lease has not been terminated.
func (l *Location) Payable() bool {
	return l.Active && l.OwnerSigned && l.TenantSigned
}

// PaymentEvent represents a confirmed RentPaid event as emitted by the
// ledger, in emission order. No deduplication or reordering is performed
// beyond what the ledger itself guarantees.
type PaymentEvent struct {
	LocationID  uint64   `json:"location_id"`
	Payer       string   `json:"payer"`
	Amount      *big.Int `json:"amount"`    // in wei
	Timestamp   uint64   `json:"timestamp"` // unix seconds, 0 = unknown (derive from block)
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number"`
}

// NormalizeAddress normalizes an Ethereum address to its checksummed form
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") {
		return common.HexToAddress(address).String()
	}
	return address
}
