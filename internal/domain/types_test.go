package domain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/openlease/lease-ledger/internal/domain"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Role
	}{
		{"owner", domain.RoleOwner},
		{"OWNER", domain.RoleOwner},
		{"tenant", domain.RoleTenant},
		{"Tenant", domain.RoleTenant},
		{"", domain.RoleUnset},
		{"landlord", domain.RoleUnset},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseRole(tt.in))
		})
	}
}

func TestLocation_HasTenant(t *testing.T) {
	loc := domain.Location{}
	assert.False(t, loc.HasTenant())

	loc.Tenant = domain.ETHEREUM_ZERO_ADDRESS
	assert.False(t, loc.HasTenant())

	loc.Tenant = "0x1111111111111111111111111111111111111111"
	assert.True(t, loc.HasTenant())
}

func TestLocation_LeasedBy(t *testing.T) {
	loc := domain.Location{Tenant: "0xAbCd000000000000000000000000000000000001"}

	// Address comparison ignores checksum casing
	assert.True(t, loc.LeasedBy("0xabcd000000000000000000000000000000000001"))
	assert.False(t, loc.LeasedBy("0x9999000000000000000000000000000000000000"))
	assert.False(t, loc.LeasedBy(""))
}

func TestLocation_Payable(t *testing.T) {
	tests := []struct {
		name string
		loc  domain.Location
		want bool
	}{
		{"fully signed and active", domain.Location{Active: true, OwnerSigned: true, TenantSigned: true}, true},
		{"tenant unsigned", domain.Location{Active: true, OwnerSigned: true}, false},
		{"owner unsigned", domain.Location{Active: true, TenantSigned: true}, false},
		{"terminated", domain.Location{OwnerSigned: true, TenantSigned: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Payable())
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	lower := "0xabcd000000000000000000000000000000000001"
	assert.Equal(t, common.HexToAddress(lower).String(), domain.NormalizeAddress(lower))

	// Normalization is idempotent
	assert.Equal(t, domain.NormalizeAddress(lower), domain.NormalizeAddress(domain.NormalizeAddress(lower)))

	// Identities without the hex prefix pass through untouched
	assert.Equal(t, "not-an-address", domain.NormalizeAddress("not-an-address"))
}
