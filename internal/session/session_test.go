package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/session"
)

func TestSession_RolePredicates(t *testing.T) {
	owner := session.Session{Account: "0xabc", Role: domain.RoleOwner}
	assert.True(t, owner.IsOwner())
	assert.False(t, owner.IsTenant())

	tenant := session.Session{Account: "0xabc", Role: domain.RoleTenant}
	assert.False(t, tenant.IsOwner())
	assert.True(t, tenant.IsTenant())

	var anonymous session.Session
	assert.False(t, anonymous.IsOwner())
	assert.False(t, anonymous.IsTenant())
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name string
		role domain.Role
		want []session.Section
	}{
		{
			name: "owner sees overview and history",
			role: domain.RoleOwner,
			want: []session.Section{session.SectionOverview, session.SectionHistory},
		},
		{
			name: "tenant sees lease and history",
			role: domain.RoleTenant,
			want: []session.Section{session.SectionMyLease, session.SectionHistory},
		},
		{
			name: "unset role sees everything",
			role: "",
			want: []session.Section{session.SectionOverview, session.SectionMyLease, session.SectionHistory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.Navigation(tt.role))
		})
	}
}
