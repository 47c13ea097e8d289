package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	auth "github.com/taskmesh/go-auth"
)

func TestRoleOrdering(t *testing.T) {
	t.Run("RoleIsAtLeast", func(t *testing.T) {
		cases := []struct {
			name     string
			role     auth.UserRole
			min      auth.UserRole
			expected bool
		}{
			{"administrator at least developer", auth.RoleAdministrator, auth.RoleDeveloper, true},
			{"administrator at least leader", auth.RoleAdministrator, auth.RoleLeader, true},
			{"administrator at least administrator", auth.RoleAdministrator, auth.RoleAdministrator, true},
			{"leader at least developer", auth.RoleLeader, auth.RoleDeveloper, true},
			{"leader not at least administrator", auth.RoleLeader, auth.RoleAdministrator, false},
			{"developer at least developer", auth.RoleDeveloper, auth.RoleDeveloper, true},
			{"developer not at least leader", auth.RoleDeveloper, auth.RoleLeader, false},
			{"unknown role never qualifies", "superuser", auth.RoleDeveloper, false},
			{"unknown minimum never satisfied", auth.RoleAdministrator, "root", false},
			{"empty role never qualifies", "", auth.RoleDeveloper, false},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expected, auth.RoleIsAtLeast(tc.role, tc.min))
			})
		}
	})

	t.Run("IsValidRole", func(t *testing.T) {
		assert.True(t, auth.IsValidRole(auth.RoleDeveloper))
		assert.True(t, auth.IsValidRole(auth.RoleLeader))
		assert.True(t, auth.IsValidRole(auth.RoleAdministrator))
		assert.False(t, auth.IsValidRole("admin"))
		assert.False(t, auth.IsValidRole(""))
	})

	t.Run("ParseRole", func(t *testing.T) {
		role, ok := auth.ParseRole("leader")
		assert.True(t, ok)
		assert.Equal(t, auth.RoleLeader, role)

		_, ok = auth.ParseRole("overlord")
		assert.False(t, ok)
	})

	t.Run("GetAllRoles", func(t *testing.T) {
		roles := auth.GetAllRoles()
		assert.ElementsMatch(t, []auth.UserRole{
			auth.RoleDeveloper,
			auth.RoleLeader,
			auth.RoleAdministrator,
		}, roles)
	})
}
