package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playzone/playzone-api/models"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		action  string
		target  string
		allowed bool
	}{
		{"regular user cannot ban", models.RoleUser, actionBan, models.RoleUser, false},
		{"moderator cannot ban regular user", models.RoleModerator, actionBan, models.RoleUser, false},
		{"admin bans regular user", models.RoleAdmin, actionBan, models.RoleUser, true},
		{"admin cannot ban moderator", models.RoleAdmin, actionBan, models.RoleModerator, false},
		{"admin cannot ban admin", models.RoleAdmin, actionBan, models.RoleAdmin, false},

		{"moderator cannot unban regular user", models.RoleModerator, actionUnban, models.RoleUser, false},
		{"admin unbans regular user", models.RoleAdmin, actionUnban, models.RoleUser, true},
		{"admin unbans moderator", models.RoleAdmin, actionUnban, models.RoleModerator, true},
		{"admin cannot unban admin", models.RoleAdmin, actionUnban, models.RoleAdmin, false},

		{"moderator cannot delete regular user", models.RoleModerator, actionDeleteUser, models.RoleUser, false},
		{"admin deletes regular user", models.RoleAdmin, actionDeleteUser, models.RoleUser, true},
		{"admin deletes moderator", models.RoleAdmin, actionDeleteUser, models.RoleModerator, true},
		{"admin cannot delete admin", models.RoleAdmin, actionDeleteUser, models.RoleAdmin, false},

		{"moderator cannot change roles", models.RoleModerator, actionChangeRole, models.RoleUser, false},
		{"admin changes roles", models.RoleAdmin, actionChangeRole, models.RoleUser, true},

		{"moderator reviews reports", models.RoleModerator, actionReview, "", true},
		{"admin reviews reports", models.RoleAdmin, actionReview, "", true},
		{"regular user cannot review", models.RoleUser, actionReview, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, canPerform(tt.actor, tt.action, tt.target))
		})
	}
}
