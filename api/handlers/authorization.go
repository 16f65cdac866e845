package handlers

import (
	"github.com/playzone/playzone-api/models"
)

// Moderation actions gated by canPerform
const (
	actionBan        = "ban"
	actionUnban      = "unban"
	actionDeleteUser = "delete_user"
	actionChangeRole = "change_role"
	actionReview     = "review_report"
)

// canPerform decides whether an actor role may apply a moderation action
// to a target role. Moderators only review reports; account-level actions
// (ban, unban, delete, role change) are admin only, and admins themselves
// can never be banned or deleted.
func canPerform(actorRole, action, targetRole string) bool {
	if actorRole != models.RoleAdmin && actorRole != models.RoleModerator {
		return false
	}

	switch action {
	case actionReview:
		return true
	case actionBan:
		if actorRole != models.RoleAdmin {
			return false
		}
		return targetRole != models.RoleAdmin && targetRole != models.RoleModerator
	case actionUnban, actionDeleteUser:
		return actorRole == models.RoleAdmin && targetRole != models.RoleAdmin
	case actionChangeRole:
		return actorRole == models.RoleAdmin
	}
	return false
}
