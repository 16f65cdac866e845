package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user account can hold.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform member document
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Alias       string             `bson:"alias" json:"alias"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role"`
	AvatarURL   string             `bson:"avatarUrl" json:"avatarUrl"`
	Description string             `bson:"description" json:"description"`
	Consoles    []string           `bson:"consoles" json:"consoles"`
	Genres      []string           `bson:"genres" json:"genres"`

	PostsCount  int `bson:"postsCount" json:"postsCount"`
	GuidesCount int `bson:"guidesCount" json:"guidesCount"`

	Following     []primitive.ObjectID `bson:"following" json:"following"`
	Followers     []primitive.ObjectID `bson:"followers" json:"followers"`
	FavoritePosts []primitive.ObjectID `bson:"favoritePosts" json:"favoritePosts"`

	IsBanned   bool                `bson:"isBanned" json:"isBanned"`
	BanReason  string              `bson:"banReason,omitempty" json:"banReason,omitempty"`
	BannedBy   *primitive.ObjectID `bson:"bannedBy,omitempty" json:"bannedBy,omitempty"`
	BannedAt   *time.Time          `bson:"bannedAt,omitempty" json:"bannedAt,omitempty"`
	BanUntil   *time.Time          `bson:"banUntil,omitempty" json:"banUntil,omitempty"`
	UnbannedBy *primitive.ObjectID `bson:"unbannedBy,omitempty" json:"unbannedBy,omitempty"`
	UnbannedAt *time.Time          `bson:"unbannedAt,omitempty" json:"unbannedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BanActive reports whether the user is currently banned. A ban with no
// banUntil is indefinite; a dated ban expires once the date has passed.
func (u *User) BanActive(now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	if u.BanUntil == nil {
		return true
	}
	return u.BanUntil.After(now)
}

// PublicProfile is the subset of User safe to return to other members.
type PublicProfile struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Alias          string             `json:"alias"`
	AvatarURL      string             `json:"avatarUrl"`
	Description    string             `json:"description"`
	Consoles       []string           `json:"consoles"`
	Genres         []string           `json:"genres"`
	PostsCount     int                `json:"postsCount"`
	GuidesCount    int                `json:"guidesCount"`
	FollowersCount int                `json:"followersCount"`
	FollowingCount int                `json:"followingCount"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// Profile converts a User to its public representation.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		Alias:          u.Alias,
		AvatarURL:      u.AvatarURL,
		Description:    u.Description,
		Consoles:       u.Consoles,
		Genres:         u.Genres,
		PostsCount:     u.PostsCount,
		GuidesCount:    u.GuidesCount,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
}
