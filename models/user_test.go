package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleModerator))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole(""))
}

func TestUserBanActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	u := &User{IsBanned: false}
	assert.False(t, u.BanActive(now))

	u = &User{IsBanned: true}
	assert.True(t, u.BanActive(now), "indefinite ban stays active")

	u = &User{IsBanned: true, BanUntil: &future}
	assert.True(t, u.BanActive(now))

	u = &User{IsBanned: true, BanUntil: &past}
	assert.False(t, u.BanActive(now), "dated ban expires on its own")
}

func TestUserProfile(t *testing.T) {
	u := &User{
		ID:        primitive.NewObjectID(),
		Name:      "Sam",
		Alias:     "sam_plays",
		Email:     "sam@example.com",
		Password:  "hashed",
		Followers: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
		Following: []primitive.ObjectID{primitive.NewObjectID()},
	}

	p := u.Profile()
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "sam_plays", p.Alias)
	assert.Equal(t, 2, p.FollowersCount)
	assert.Equal(t, 1, p.FollowingCount)
}
