package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polascin/renaltales-backend/internal/domain"
)

func TestUsers_HiddenCredentials(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"password_hash", "remember_token", "two_factor_secret"} {
		assert.True(t, Users.IsHidden(f), f)
	}
	assert.False(t, Users.IsHidden("email"))
}

func TestTables_Whitelists(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"story_id", "user_id", "parent_id", "content", "status", "deleted_at", "created_at", "updated_at",
	}, Comments.Fields())
	assert.True(t, Comments.SoftDelete)
	assert.False(t, Stories.SoftDelete)
	assert.False(t, Stories.Has("password_hash"))
	assert.True(t, StoryContents.Has("language"))
	assert.False(t, StoryRevisions.Has("updated_at"))
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var u domain.User
	Users.Defaults(&u)
	assert.Equal(t, domain.RoleUser, u.Role)

	var s domain.Story
	Stories.Defaults(&s)
	assert.Equal(t, domain.StatusDraft, s.Status)
	assert.Equal(t, DefaultLanguage, s.OriginalLanguage)

	var c domain.Comment
	Comments.Defaults(&c)
	assert.Equal(t, domain.CommentPending, c.Status)
}
