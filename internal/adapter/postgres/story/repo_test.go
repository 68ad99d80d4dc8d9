package story_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/story"
	"github.com/polascin/renaltales-backend/internal/domain"
)

var (
	now            = time.Date(2026, 6, 2, 8, 30, 0, 0, time.UTC)
	contentColumns = []string{
		"id", "story_id", "user_id", "language", "title", "excerpt", "body",
		"status", "published_at", "created_at", "updated_at",
	}
)

func newRepo(t *testing.T) (*story.Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return story.New(mock, record.Options{Clock: func() time.Time { return now }}), mock
}

func draftStory(repo *story.Repo) *story.Model {
	return repo.Wrap(&domain.Story{
		ID:               10,
		UserID:           1,
		CategoryID:       2,
		OriginalLanguage: "sk",
		Status:           domain.StatusDraft,
		CreatedAt:        now.Add(-24 * time.Hour),
		UpdatedAt:        now.Add(-24 * time.Hour),
	})
}

func TestRepo_CreateAppliesDefaults(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO stories (user_id,category_id,original_language,status,published_at,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id")).
		WithArgs(int64(1), int64(2), "en", domain.StatusDraft, pgxmock.AnyArg(), now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(10)))

	m := repo.New(map[string]any{"user_id": 1, "category_id": 2})
	require.NoError(t, repo.Save(context.Background(), m))
	assert.Equal(t, int64(10), m.ID())
	assert.Equal(t, domain.StatusDraft, m.Entity.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_CreateRequiresCategory(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)

	err := repo.Save(context.Background(), repo.New(map[string]any{"user_id": 1}))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category_id", verr.Field())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_PublishAndUnpublish(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)
	ctx := context.Background()
	m := draftStory(repo)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stories SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(domain.StatusPublished, pgxmock.AnyArg(), now, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Publish(ctx, m))
	assert.True(t, m.Entity.IsPublished())
	require.NotNil(t, m.Entity.PublishedAt)
	assert.Equal(t, now, *m.Entity.PublishedAt)

	// Publishing again changes nothing and touches nothing.
	require.NoError(t, repo.Publish(ctx, m))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stories SET status = $1, published_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(domain.StatusDraft, pgxmock.AnyArg(), now, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Unpublish(ctx, m))
	assert.False(t, m.Entity.IsPublished())
	assert.Nil(t, m.Entity.PublishedAt)
	assert.Equal(t, domain.StatusDraft, m.Entity.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ReviewWorkflow(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)
	ctx := context.Background()
	m := draftStory(repo)

	expectStatus := func(status domain.PublicationStatus) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE stories SET status = $1, updated_at = $2 WHERE id = $3")).
			WithArgs(status, now, int64(10)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()
	}

	expectStatus(domain.StatusPendingReview)
	require.NoError(t, repo.SubmitForReview(ctx, m))

	expectStatus(domain.StatusRejected)
	require.NoError(t, repo.Reject(ctx, m))

	expectStatus(domain.StatusDraft)
	require.NoError(t, repo.Redraft(ctx, m))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_InvalidTransitionTouchesNothing(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)
	m := draftStory(repo)

	err := repo.Reject(context.Background(), m)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.StatusDraft, m.Entity.Status)
	assert.False(t, m.IsDirty())

	err = repo.Unpublish(context.Background(), m)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_TranslationFallsBackToOriginal(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)
	ctx := context.Background()
	m := draftStory(repo)

	mock.ExpectQuery(regexp.QuoteMeta("FROM story_contents WHERE story_id = $1 ORDER BY id")).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(contentColumns).
			AddRow(int64(1), int64(10), int64(1), "sk", "Príbeh", (*string)(nil), "Text", domain.StatusDraft, (*time.Time)(nil), now, now).
			AddRow(int64(2), int64(10), int64(3), "en", "Story", (*string)(nil), "Text", domain.StatusDraft, (*time.Time)(nil), now, now))

	en, err := repo.Translation(ctx, m, "en")
	require.NoError(t, err)
	assert.Equal(t, "Story", en.Entity.Title)

	de, err := repo.Translation(ctx, m, "de")
	require.NoError(t, err)
	assert.Equal(t, "sk", de.Entity.Language)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Author(t *testing.T) {
	t.Parallel()
	repo, mock := newRepo(t)
	m := draftStory(repo)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "remember_token",
			"two_factor_secret", "two_factor_enabled", "created_at", "updated_at",
		}).AddRow(int64(1), "alice", "alice@example.com", "hash", domain.RoleUser,
			(*string)(nil), (*string)(nil), false, now, now))

	author, err := repo.Author.Resolve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "alice", author.Entity.Username)
	assert.NotContains(t, author.ToMap(false), "password_hash")
	require.NoError(t, mock.ExpectationsWereMet())
}
