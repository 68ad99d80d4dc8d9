package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/polascin/renaltales-backend/internal/domain"
)

// SeedPassword is the plain-text password of every seeded user.
const SeedPassword = "Seeded123!"

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

func seedNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedUser creates a user with the default role and SeedPassword.
// Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("testhelper: SeedUser hash: %v", err)
	}

	suffix := uniqueSuffix()
	now := seedNow()
	user := domain.User{
		Username:     "user_" + suffix,
		Email:        "user-" + suffix + "@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = pool.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Username, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert: %v", err)
	}

	return user
}

// SeedCategory creates a story category with a unique name and slug.
func SeedCategory(t *testing.T, pool *pgxpool.Pool) domain.StoryCategory {
	t.Helper()

	suffix := uniqueSuffix()
	now := seedNow()
	category := domain.StoryCategory{
		Name:      "Category " + suffix,
		Slug:      "category-" + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO story_categories (name, slug, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		category.Name, category.Slug, category.Position, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedCategory insert: %v", err)
	}

	return category
}

// SeedStory creates a draft story written by userID in language.
func SeedStory(t *testing.T, pool *pgxpool.Pool, userID, categoryID int64, language string) domain.Story {
	t.Helper()

	now := seedNow()
	story := domain.Story{
		UserID:           userID,
		CategoryID:       categoryID,
		OriginalLanguage: language,
		Status:           domain.StatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO stories (user_id, category_id, original_language, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		story.UserID, story.CategoryID, story.OriginalLanguage, string(story.Status), story.CreatedAt, story.UpdatedAt,
	).Scan(&story.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedStory insert: %v", err)
	}

	return story
}

// SeedContent creates a draft content of storyID in language.
func SeedContent(t *testing.T, pool *pgxpool.Pool, storyID, userID int64, language string) domain.StoryContent {
	t.Helper()

	now := seedNow()
	content := domain.StoryContent{
		StoryID:   storyID,
		UserID:    userID,
		Language:  language,
		Title:     "Title " + uniqueSuffix(),
		Body:      "Body",
		Status:    domain.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO story_contents (story_id, user_id, language, title, body, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		content.StoryID, content.UserID, content.Language, content.Title, content.Body,
		string(content.Status), content.CreatedAt, content.UpdatedAt,
	).Scan(&content.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedContent insert: %v", err)
	}

	return content
}
