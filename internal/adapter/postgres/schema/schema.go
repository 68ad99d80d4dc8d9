// Package schema declares how each domain entity maps onto its table:
// field whitelist, hidden credentials, validation rules and defaults.
package schema

import (
	"time"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// DefaultLanguage is the original language of stories created without one.
const DefaultLanguage = "en"

// Users is the users table. Credentials are hidden from projections.
var Users = record.MustTable(record.Table[domain.User]{
	Name: "users",
	ID:   func(u *domain.User) *int64 { return &u.ID },
	Columns: []record.Column[domain.User]{
		record.Field("username", func(u *domain.User) *string { return &u.Username }),
		record.Field("email", func(u *domain.User) *string { return &u.Email }),
		record.Field("password_hash", func(u *domain.User) *string { return &u.PasswordHash }),
		record.Field("role", func(u *domain.User) *domain.UserRole { return &u.Role }),
		record.Field("remember_token", func(u *domain.User) **string { return &u.RememberToken }),
		record.Field("two_factor_secret", func(u *domain.User) **string { return &u.TwoFactorSecret }),
		record.Field("two_factor_enabled", func(u *domain.User) *bool { return &u.TwoFactorEnabled }),
		record.Field("created_at", func(u *domain.User) *time.Time { return &u.CreatedAt }),
		record.Field("updated_at", func(u *domain.User) *time.Time { return &u.UpdatedAt }),
	},
	Hidden:     []string{"password_hash", "remember_token", "two_factor_secret"},
	Timestamps: true,
	Rules: []record.Rule[domain.User]{
		record.Required[domain.User]("username"),
		record.MinLen[domain.User]("username", 3),
		record.MaxLen[domain.User]("username", 50),
		record.Unique[domain.User]("username"),
		record.Required[domain.User]("email"),
		record.MaxLen[domain.User]("email", 255),
		record.Email[domain.User]("email"),
		record.Unique[domain.User]("email"),
		record.Required[domain.User]("password_hash"),
		record.OneOf[domain.User]("role", domain.UserRoles()...),
	},
	Defaults: func(u *domain.User) { u.Role = domain.RoleUser },
})

// Categories is the story_categories table.
var Categories = record.MustTable(record.Table[domain.StoryCategory]{
	Name: "story_categories",
	ID:   func(c *domain.StoryCategory) *int64 { return &c.ID },
	Columns: []record.Column[domain.StoryCategory]{
		record.Field("name", func(c *domain.StoryCategory) *string { return &c.Name }),
		record.Field("slug", func(c *domain.StoryCategory) *string { return &c.Slug }),
		record.Field("description", func(c *domain.StoryCategory) **string { return &c.Description }),
		record.Field("position", func(c *domain.StoryCategory) *int { return &c.Position }),
		record.Field("created_at", func(c *domain.StoryCategory) *time.Time { return &c.CreatedAt }),
		record.Field("updated_at", func(c *domain.StoryCategory) *time.Time { return &c.UpdatedAt }),
	},
	Timestamps: true,
	Rules: []record.Rule[domain.StoryCategory]{
		record.Required[domain.StoryCategory]("name"),
		record.MaxLen[domain.StoryCategory]("name", 50),
		record.Unique[domain.StoryCategory]("name"),
		record.Required[domain.StoryCategory]("slug"),
		record.MaxLen[domain.StoryCategory]("slug", 60),
		record.Unique[domain.StoryCategory]("slug"),
		record.MaxLen[domain.StoryCategory]("description", 1000),
	},
})

// Stories is the stories table.
var Stories = record.MustTable(record.Table[domain.Story]{
	Name: "stories",
	ID:   func(s *domain.Story) *int64 { return &s.ID },
	Columns: []record.Column[domain.Story]{
		record.Field("user_id", func(s *domain.Story) *int64 { return &s.UserID }),
		record.Field("category_id", func(s *domain.Story) *int64 { return &s.CategoryID }),
		record.Field("original_language", func(s *domain.Story) *string { return &s.OriginalLanguage }),
		record.Field("status", func(s *domain.Story) *domain.PublicationStatus { return &s.Status }),
		record.Field("published_at", func(s *domain.Story) **time.Time { return &s.PublishedAt }),
		record.Field("created_at", func(s *domain.Story) *time.Time { return &s.CreatedAt }),
		record.Field("updated_at", func(s *domain.Story) *time.Time { return &s.UpdatedAt }),
	},
	Timestamps: true,
	Rules: []record.Rule[domain.Story]{
		record.Required[domain.Story]("user_id"),
		record.Required[domain.Story]("category_id"),
		record.Required[domain.Story]("original_language"),
		record.MaxLen[domain.Story]("original_language", 10),
		record.OneOf[domain.Story]("status", domain.PublicationStatuses()...),
	},
	Defaults: func(s *domain.Story) {
		s.OriginalLanguage = DefaultLanguage
		s.Status = domain.StatusDraft
	},
})

// StoryContents is the story_contents table, one row per story and language.
var StoryContents = record.MustTable(record.Table[domain.StoryContent]{
	Name: "story_contents",
	ID:   func(c *domain.StoryContent) *int64 { return &c.ID },
	Columns: []record.Column[domain.StoryContent]{
		record.Field("story_id", func(c *domain.StoryContent) *int64 { return &c.StoryID }),
		record.Field("user_id", func(c *domain.StoryContent) *int64 { return &c.UserID }),
		record.Field("language", func(c *domain.StoryContent) *string { return &c.Language }),
		record.Field("title", func(c *domain.StoryContent) *string { return &c.Title }),
		record.Field("excerpt", func(c *domain.StoryContent) **string { return &c.Excerpt }),
		record.Field("body", func(c *domain.StoryContent) *string { return &c.Body }),
		record.Field("status", func(c *domain.StoryContent) *domain.PublicationStatus { return &c.Status }),
		record.Field("published_at", func(c *domain.StoryContent) **time.Time { return &c.PublishedAt }),
		record.Field("created_at", func(c *domain.StoryContent) *time.Time { return &c.CreatedAt }),
		record.Field("updated_at", func(c *domain.StoryContent) *time.Time { return &c.UpdatedAt }),
	},
	Timestamps: true,
	Rules: []record.Rule[domain.StoryContent]{
		record.Required[domain.StoryContent]("story_id"),
		record.Required[domain.StoryContent]("user_id"),
		record.Required[domain.StoryContent]("language"),
		record.MaxLen[domain.StoryContent]("language", 10),
		record.Required[domain.StoryContent]("title"),
		record.MaxLen[domain.StoryContent]("title", 255),
		record.MaxLen[domain.StoryContent]("excerpt", 500),
		record.Required[domain.StoryContent]("body"),
		record.OneOf[domain.StoryContent]("status", domain.PublicationStatuses()...),
	},
	Defaults: func(c *domain.StoryContent) { c.Status = domain.StatusDraft },
})

// StoryRevisions is the story_revisions table. Revisions are written once.
var StoryRevisions = record.MustTable(record.Table[domain.StoryRevision]{
	Name: "story_revisions",
	ID:   func(r *domain.StoryRevision) *int64 { return &r.ID },
	Columns: []record.Column[domain.StoryRevision]{
		record.Field("story_content_id", func(r *domain.StoryRevision) *int64 { return &r.StoryContentID }),
		record.Field("user_id", func(r *domain.StoryRevision) **int64 { return &r.UserID }),
		record.Field("revision", func(r *domain.StoryRevision) *int { return &r.Revision }),
		record.Field("title", func(r *domain.StoryRevision) *string { return &r.Title }),
		record.Field("excerpt", func(r *domain.StoryRevision) **string { return &r.Excerpt }),
		record.Field("body", func(r *domain.StoryRevision) *string { return &r.Body }),
		record.Field("note", func(r *domain.StoryRevision) **string { return &r.Note }),
		record.Field("created_at", func(r *domain.StoryRevision) *time.Time { return &r.CreatedAt }),
	},
	Timestamps: true,
	Rules: []record.Rule[domain.StoryRevision]{
		record.Required[domain.StoryRevision]("story_content_id"),
		record.Required[domain.StoryRevision]("revision"),
		record.Required[domain.StoryRevision]("title"),
		record.MaxLen[domain.StoryRevision]("note", 255),
	},
})

// Comments is the comments table. Deleting a comment trashes it.
var Comments = record.MustTable(record.Table[domain.Comment]{
	Name: "comments",
	ID:   func(c *domain.Comment) *int64 { return &c.ID },
	Columns: []record.Column[domain.Comment]{
		record.Field("story_id", func(c *domain.Comment) *int64 { return &c.StoryID }),
		record.Field("user_id", func(c *domain.Comment) *int64 { return &c.UserID }),
		record.Field("parent_id", func(c *domain.Comment) **int64 { return &c.ParentID }),
		record.Field("content", func(c *domain.Comment) *string { return &c.Content }),
		record.Field("status", func(c *domain.Comment) *domain.CommentStatus { return &c.Status }),
		record.Field("deleted_at", func(c *domain.Comment) **time.Time { return &c.DeletedAt }),
		record.Field("created_at", func(c *domain.Comment) *time.Time { return &c.CreatedAt }),
		record.Field("updated_at", func(c *domain.Comment) *time.Time { return &c.UpdatedAt }),
	},
	Timestamps: true,
	SoftDelete: true,
	Rules: []record.Rule[domain.Comment]{
		record.Required[domain.Comment]("story_id"),
		record.Required[domain.Comment]("user_id"),
		record.Required[domain.Comment]("content"),
		record.MaxLen[domain.Comment]("content", 5000),
		record.OneOf[domain.Comment]("status", domain.CommentStatuses()...),
	},
	Defaults: func(c *domain.Comment) { c.Status = domain.CommentPending },
})
