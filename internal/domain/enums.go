package domain

// UserRole is the authorization role of a user.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// PublicationStatus is the editorial state shared by stories and their
// per-language contents.
type PublicationStatus string

const (
	StatusDraft         PublicationStatus = "draft"
	StatusPendingReview PublicationStatus = "pending_review"
	StatusPublished     PublicationStatus = "published"
	StatusRejected      PublicationStatus = "rejected"
)

func (s PublicationStatus) String() string { return string(s) }

func (s PublicationStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

func (s CommentStatus) String() string { return string(s) }

func (s CommentStatus) IsValid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected:
		return true
	}
	return false
}

// UserRoles returns every valid role.
func UserRoles() []string {
	return []string{string(RoleUser), string(RoleModerator), string(RoleAdmin)}
}

// PublicationStatuses returns every valid publication status.
func PublicationStatuses() []string {
	return []string{string(StatusDraft), string(StatusPendingReview), string(StatusPublished), string(StatusRejected)}
}

// CommentStatuses returns every valid comment status.
func CommentStatuses() []string {
	return []string{string(CommentPending), string(CommentApproved), string(CommentRejected)}
}
