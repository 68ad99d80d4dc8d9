package domain

import "time"

// The editorial workflow shared by Story and StoryContent:
//
//	draft ──submit──▶ pending_review ──publish──▶ published ──unpublish──▶ draft
//	  │                     └────────reject────▶ rejected ──redraft──▶ draft
//	  └──────────────publish (direct)────────────▶ published

func submitForReview(entity string, status *PublicationStatus) error {
	if *status != StatusDraft {
		return invalidTransition(entity, string(*status), "submit for review")
	}
	*status = StatusPendingReview
	return nil
}

func publish(entity string, status *PublicationStatus, publishedAt **time.Time, now time.Time) error {
	switch *status {
	case StatusPublished:
		if *publishedAt == nil {
			t := now
			*publishedAt = &t
		}
		return nil
	case StatusDraft, StatusPendingReview:
		t := now
		*status = StatusPublished
		*publishedAt = &t
		return nil
	default:
		return invalidTransition(entity, string(*status), "publish")
	}
}

func unpublish(entity string, status *PublicationStatus, publishedAt **time.Time) error {
	if *status != StatusPublished {
		return invalidTransition(entity, string(*status), "unpublish")
	}
	*status = StatusDraft
	*publishedAt = nil
	return nil
}

func reject(entity string, status *PublicationStatus) error {
	if *status != StatusPendingReview {
		return invalidTransition(entity, string(*status), "reject")
	}
	*status = StatusRejected
	return nil
}

func redraft(entity string, status *PublicationStatus) error {
	if *status != StatusRejected {
		return invalidTransition(entity, string(*status), "return to draft")
	}
	*status = StatusDraft
	return nil
}
