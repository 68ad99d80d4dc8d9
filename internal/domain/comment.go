package domain

import (
	"sort"
	"time"
)

// Comment is a reader comment on a story. Replies point at their parent
// through ParentID, forming a tree per story.
type Comment struct {
	ID        int64         `db:"id"`
	StoryID   int64         `db:"story_id"`
	UserID    int64         `db:"user_id"`
	ParentID  *int64        `db:"parent_id"`
	Content   string        `db:"content"`
	Status    CommentStatus `db:"status"`
	DeletedAt *time.Time    `db:"deleted_at"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// Approve publishes a pending comment.
func (c *Comment) Approve() error {
	if c.Status != CommentPending {
		return invalidTransition("comment", string(c.Status), "approve")
	}
	c.Status = CommentApproved
	return nil
}

// Reject hides a pending comment.
func (c *Comment) Reject() error {
	if c.Status != CommentPending {
		return invalidTransition("comment", string(c.Status), "reject")
	}
	c.Status = CommentRejected
	return nil
}

// Reply builds a new pending comment answering c. The parent's own status
// does not matter: replies always enter moderation.
func (c *Comment) Reply(userID int64, content string) Comment {
	parentID := c.ID
	return Comment{
		StoryID:  c.StoryID,
		UserID:   userID,
		ParentID: &parentID,
		Content:  content,
		Status:   CommentPending,
	}
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool { return c.ParentID != nil }

// IsApproved reports whether the comment passed moderation.
func (c *Comment) IsApproved() bool { return c.Status == CommentApproved }

// IsDeleted reports whether the comment was soft-deleted.
func (c *Comment) IsDeleted() bool { return c.DeletedAt != nil }

// CommentNode is one comment with its replies, ordered by creation.
type CommentNode struct {
	Comment Comment
	Replies []*CommentNode
}

// BuildCommentTree arranges a flat list of comments into reply trees.
// Comments whose parent is absent from the list become roots, as do
// comments whose parent chain loops back on itself.
func BuildCommentTree(comments []Comment) []*CommentNode {
	nodes := make(map[int64]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentNode{Comment: c}
	}
	cyclic := cycleMembers(comments, nodes)

	var roots []*CommentNode
	for _, c := range comments {
		n := nodes[c.ID]
		if c.ParentID != nil && !cyclic[c.ID] {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes(roots)
	return roots
}

// cycleMembers returns the comments that are their own ancestor.
func cycleMembers(comments []Comment, nodes map[int64]*CommentNode) map[int64]bool {
	const (
		onPath = 1
		done   = 2
	)
	state := make(map[int64]int, len(comments))
	cyclic := make(map[int64]bool)

	for _, c := range comments {
		var path []int64
		cur, looped := c.ID, false
		for {
			if s := state[cur]; s != 0 {
				looped = s == onPath
				break
			}
			state[cur] = onPath
			path = append(path, cur)

			p := nodes[cur].Comment.ParentID
			if p == nil {
				break
			}
			if _, ok := nodes[*p]; !ok {
				break
			}
			cur = *p
		}

		if looped {
			for i := len(path) - 1; i >= 0; i-- {
				cyclic[path[i]] = true
				if path[i] == cur {
					break
				}
			}
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return cyclic
}

func sortNodes(nodes []*CommentNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Comment, nodes[j].Comment
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	for _, n := range nodes {
		sortNodes(n.Replies)
	}
}
