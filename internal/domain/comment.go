package domain

import (
	"context"
	"time"
)

// Comment is an entry in a post's append-only comment log. It has no
// lifecycle of its own and is removed together with its post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"-"`
	AuthorID  uint      `gorm:"not null" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentPage struct {
	Comments   []Comment
	Total      int64
	Pagination Pagination
}

type CommentRepository interface {
	// Append inserts one comment. It returns ErrPostNotFound when the post
	// does not exist at the time of the insert.
	Append(ctx context.Context, comment *Comment) error
	// Recent returns at most limit of the newest comments, oldest first.
	// A limit <= 0 returns the whole log.
	Recent(ctx context.Context, postID uint, limit int) ([]Comment, error)
	List(ctx context.Context, postID uint, window Window) ([]Comment, int64, error)
}
