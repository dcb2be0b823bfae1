package domain

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// Post is a blog post. Author and Category hold display fields resolved at
// read time; only AuthorID and CategoryID are persisted on the row.
type Post struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	Excerpt       string         `gorm:"size:500" json:"excerpt,omitempty"`
	CategoryID    uint           `gorm:"not null;index" json:"categoryId"`
	Category      *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AuthorID      uint           `gorm:"not null;index" json:"authorId"`
	Author        *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags          pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"tags"`
	FeaturedImage string         `gorm:"size:500" json:"featuredImage,omitempty"`
	IsPublished   bool           `gorm:"not null;default:false;index" json:"isPublished"`
	ViewCount     int64          `gorm:"not null;default:0" json:"viewCount"`
	Comments      []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// CreatePostRequest enumerates the fields a caller may set on a new post.
// Author, view count and comments are never bound from input.
type CreatePostRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Content       string   `json:"content" binding:"required"`
	Excerpt       string   `json:"excerpt" binding:"max=500"`
	Category      uint     `json:"category" binding:"required"`
	Tags          []string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	FeaturedImage string   `json:"featuredImage" binding:"max=500"`
	IsPublished   bool     `json:"isPublished"`
}

// UpdatePostRequest carries the mutable fields of a post. Nil fields keep
// their stored value.
type UpdatePostRequest struct {
	Title         *string   `json:"title,omitempty" binding:"omitempty,max=200"`
	Content       *string   `json:"content,omitempty"`
	Excerpt       *string   `json:"excerpt,omitempty" binding:"omitempty,max=500"`
	Category      *uint     `json:"category,omitempty"`
	Tags          *[]string `json:"tags,omitempty" binding:"omitempty,max=20,dive,max=50"`
	FeaturedImage *string   `json:"featuredImage,omitempty" binding:"omitempty,max=500"`
	IsPublished   *bool     `json:"isPublished,omitempty"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []*Post
	Total      int64
	Pagination Pagination
}

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	// FindByID returns the bare post row without resolved references.
	FindByID(ctx context.Context, id uint) (*Post, error)
	// GetByID returns the post with author and category display fields.
	GetByID(ctx context.Context, id uint) (*Post, error)
	List(ctx context.Context, query PostQuery) ([]*Post, int64, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
}

type TagRepository interface {
	ListTags(ctx context.Context) ([]string, error)
}

type PostService interface {
	ListPosts(ctx context.Context, query PostQuery) (*PostPage, error)
	GetPost(ctx context.Context, id uint) (*Post, error)
	CreatePost(ctx context.Context, actor *Actor, req CreatePostRequest) (*Post, error)
	UpdatePost(ctx context.Context, id uint, actor *Actor, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id uint, actor *Actor) error
	AddComment(ctx context.Context, postID uint, actor *Actor, content string) ([]Comment, error)
	ListComments(ctx context.Context, postID uint, window Window) (*CommentPage, error)
	ListTags(ctx context.Context) ([]string, error)
}
