package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository with the given GORM DB instance.
func NewPostRepository(db *gorm.DB) domain.PostRepository {
	return &postRepository{db: db}
}

func postNotFound(id uint) error {
	return fmt.Errorf("%w with id of %d", domain.ErrPostNotFound, id)
}

// Create inserts a new post. References are stored by id only.
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// FindByID retrieves the bare post row.
func (r *postRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, postNotFound(id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// GetByID retrieves a post with its author and category display fields.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author", selectPostAuthor).
		Preload("Category", selectCategory).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, postNotFound(id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// List returns one page of posts matching q, newest first, and the total
// number of matches.
func (r *postRepository) List(ctx context.Context, q domain.PostQuery) ([]*domain.Post, int64, error) {
	var total int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Post{}).Scopes(postFilter(q)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}
	posts := []*domain.Post{}
	if total == 0 || int64(q.Offset()) >= total {
		return posts, total, nil
	}
	err := db.Model(&domain.Post{}).
		Scopes(postFilter(q), paginate(q.Window)).
		Preload("Author", selectListAuthor).
		Preload("Category", selectCategory).
		Order("posts.created_at DESC").
		Order("posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

// Update writes the mutable columns of post. Author, view count and
// comments are never touched here.
func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now()
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	result := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":          post.Title,
		"content":        post.Content,
		"excerpt":        post.Excerpt,
		"category_id":    post.CategoryID,
		"tags":           post.Tags,
		"featured_image": post.FeaturedImage,
		"is_published":   post.IsPublished,
		"updated_at":     post.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return postNotFound(post.ID)
	}
	return nil
}

// Delete removes a post and its comments in one transaction. The post row is
// locked first, so a comment append holding or waiting for its share lock is
// either removed with the post or sees the post gone.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return postNotFound(id)
			}
			return fmt.Errorf("failed to lock post: %w", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete post: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return postNotFound(id)
		}
		return nil
	})
}

// IncrementViewCount adds one view in a single statement. updated_at is
// left alone.
func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment view count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return postNotFound(id)
	}
	return nil
}
