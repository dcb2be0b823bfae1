package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) domain.CommentRepository {
	return &commentRepository{db: db}
}

// Append inserts a comment while holding a share lock on the parent post.
// Delete takes the same row FOR UPDATE before removing comments, so the two
// serialize on the post row.
func (r *commentRepository) Append(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&post, comment.PostID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return postNotFound(comment.PostID)
			}
			return fmt.Errorf("failed to lock post: %w", err)
		}
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = time.Now()
		}
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return fmt.Errorf("failed to append comment: %w", err)
		}
		return nil
	})
}

// Recent returns the newest limit comments in insertion order. Ids are
// assigned by the database sequence, so they order the log.
func (r *commentRepository) Recent(ctx context.Context, postID uint, limit int) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	db := r.db.WithContext(ctx).Where("post_id = ?", postID).Preload("Author", selectCommentAuthor)
	if limit <= 0 {
		if err := db.Order("id ASC").Find(&comments).Error; err != nil {
			return nil, fmt.Errorf("failed to load comments: %w", err)
		}
		return comments, nil
	}
	if err := db.Order("id DESC").Limit(limit).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	slices.Reverse(comments)
	return comments, nil
}

// List pages through the whole comment log, oldest first.
func (r *commentRepository) List(ctx context.Context, postID uint, w domain.Window) ([]domain.Comment, int64, error) {
	var total int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	comments := []domain.Comment{}
	if total == 0 || int64(w.Offset()) >= total {
		return comments, total, nil
	}
	err := db.Where("post_id = ?", postID).
		Preload("Author", selectCommentAuthor).
		Order("id ASC").
		Scopes(paginate(w)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}
