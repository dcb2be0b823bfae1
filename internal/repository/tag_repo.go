package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository with the given GORM DB instance.
func NewTagRepository(db *gorm.DB) domain.TagRepository {
	return &tagRepository{db: db}
}

// ListTags returns every tag used by a published post, ordered by name.
func (r *tagRepository) ListTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT tag FROM posts, unnest(posts.tags) AS tag WHERE posts.is_published = ? ORDER BY tag ASC", true).
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
