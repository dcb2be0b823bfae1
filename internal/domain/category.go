package domain

import (
	"context"
	"time"
)

// Category groups posts. Categories are managed outside this service; posts
// only reference them by id.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:60;not null;uniqueIndex" json:"slug"`
	Color       string    `gorm:"size:7" json:"color,omitempty"`
	Description string    `gorm:"size:200" json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

type CategoryRepository interface {
	FindByID(ctx context.Context, id uint) (*Category, error)
	Create(ctx context.Context, category *Category) error
	List(ctx context.Context) ([]*Category, error)
}
