package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity record owned by the auth service. This service only
// reads its display fields.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name,omitempty"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Avatar    string    `gorm:"size:500" json:"avatar,omitempty"`
	Bio       string    `gorm:"size:500" json:"bio,omitempty"`
	Role      Role      `gorm:"size:20;not null;default:user" json:"role,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Actor is the resolved identity behind a request. A nil *Actor is an
// anonymous visitor.
type Actor struct {
	ID   uint
	Role Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanMutate reports whether actor may update or delete a resource authored
// by authorID: the author themselves or any admin.
func CanMutate(actor *Actor, authorID uint) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || actor.IsAdmin()
}

// UserRepository is only used to seed development identities.
type UserRepository interface {
	FirstOrCreate(ctx context.Context, user *User) error
}
