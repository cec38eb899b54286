package domain

import (
	"context"
	"time"
)

const ModelUser = "User"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"isStaff"`
	SoftDeleted  bool      `gorm:"not null;default:false;index" json:"softDeleted"`
	Snippets     []Snippet `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserFilter 是软删可见性谓词：零值即 soft_deleted = false
type UserFilter struct {
	IncludeSoftDeleted bool
}

type Page struct {
	Offset int
	Limit  int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint, f UserFilter) (*User, error)
	// FindActive 只查未软删的用户行，不加载关联
	FindActive(ctx context.Context, id uint) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, f UserFilter, p Page) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	MarkSoftDeleted(ctx context.Context, id uint) error
	CountStaff(ctx context.Context) (int64, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) bool
}
