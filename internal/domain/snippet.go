package domain

import (
	"context"
	"time"
)

const (
	ModelSnippet = "Snippet"

	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)

type Snippet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null;default:''" json:"title"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	Linenos   bool      `gorm:"not null;default:false" json:"linenos"`
	Language  string    `gorm:"size:100;not null" json:"language"`
	Style     string    `gorm:"size:100;not null" json:"style"`
	OwnerID   *uint     `gorm:"index" json:"ownerId"`
	Owner     *User     `gorm:"constraint:OnDelete:SET NULL" json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Snippet) TableName() string { return "snippets" }

// OwnedBy 拥有者被删除后 OwnerID 为 nil，此时谁都不是拥有者
func (s *Snippet) OwnedBy(uid uint) bool {
	return s.OwnerID != nil && *s.OwnerID == uid
}

type SnippetRepository interface {
	Create(ctx context.Context, s *Snippet) error
	FindByID(ctx context.Context, id uint) (*Snippet, error)
	List(ctx context.Context, p Page) ([]Snippet, int64, error)
	Update(ctx context.Context, s *Snippet) error
	Delete(ctx context.Context, id uint) error
}
