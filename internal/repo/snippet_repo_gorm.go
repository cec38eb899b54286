package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/domain"
)

type SnippetRepo struct{ db *gorm.DB }

func NewSnippetRepo(db *gorm.DB) *SnippetRepo { return &SnippetRepo{db: db} }

func (r *SnippetRepo) Create(ctx context.Context, s *domain.Snippet) error {
	// 只写外键，不级联保存 Owner
	err := conn(ctx, r.db).Omit("Owner").Create(s).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) && s.OwnerID != nil {
		// owner 行已不存在
		return apperror.Conflict("user", *s.OwnerID)
	}
	return err
}

func (r *SnippetRepo) FindByID(ctx context.Context, id uint) (*domain.Snippet, error) {
	var s domain.Snippet
	err := conn(ctx, r.db).Preload("Owner").Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("snippet", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SnippetRepo) List(ctx context.Context, p domain.Page) ([]domain.Snippet, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Snippet{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.Snippet, 0, p.Limit)
	if err := q.Preload("Owner").Order("id ASC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SnippetRepo) Update(ctx context.Context, s *domain.Snippet) error {
	res := conn(ctx, r.db).Model(s).
		Select("title", "code", "linenos", "language", "style", "updated_at").
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("snippet", s.ID)
	}
	return nil
}

// Delete 物理删除
func (r *SnippetRepo) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Snippet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}
