package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// visible 软删谓词，列表与详情共用，并且最先加到查询上
func visible(f domain.UserFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.IncludeSoftDeleted {
			return q
		}
		return q.Where("soft_deleted = ?", false)
	}
}

// 关联的代码片段只取 id
func snippetIDs(q *gorm.DB) *gorm.DB { return q.Select("id", "owner_id").Order("id") }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := conn(ctx, r.db).Create(u).Error; err != nil {
		if isDupKey(err) {
			return apperror.ValidationFailed("username", "a user with that username already exists")
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint, f domain.UserFilter) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).
		Scopes(visible(f)).
		Preload("Snippets", snippetIDs).
		Where("id = ?", id).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindActive(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).
		Scopes(visible(domain.UserFilter{})).
		Where("id = ?", id).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundBy("user", "username", username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	q := conn(ctx, r.db).Model(&domain.User{}).Scopes(visible(f)).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := make([]domain.User, 0, p.Limit)
	if err := q.Preload("Snippets", snippetIDs).Order("id ASC").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	res := conn(ctx, r.db).Model(u).
		Select("username", "email", "password_hash", "is_staff", "soft_deleted", "updated_at").
		Updates(u)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return apperror.ValidationFailed("username", "a user with that username already exists")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user", u.ID)
	}
	return nil
}

// MarkSoftDeleted 只翻转标记，行永远保留
func (r *UserRepo) MarkSoftDeleted(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", id).Update("soft_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (r *UserRepo) CountStaff(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.User{}).
		Where("is_staff = ? AND soft_deleted = ?", true, false).
		Count(&n).Error
	return n, err
}
