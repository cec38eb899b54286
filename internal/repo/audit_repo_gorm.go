package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gin-gorm-snippets/internal/domain"
)

// AuditRepo 只追加、只读；没有更新和删除方法
type AuditRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditRepo(db *gorm.DB) *AuditRepo { return &AuditRepo{db: db, now: time.Now} }

func (r *AuditRepo) Append(ctx context.Context, action domain.AuditAction, modelName string, objectID uint, actorID *uint) (uint, error) {
	if !action.Valid() {
		return 0, fmt.Errorf("audit: unknown action %q", action)
	}
	if modelName == "" || objectID == 0 {
		return 0, fmt.Errorf("audit: model name and object id are required")
	}
	entry := domain.AuditLogEntry{
		ModelName: modelName,
		ObjectID:  objectID,
		Action:    action,
		Timestamp: r.now().UTC(),
		UserID:    actorID,
	}
	if err := conn(ctx, r.db).Omit("User").Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("audit: append %s %s#%d: %w", action, modelName, objectID, err)
	}
	return entry.ID, nil
}

func (r *AuditRepo) List(ctx context.Context, f domain.AuditFilter, p domain.Page) ([]domain.AuditLogEntry, int64, error) {
	q := conn(ctx, r.db).Model(&domain.AuditLogEntry{})
	if f.ModelName != "" {
		q = q.Where("model_name = ?", f.ModelName)
	}
	if f.ObjectID != 0 {
		q = q.Where("object_id = ?", f.ObjectID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]domain.AuditLogEntry, 0, p.Limit)
	if err := q.Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
