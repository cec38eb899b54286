package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditDelete     AuditAction = "delete"
	AuditSoftDelete AuditAction = "soft-delete"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete, AuditSoftDelete:
		return true
	}
	return false
}

var ErrAuditImmutable = errors.New("audit log entries are append-only")

type AuditLogEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ModelName string      `gorm:"size:255;not null;index:idx_audit_object" json:"modelName"`
	ObjectID  uint        `gorm:"not null;index:idx_audit_object" json:"objectId"`
	Action    AuditAction `gorm:"size:32;not null" json:"action"`
	Timestamp time.Time   `gorm:"not null;index" json:"timestamp"`
	UserID    *uint       `gorm:"index" json:"userId"`
	User      *User       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (AuditLogEntry) TableName() string { return "audit_logs" }

// 只允许追加
func (AuditLogEntry) BeforeUpdate(*gorm.DB) error { return ErrAuditImmutable }
func (AuditLogEntry) BeforeDelete(*gorm.DB) error { return ErrAuditImmutable }

// AuditRecorder 由每个资源服务在构造时注入；API 与管理端共用同一个实例
type AuditRecorder interface {
	Append(ctx context.Context, action AuditAction, modelName string, objectID uint, actorID *uint) (uint, error)
}

type AuditFilter struct {
	ModelName string
	ObjectID  uint
	Action    AuditAction
}

type AuditReader interface {
	List(ctx context.Context, f AuditFilter, p Page) ([]AuditLogEntry, int64, error)
}

// Transactor 把实体写入与审计追加放进同一个事务
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
