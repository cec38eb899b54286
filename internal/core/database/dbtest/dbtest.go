// Package dbtest 提供测试用的内存 SQLite 数据库与固定数据。
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gin-gorm-snippets/internal/core/database"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/pkg/utils"
)

const Password = "password1234!"

// Open 每个测试独立的内存库；单连接保证事务与查询看到同一份数据
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Hasher() utils.BcryptHasher { return utils.BcryptHasher{Cost: bcrypt.MinCost} }

type Fixture struct {
	Staff    domain.User // id 1
	Member   domain.User // id 2，普通用户
	Active   domain.User // id 3，拥有 Snippet
	Inactive domain.User // id 4，已软删
	Snippet  domain.Snippet
}

// Seed 写入四个用户和一个代码片段，不产生审计记录
func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()
	hash, err := Hasher().Hash(Password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	f := Fixture{
		Staff:    domain.User{Username: "rubindamian-staff", Email: "staff@example.com", PasswordHash: hash, IsStaff: true},
		Member:   domain.User{Username: "member", Email: "member@example.com", PasswordHash: hash},
		Active:   domain.User{Username: "active", Email: "active@example.com", PasswordHash: hash},
		Inactive: domain.User{Username: "inactive", Email: "inactive@example.com", PasswordHash: hash, SoftDeleted: true},
	}
	for _, u := range []*domain.User{&f.Staff, &f.Member, &f.Active, &f.Inactive} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user %s: %v", u.Username, err)
		}
	}
	owner := f.Active.ID
	f.Snippet = domain.Snippet{
		Title:    "hello",
		Code:     "print('hello')\n",
		Language: domain.DefaultLanguage,
		Style:    domain.DefaultStyle,
		OwnerID:  &owner,
	}
	if err := db.Create(&f.Snippet).Error; err != nil {
		t.Fatalf("seed snippet: %v", err)
	}
	return f
}

func CountAudit(t testing.TB, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.AuditLogEntry{}).Count(&n).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	return n
}

func LastAudit(t testing.TB, db *gorm.DB) domain.AuditLogEntry {
	t.Helper()
	var e domain.AuditLogEntry
	if err := db.Order("id DESC").First(&e).Error; err != nil {
		t.Fatalf("last audit: %v", err)
	}
	return e
}
