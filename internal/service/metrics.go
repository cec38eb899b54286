package service

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"gin-gorm-snippets/internal/domain"
)

var auditEntriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "audit_entries_total", Help: "Committed audit log entries"},
	[]string{"model", "action"},
)

func init() { prometheus.MustRegister(auditEntriesTotal) }

// 只在事务提交之后计数
func recorded(model string, action domain.AuditAction) {
	auditEntriesTotal.WithLabelValues(model, string(action)).Inc()
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paginate 把 page/size（从 1 开始）规范化为 offset/limit
func Paginate(page, size int) (domain.Page, int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	// offset 溢出会被 gorm 忽略并回到第一页
	if maxPage := math.MaxInt/size + 1; page > maxPage {
		page = maxPage
	}
	return domain.Page{Offset: (page - 1) * size, Limit: size}, page, size
}
