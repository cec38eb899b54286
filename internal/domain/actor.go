package domain

// Actor 是经过认证的请求方；nil 表示匿名
type Actor struct {
	ID       uint
	Username string
	IsStaff  bool
	// ViaAdmin 标记请求来自管理端（/admin/v1）
	ViaAdmin bool
}

// Ref 返回审计记录使用的用户引用
func (a *Actor) Ref() *uint {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}

func (a *Actor) Authenticated() bool { return a != nil && a.ID != 0 }
