// Package policy 集中所有访问控制与软删可见性判断。
//
// 这里的函数都是纯函数：输入请求方与目标对象，输出 nil 或 apperror。
// 服务层在访问存储之前调用它们，API 与管理端共用同一套规则。
package policy

import (
	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/domain"
)

// UserScope 返回用户集合的过滤谓词，只有两种结果：
// 管理员且 includeAll 时不过滤；其余一律 soft_deleted = false。
// 列表与详情必须使用同一个谓词。
func UserScope(actor *domain.Actor, includeAll bool) domain.UserFilter {
	if actor != nil && actor.IsStaff && includeAll {
		return domain.UserFilter{IncludeSoftDeleted: true}
	}
	return domain.UserFilter{}
}

func RequireAuthenticated(actor *domain.Actor) error {
	if !actor.Authenticated() {
		return apperror.Unauthenticated("")
	}
	return nil
}

func RequireStaff(actor *domain.Actor) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsStaff {
		return apperror.Forbidden("")
	}
	return nil
}

// 用户

func CanListUsers(actor *domain.Actor) error    { return RequireAuthenticated(actor) }
func CanRetrieveUser(actor *domain.Actor) error { return RequireAuthenticated(actor) }
func CanManageUsers(actor *domain.Actor) error  { return RequireStaff(actor) }

// 代码片段：读公开，写需登录，改删需拥有者

func CanReadSnippets(*domain.Actor) error { return nil }

func CanCreateSnippet(actor *domain.Actor) error { return RequireAuthenticated(actor) }

// CanModifySnippet 只有拥有者可以修改或删除；管理端的管理员例外。
func CanModifySnippet(actor *domain.Actor, s *domain.Snippet) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if s.OwnedBy(actor.ID) {
		return nil
	}
	if actor.ViaAdmin && actor.IsStaff {
		return nil
	}
	return apperror.Forbidden("only the owner may modify this snippet")
}

func CanReadAudit(actor *domain.Actor) error { return RequireStaff(actor) }
