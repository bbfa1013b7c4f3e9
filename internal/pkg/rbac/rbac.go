// Package rbac persists casbin policies in Postgres, keeps enforcers on every
// instance in sync over LISTEN/NOTIFY and assigns roles inside the caller's
// transaction.
package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
)

const (
	DefaultTable   = "identity_casbin_rules"
	DefaultChannel = "identity_casbin_reload"
)

// Model is subject/object/action RBAC with "*" wildcards on object and action.
const Model = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

var (
	ErrRoleWithoutPermissions = errors.New("rbac: role has no permissions")
	ErrInvalidFilterType      = errors.New("rbac: filter must be map[ptype][][]values")
	ErrRuleTooLong            = errors.New("rbac: rule has more than 6 values")
)

// Enforcer is the part of casbin the usecases depend on.
type Enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// NewEnforcer builds an enforcer over adapter and loads every policy.
func NewEnforcer(adapter *Adapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(Model)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m, adapter)
}

// Authorize checks the authenticated caller against obj/act.
func Authorize(ctx context.Context, e Enforcer, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := e.Enforce(clm.Subject, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
