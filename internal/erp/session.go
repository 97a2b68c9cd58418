package erp

import (
	"fmt"
	"strings"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// Role is what a signed-in user may do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (want admin, manager, staff or customer)", s)
}

// Session is the signed-in user. It is passed to every workspace explicitly.
type Session struct {
	User string
	Role Role
}

// Capabilities returns what the session may do on the given entity view.
func (s Session) Capabilities(entity string) listcore.Capabilities {
	switch s.Role {
	case RoleAdmin:
		return listcore.Capabilities{CanCreate: true, CanEdit: true, CanDelete: true, CanPermanentlyDelete: true}
	case RoleManager:
		return listcore.Capabilities{CanCreate: true, CanEdit: true, CanDelete: true}
	case RoleStaff:
		return listcore.Capabilities{CanCreate: true, CanEdit: true}
	case RoleCustomer:
		return listcore.Capabilities{CanCreate: entity == "sales"}
	}
	return listcore.Capabilities{}
}

// OwnerScope is the email records are narrowed to, or "" for no narrowing.
func (s Session) OwnerScope() string {
	if s.Role == RoleCustomer {
		return s.User
	}
	return ""
}

// CanView reports whether the entity view is reachable at all.
func (s Session) CanView(entity string) bool {
	if s.Role != RoleCustomer {
		return true
	}
	return entity == "sales" || entity == "shipments"
}
