package domain

// Operation names something a caller may attempt against the catalog.
type Operation string

const (
	OpViewPublicCatalog Operation = "view_public_catalog"
	OpViewDetail        Operation = "view_detail"
	OpViewAdminCatalog  Operation = "view_admin_catalog"
	OpCreate            Operation = "create"
	OpUpdate            Operation = "update"
	OpDelete            Operation = "delete"
	OpManageCategories  Operation = "manage_categories"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// requiredRole maps each operation to the role it needs. An empty role means
// anonymous callers are allowed.
var requiredRole = map[Operation]string{
	OpViewPublicCatalog: "",
	OpViewDetail:        "",
	OpViewAdminCatalog:  RoleAdmin,
	OpCreate:            RoleAdmin,
	OpUpdate:            RoleAdmin,
	OpDelete:            RoleAdmin,
	OpManageCategories:  RoleAdmin,
}

// RequiredRole returns the role op needs and whether op is known.
func RequiredRole(op Operation) (string, bool) {
	role, ok := requiredRole[op]
	return role, ok
}

// Authorize evaluates the policy table. Unknown operations are denied.
func Authorize(op Operation, caller Caller) Decision {
	role, ok := requiredRole[op]
	if !ok {
		return Deny
	}
	if role == "" || caller.HasRole(role) {
		return Allow
	}
	return Deny
}

// Check is Authorize translated into an error: nil when allowed,
// ErrUnauthenticated for an anonymous caller and ErrForbidden otherwise.
func Check(op Operation, caller Caller) error {
	if Authorize(op, caller) == Allow {
		return nil
	}
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
