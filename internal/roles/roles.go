// Package roles holds the static role-based permission model. Route-level
// gating and the finer per-resource checks both read from the same table so
// they cannot drift apart.
package roles

import "strings"

type Role string

const (
	SuperAdmin   Role = "super_admin"
	TenantAdmin  Role = "tenant_admin"
	Manager      Role = "manager"
	SalesRep     Role = "sales_rep"
	SupportAgent Role = "support_agent"
	Viewer       Role = "viewer"
)

// All lists roles from widest to narrowest capability.
var All = []Role{SuperAdmin, TenantAdmin, Manager, SalesRep, SupportAgent, Viewer}

const (
	ResourceCustomers  = "customers"
	ResourceLogs       = "logs"
	ResourceComplaints = "complaints"
	ResourceUsers      = "users"
)

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAssign = "assign"
)

// permissions maps role -> resource -> allowed actions. SuperAdmin never
// consults this table; it is implicitly allowed everything.
var permissions = map[Role]map[string][]string{
	TenantAdmin: {
		ResourceCustomers:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceLogs:       {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceComplaints: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign},
		ResourceUsers:      {ActionCreate, ActionRead, ActionUpdate},
	},
	Manager: {
		ResourceCustomers:  {ActionCreate, ActionRead, ActionUpdate},
		ResourceLogs:       {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceComplaints: {ActionCreate, ActionRead, ActionUpdate, ActionAssign},
	},
	SalesRep: {
		ResourceCustomers:  {ActionCreate, ActionRead, ActionUpdate},
		ResourceLogs:       {ActionCreate, ActionRead, ActionUpdate},
		ResourceComplaints: {ActionCreate, ActionRead},
	},
	SupportAgent: {
		ResourceCustomers:  {ActionRead, ActionUpdate},
		ResourceLogs:       {ActionCreate, ActionRead, ActionUpdate},
		ResourceComplaints: {ActionCreate, ActionRead, ActionUpdate},
	},
	Viewer: {
		ResourceCustomers:  {ActionRead},
		ResourceLogs:       {ActionRead},
		ResourceComplaints: {ActionRead},
	},
}

// Normalize lower-cases and trims a raw role string.
func Normalize(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

func Valid(r Role) bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// HasPermission reports whether the role may perform action on resource.
func HasPermission(role Role, resource, action string) bool {
	if role == SuperAdmin {
		return true
	}
	actions, ok := permissions[role][resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// Admins is the allow-set for tenant administration routes.
var Admins = []Role{SuperAdmin, TenantAdmin}

// Managers is the allow-set for routes open to managers and above.
var Managers = []Role{SuperAdmin, TenantAdmin, Manager}
