package enum

// ── Roles carried in access tokens (CHECK constrained in DB) ──

const (
	RoleSuperAdmin    = "SUPER_ADMIN"
	RoleOutletAdmin   = "OUTLET_ADMIN"
	RoleWashingWorker = "WASHING_WORKER"
	RoleIroningWorker = "IRONING_WORKER"
	RolePackingWorker = "PACKING_WORKER"
	RoleDriver        = "DRIVER"
	RoleCustomer      = "CUSTOMER"
)

// IsEmployeeRole reports whether role belongs to outlet staff, which must be
// attached to an outlet.
func IsEmployeeRole(role string) bool {
	switch role {
	case RoleOutletAdmin, RoleWashingWorker, RoleIroningWorker, RolePackingWorker, RoleDriver:
		return true
	}
	return false
}

// IsValidRole reports whether role is any known role.
func IsValidRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleCustomer || IsEmployeeRole(role)
}

// ── Gateway wire values ──

const (
	GatewayTransactionSettlement = "settlement"
)
