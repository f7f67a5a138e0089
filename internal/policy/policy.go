// Package policy decides which actor may perform which action on a resource.
// Handlers and services resolve a decision once per call instead of
// branching on roles inline.
package policy

import (
	"github.com/google/uuid"
	"github.com/washline/api/internal/enum"
)

type Action string

const (
	ActionAcceptJob            Action = "job:accept"
	ActionConfirmJob           Action = "job:confirm"
	ActionClaimDelivery        Action = "delivery:claim"
	ActionCompleteDelivery     Action = "delivery:complete"
	ActionProcessOrder         Action = "order:process"
	ActionPayOrder             Action = "order:pay"
	ActionViewOrder            Action = "order:view"
	ActionRequestAccess        Action = "request_access:create"
	ActionRespondRequestAccess Action = "request_access:respond"
	ActionManageOutlets        Action = "outlet:manage"
	ActionManageEmployees      Action = "employee:manage"
	ActionViewEmployees        Action = "employee:view"
)

// Actor is the authenticated caller. OutletID is uuid.Nil for customers and
// super admins.
type Actor struct {
	UserID   uuid.UUID
	OutletID uuid.UUID
	Role     string
}

// Resource carries the attributes of the target that decisions depend on.
// Zero values mean "not applicable".
type Resource struct {
	OutletID   uuid.UUID
	CustomerID uuid.UUID
	AssigneeID uuid.UUID
	JobType    string
	// Granted is set when the actor holds an accepted access request for the order.
	Granted bool
}

// RoleForJobType returns the worker role that handles jobType, or "" if unknown.
func RoleForJobType(jobType string) string {
	switch jobType {
	case "WASHING":
		return enum.RoleWashingWorker
	case "IRONING":
		return enum.RoleIroningWorker
	case "PACKING":
		return enum.RolePackingWorker
	}
	return ""
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == enum.RoleSuperAdmin
}

func (a Actor) inOutlet(outletID uuid.UUID) bool {
	return a.OutletID != uuid.Nil && a.OutletID == outletID
}

func (a Actor) isAssignee(r Resource) bool {
	return r.AssigneeID != uuid.Nil && r.AssigneeID == a.UserID
}

// Can reports whether actor may perform action on r.
func Can(a Actor, action Action, r Resource) bool {
	if a.UserID == uuid.Nil {
		return false
	}

	switch action {
	case ActionAcceptJob:
		if a.IsSuperAdmin() {
			return true
		}
		role := RoleForJobType(r.JobType)
		return role != "" && a.Role == role && a.inOutlet(r.OutletID)

	case ActionConfirmJob:
		if a.IsSuperAdmin() {
			return true
		}
		// A job dispatched by a super admin has no assignee; any worker of the
		// right role in the outlet may finish it.
		return a.Role == RoleForJobType(r.JobType) && a.inOutlet(r.OutletID) &&
			(r.AssigneeID == uuid.Nil || a.isAssignee(r))

	case ActionClaimDelivery:
		return a.IsSuperAdmin() || (a.Role == enum.RoleDriver && a.inOutlet(r.OutletID))

	case ActionCompleteDelivery:
		if a.IsSuperAdmin() {
			return true
		}
		return a.Role == enum.RoleDriver && a.inOutlet(r.OutletID) && a.isAssignee(r)

	case ActionProcessOrder, ActionRespondRequestAccess, ActionViewEmployees:
		return a.IsSuperAdmin() || (a.Role == enum.RoleOutletAdmin && a.inOutlet(r.OutletID))

	case ActionPayOrder:
		return a.Role == enum.RoleCustomer && r.CustomerID == a.UserID

	case ActionViewOrder:
		switch {
		case a.IsSuperAdmin():
			return true
		case a.Role == enum.RoleCustomer:
			return r.CustomerID == a.UserID
		case a.Role == enum.RoleOutletAdmin:
			return a.inOutlet(r.OutletID)
		case enum.IsEmployeeRole(a.Role):
			return a.inOutlet(r.OutletID) && (a.isAssignee(r) || r.Granted)
		}
		return false

	case ActionRequestAccess:
		return RoleForJobType(r.JobType) == a.Role && a.inOutlet(r.OutletID) && a.isAssignee(r)

	case ActionManageOutlets, ActionManageEmployees:
		return a.IsSuperAdmin()
	}
	return false
}
