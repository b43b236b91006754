package models

type EmployeeRole string

const (
	EmployeeRoleAdmin      EmployeeRole = "admin"
	EmployeeRoleSupervisor EmployeeRole = "supervisor"
	EmployeeRoleStaff      EmployeeRole = "employee"
)

func (r EmployeeRole) Valid() bool {
	switch r {
	case EmployeeRoleAdmin, EmployeeRoleSupervisor, EmployeeRoleStaff:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	AttendanceStatusCheckedIn  AttendanceStatus = "checked_in"
	AttendanceStatusCheckedOut AttendanceStatus = "checked_out"
)

type LeaveType string

const (
	LeaveTypeAnnual    LeaveType = "annual"
	LeaveTypeSick      LeaveType = "sick"
	LeaveTypeEmergency LeaveType = "emergency"
	LeaveTypeUnpaid    LeaveType = "unpaid"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeSick, LeaveTypeEmergency, LeaveTypeUnpaid:
		return true
	}
	return false
}

// unpaid leave has no balance to debit
func (t LeaveType) Deductible() bool {
	return t != LeaveTypeUnpaid
}

type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

type DeviceCheckOutcome string

const (
	DeviceCheckAllowed         DeviceCheckOutcome = "Allowed"
	DeviceCheckNewDevice       DeviceCheckOutcome = "NewDevice"
	DeviceCheckDifferentDevice DeviceCheckOutcome = "DifferentDevice"
	DeviceCheckBlocked         DeviceCheckOutcome = "Blocked"
)

type SecurityAlertType string

const (
	SecurityAlertTypeDeviceMismatch SecurityAlertType = "DeviceMismatch"
	SecurityAlertTypeDeviceBlocked  SecurityAlertType = "DeviceBlocked"
	SecurityAlertTypeMockLocation   SecurityAlertType = "MockLocation"
)
