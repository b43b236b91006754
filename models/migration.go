package models

import (
	"log"

	"github.com/hudoorhq/hudoor_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{},
		&Employee{},
		&AttendanceRecord{}, &ActiveLocation{}, &LocationMovement{},
		&DeviceBinding{}, &SecurityAlert{}, &AuditLog{},
		&LeaveRequest{}, &LeaveBalance{},
		&ShiftConfig{},
		&ReminderRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
