// device-binding-reset clears the device binding for one employee so their
// next login re-binds whatever device they sign in from. Support tool for
// legitimate phone replacements.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... ... go run ./cmd/device-binding-reset -employee 42
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
)

func main() {
	employeeID := flag.Int("employee", 0, "employee id whose device binding should be reset")
	flag.Parse()
	if *employeeID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: device-binding-reset -employee <id>")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var employee models.Employee
	if err := db.WithContext(ctx).Where("id = ?", *employeeID).First(&employee).Error; err != nil {
		fmt.Fprintf(os.Stderr, "employee %d not found: %v\n", *employeeID, err)
		os.Exit(1)
	}

	ctx = utils.SetCompanyIdInContext(ctx, employee.CompanyId)
	ctx = utils.SetEmployeeIdInContext(ctx, 0)
	ctx = utils.SetEmployeeNameInContext(ctx, "Support")
	ctx = utils.SetIsAdminInContext(ctx, true)

	reset, err := models.ResetDeviceBinding(ctx, *employeeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
		os.Exit(1)
	}
	if !reset {
		fmt.Printf("employee %d (%s) had no device binding\n", *employeeID, employee.NameEn)
		return
	}
	fmt.Printf("device binding reset for employee %d (%s)\n", *employeeID, employee.NameEn)
}
