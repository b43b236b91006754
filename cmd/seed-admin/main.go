// seed-admin creates or updates the admin employee (employee number: admin).
// If the database has no company yet, a demo company is created first so the
// admin has a tenant to belong to.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Override the seeded password with ADMIN_PASSWORD.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

const (
	adminNumber   = "admin"
	adminPassword = "Hudoor@dmin1"
	adminName     = "Hudoor Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var company models.Company
	err := db.WithContext(ctx).Model(&models.Company{}).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		company = models.Company{
			ID:       uuid.New(),
			NameEn:   "Hudoor Demo Company",
			NameAr:   "شركة حضور التجريبية",
			Email:    "admin@hudoor.local",
			Timezone: "Asia/Riyadh",
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&company).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create company: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created company %q (%s)\n", company.NameEn, company.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup company: %v\n", err)
		os.Exit(1)
	}

	companyID := company.ID.String()

	// Model hooks expect tenant + actor identity in context.
	ctx = utils.SetCompanyIdInContext(ctx, companyID)
	ctx = utils.SetEmployeeIdInContext(ctx, 0)
	ctx = utils.SetEmployeeNameInContext(ctx, "Seed")
	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	password := adminPassword
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		password = v
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.Employee
	err = db.WithContext(ctx).Model(&models.Employee{}).
		Where("company_id = ? AND employee_number = ?", companyID, adminNumber).
		First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup employee: %v\n", err)
			os.Exit(1)
		}
		e := models.Employee{
			CompanyId:      companyID,
			EmployeeNumber: adminNumber,
			NameEn:         adminName,
			NameAr:         "مشرف حضور",
			Password:       hashedStr,
			Role:           models.EmployeeRoleAdmin,
			IsActive:       utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&e).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin employee: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin employee: number=%q (role=admin)\n", adminNumber)
		return
	}

	if err := db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", existing.ID).Updates(map[string]any{
		"password":  hashedStr,
		"name_en":   adminName,
		"is_active": utils.NewTrue(),
		"role":      models.EmployeeRoleAdmin,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin employee: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin employee: number=%q (role=admin)\n", adminNumber)
}
