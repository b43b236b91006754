// attendance-autoclose force-closes attendance sessions left open past their
// shift's auto-close cutoff. Run it as a scheduled job (Cloud Scheduler / cron);
// it walks every active company, derives the cutoff from the company's default
// shift in the company timezone, and closes whatever is overdue.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/attendance-autoclose
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var companies []*models.Company
	if err := db.WithContext(ctx).Where("is_active = ?", true).Find(&companies).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list companies: %v\n", err)
		os.Exit(1)
	}

	totalClosed := 0
	failures := 0
	for _, company := range companies {
		companyID := company.ID.String()

		cctx := utils.SetCompanyIdInContext(ctx, companyID)
		cctx = utils.SetEmployeeIdInContext(cctx, 0)
		cctx = utils.SetEmployeeNameInContext(cctx, "System")

		shift, err := models.DefaultShiftForCompany(cctx, companyID)
		if err != nil || shift == nil {
			fmt.Fprintf(os.Stderr, "company %s: no default shift, skipping\n", companyID)
			continue
		}

		now := time.Now().In(company.Location())
		cutoff := shift.AutoCloseCutoff(now)
		if cutoff.After(now) {
			// today's cutoff not reached yet, close sessions overdue from yesterday
			cutoff = shift.AutoCloseCutoff(now.AddDate(0, 0, -1))
		}

		closed, err := models.CloseOverdueSessions(cctx, companyID, cutoff)
		if err != nil {
			fmt.Fprintf(os.Stderr, "company %s: auto-close failed: %v\n", companyID, err)
			failures++
			continue
		}
		if closed > 0 {
			fmt.Printf("company %s: closed %d overdue session(s) (cutoff %s)\n", companyID, closed, cutoff.Format(time.RFC3339))
		}
		totalClosed += closed
	}

	fmt.Printf("auto-close done: %d session(s) closed across %d company(ies)\n", totalClosed, len(companies))
	if failures > 0 {
		os.Exit(1)
	}
}
