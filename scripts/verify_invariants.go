package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type violationRow struct {
	VehicleID string `gorm:"column:vehicle_id"`
	Count     int    `gorm:"column:count"`
}

// Run-once data check: reports vehicles with more than one open workshop
// record and (operation_type, related_record_id) pairs with more than one
// live approval request. Both should be impossible once the partial unique
// indexes are in place; this catches rows that predate them.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("========================================")
	fmt.Println("VERIFICATION: Fleet invariants")
	fmt.Println("========================================")

	var openWorkshops []violationRow
	if err := db.Raw(`
		SELECT vehicle_id, COUNT(*) as count
		FROM vehicle_workshops
		WHERE exit_date IS NULL AND deleted_at IS NULL
		GROUP BY vehicle_id
		HAVING COUNT(*) > 1
	`).Scan(&openWorkshops).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	if len(openWorkshops) == 0 {
		fmt.Println("✅ Open-workshop invariant holds: at most one open record per vehicle")
	} else {
		for _, v := range openWorkshops {
			fmt.Printf("❌ Vehicle %s has %d open workshop records\n", v.VehicleID, v.Count)
		}
	}

	type requestRow struct {
		OperationType   string `gorm:"column:operation_type"`
		RelatedRecordID string `gorm:"column:related_record_id"`
		Count           int    `gorm:"column:count"`
	}
	var liveRequests []requestRow
	if err := db.Raw(`
		SELECT operation_type, related_record_id, COUNT(*) as count
		FROM operation_requests
		WHERE status IN ('pending', 'under_review') AND deleted_at IS NULL
		GROUP BY operation_type, related_record_id
		HAVING COUNT(*) > 1
	`).Scan(&liveRequests).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	if len(liveRequests) == 0 {
		fmt.Println("✅ Approval invariant holds: at most one live request per record")
	} else {
		for _, v := range liveRequests {
			fmt.Printf("❌ %s/%s has %d live approval requests\n", v.OperationType, v.RelatedRecordID, v.Count)
		}
	}

	var orphanDrivers int64
	if err := db.Raw(`
		SELECT COUNT(*) FROM vehicles v
		WHERE v.driver_name IS NOT NULL AND v.deleted_at IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM vehicle_handovers h
			WHERE h.vehicle_id = v.id AND h.type = 'delivery' AND h.deleted_at IS NULL
		)
	`).Scan(&orphanDrivers).Error; err != nil {
		log.Fatal("Query failed:", err)
	}
	if orphanDrivers == 0 {
		fmt.Println("✅ Driver denormalization holds: every current driver has a delivery record")
	} else {
		fmt.Printf("❌ %d vehicles carry a driver_name with no delivery handover\n", orphanDrivers)
	}

	fmt.Println("========================================")
}
