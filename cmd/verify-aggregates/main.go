// Command verify-aggregates audits the denormalized seller aggregates.
// It recomputes each seller's total/positive/average from the rating rows,
// diffs against the stored fields and prints every discrepancy. Read-only:
// run backfill-aggregates to repair what this reports.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tradepost/marketplace/backend/internal/database"
	"github.com/tradepost/marketplace/backend/internal/ratings"
)

func main() {
	jsonOut := flag.Bool("json", false, "print the full report as JSON")
	flag.Parse()

	db := database.New()
	defer db.Close()

	svc := ratings.NewService(db.GetDB())

	report, err := svc.VerifyAllSellerAggregates()
	if err != nil {
		log.Fatalf("verification failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encode report: %v", err)
		}
	} else {
		fmt.Printf("Checked %d sellers, found %d discrepancies\n",
			report.TotalSellers, len(report.Discrepancies))
		for _, d := range report.Discrepancies {
			fmt.Printf("  seller %d: stored total=%d positive=%d rating=%.2f, actual total=%d positive=%d rating=%.2f\n",
				d.SellerID,
				d.Stored.TotalRatings, d.Stored.PositiveRatings, d.Stored.SellerRating,
				d.Actual.TotalRatings, d.Actual.PositiveRatings, d.Actual.SellerRating)
		}
	}

	if len(report.Discrepancies) > 0 {
		os.Exit(1)
	}
}
