// Command backfill-aggregates recomputes and persists the seller aggregate
// fields for every seller with ratings. It is the repair counterpart to
// verify-aggregates and is safe to re-run: the recompute is idempotent.
package main

import (
	"fmt"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tradepost/marketplace/backend/internal/database"
	"github.com/tradepost/marketplace/backend/internal/ratings"
)

func main() {
	db := database.New()
	defer db.Close()

	svc := ratings.NewService(db.GetDB())

	count, err := svc.BackfillAllSellerAggregates()
	if err != nil {
		log.Fatalf("backfill stopped after %d sellers: %v", count, err)
	}

	fmt.Printf("Recomputed aggregates for %d sellers\n", count)
}
