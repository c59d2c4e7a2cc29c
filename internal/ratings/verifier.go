package ratings

import (
	"fmt"
	"math"

	"github.com/tradepost/marketplace/backend/internal/models"
)

// Stored averages are floats, so they are compared within this tolerance.
const scoreEpsilon = 0.01

// Discrepancy is one seller whose stored aggregate does not match the
// values recomputed from the rating rows.
type Discrepancy struct {
	SellerID int       `json:"seller_id"`
	Stored   Aggregate `json:"stored"`
	Actual   Aggregate `json:"actual"`
}

// VerifyReport is the result of a full aggregate audit.
type VerifyReport struct {
	TotalSellers  int           `json:"total_sellers"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// sellersWithRatings finds every seller whose aggregate could be non-trivial:
// a stored total above zero, or rating rows on record. The union catches a
// seller whose stored total drifted back to zero while rows still exist.
func (s *Service) sellersWithRatings() ([]models.User, error) {
	var sellers []models.User
	if err := s.db.
		Where("total_ratings > 0 OR id IN (?)",
			s.db.Model(&models.Rating{}).Distinct("seller_id")).
		Find(&sellers).Error; err != nil {
		return nil, fmt.Errorf("load sellers: %w", err)
	}
	return sellers, nil
}

// VerifyAllSellerAggregates recomputes every relevant seller's aggregate and
// diffs it against the stored fields. Read-only: it reports drift but never
// corrects it; backfill is the repair path.
func (s *Service) VerifyAllSellerAggregates() (VerifyReport, error) {
	sellers, err := s.sellersWithRatings()
	if err != nil {
		return VerifyReport{}, err
	}

	report := VerifyReport{
		TotalSellers:  len(sellers),
		Discrepancies: []Discrepancy{},
	}

	for _, seller := range sellers {
		actual, err := s.computeSellerAggregate(seller.ID)
		if err != nil {
			return report, fmt.Errorf("recompute seller %d: %w", seller.ID, err)
		}

		stored := Aggregate{
			TotalRatings:    seller.TotalRatings,
			PositiveRatings: seller.PositiveRatings,
			SellerRating:    seller.SellerRating,
		}

		if stored.TotalRatings != actual.TotalRatings ||
			stored.PositiveRatings != actual.PositiveRatings ||
			math.Abs(stored.SellerRating-actual.SellerRating) > scoreEpsilon {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				SellerID: seller.ID,
				Stored:   stored,
				Actual:   actual,
			})
		}
	}

	return report, nil
}

// BackfillAllSellerAggregates recomputes and persists the aggregate for every
// relevant seller, returning how many were processed. This is the repair
// counterpart to the verifier.
func (s *Service) BackfillAllSellerAggregates() (int, error) {
	sellers, err := s.sellersWithRatings()
	if err != nil {
		return 0, err
	}

	for i, seller := range sellers {
		if err := s.RecomputeSellerAggregate(seller.ID); err != nil {
			return i, fmt.Errorf("backfill seller %d: %w", seller.ID, err)
		}
	}
	return len(sellers), nil
}
