package ratings

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradepost/marketplace/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Message{},
		&models.Rating{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func exchangeMessages(t *testing.T, db *gorm.DB, buyerID, sellerID int) {
	t.Helper()

	require.NoError(t, db.Create(&models.Message{
		SenderID:    buyerID,
		RecipientID: sellerID,
		Body:        "Is this still available?",
	}).Error)
	require.NoError(t, db.Create(&models.Message{
		SenderID:    sellerID,
		RecipientID: buyerID,
		Body:        "Yes it is!",
	}).Error)
}

func loadSeller(t *testing.T, db *gorm.DB, sellerID int) models.User {
	t.Helper()

	var seller models.User
	require.NoError(t, db.First(&seller, sellerID).Error)
	return seller
}

func TestCanRateSelfRating(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := createUser(t, db, "alice")

	elig, err := svc.CanRate(user.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, elig.CanRate)
	assert.Equal(t, "cannot rate yourself", elig.Reason)
}

func TestCanRateSellerNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")

	elig, err := svc.CanRate(buyer.ID, 9999)
	require.NoError(t, err)
	assert.False(t, elig.CanRate)
	assert.Equal(t, "seller not found", elig.Reason)
}

func TestCanRateInactiveSeller(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", seller.ID).Update("is_active", false).Error)

	elig, err := svc.CanRate(buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.False(t, elig.CanRate)
	assert.Equal(t, "seller not found", elig.Reason)
}

func TestCanRateRequiresMessageExchange(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")

	elig, err := svc.CanRate(buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.False(t, elig.CanRate)
	assert.Equal(t, "message exchange required", elig.Reason)
}

func TestCanRateSingleMessageEitherDirectionSuffices(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")

	// Only the seller has written so far.
	require.NoError(t, db.Create(&models.Message{
		SenderID:    seller.ID,
		RecipientID: buyer.ID,
		Body:        "Thanks for your purchase",
	}).Error)

	elig, err := svc.CanRate(buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, elig.CanRate)
}

func TestCanRateAlreadyRated(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)

	elig, err := svc.CanRate(buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.False(t, elig.CanRate)
	assert.True(t, elig.AlreadyRated)
	assert.Equal(t, "already rated", elig.Reason)
}

func TestCreateValidatesScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	for _, score := range []int{0, -1, 6, 100} {
		_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: score})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr, "score %d should be rejected", score)
	}
}

func TestCreateValidatesCommentLength(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	long := make([]byte, maxCommentLen+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{
		SellerID: seller.ID,
		Score:    5,
		Comment:  string(long),
	})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestCreateSelfRatingRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := createUser(t, db, "alice")

	_, err := svc.Create(user.ID, models.CreateRatingRequest{SellerID: user.ID, Score: 5})
	assert.ErrorIs(t, err, ErrSelfRating)
}

func TestCreateWithoutMessageExchangeRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")

	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestCreateDuplicateReturnsDuplicateError(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)

	_, err = svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 3})
	assert.ErrorIs(t, err, ErrDuplicate)

	var count int64
	require.NoError(t, db.Model(&models.Rating{}).
		Where("seller_id = ? AND rater_id = ?", seller.ID, buyer.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "exactly one rating row must exist")
}

func TestUniqueConstraintTranslatesToDuplicatedKey(t *testing.T) {
	db := newTestDB(t)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")

	first := models.Rating{SellerID: seller.ID, RaterID: buyer.ID, Score: 5}
	require.NoError(t, db.Create(&first).Error)

	// Simulate the losing side of a concurrent duplicate create: the insert
	// bypasses the eligibility pre-check and hits the constraint directly.
	second := models.Rating{SellerID: seller.ID, RaterID: buyer.ID, Score: 4}
	err := db.Create(&second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreateWithMissingListingRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	missing := 12345
	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{
		SellerID:  seller.ID,
		ListingID: &missing,
		Score:     5,
	})
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestCreateUpdatesSellerAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)

	got := loadSeller(t, db, seller.ID)
	assert.Equal(t, 1, got.TotalRatings)
	assert.Equal(t, 1, got.PositiveRatings)
	assert.InDelta(t, 5.0, got.SellerRating, scoreEpsilon)
}

func TestUpdateOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	other := createUser(t, db, "mallory")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	rating, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)

	newScore := 1
	_, err = svc.Update(other.ID, rating.ID, models.UpdateRatingRequest{Score: &newScore})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateRecomputesAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	rating, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)

	// Dropping from 5 to 2 stars flips the positive count.
	newScore := 2
	updated, err := svc.Update(buyer.ID, rating.ID, models.UpdateRatingRequest{Score: &newScore})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Score)

	got := loadSeller(t, db, seller.ID)
	assert.Equal(t, 1, got.TotalRatings)
	assert.Equal(t, 0, got.PositiveRatings)
	assert.InDelta(t, 0.0, got.SellerRating, scoreEpsilon)
}

func TestUpdateMissingRating(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")

	newScore := 3
	_, err := svc.Update(buyer.ID, 9999, models.UpdateRatingRequest{Score: &newScore})
	assert.ErrorIs(t, err, ErrRatingNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	other := createUser(t, db, "mallory")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	rating, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 4})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(other.ID, rating.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(buyer.ID, rating.ID))
}

func TestDeleteOnlyRatingResetsAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	buyer := createUser(t, db, "alice")
	seller := createUser(t, db, "bob")
	exchangeMessages(t, db, buyer.ID, seller.ID)

	rating, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: 5})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(buyer.ID, rating.ID))

	got := loadSeller(t, db, seller.ID)
	assert.Equal(t, 0, got.TotalRatings)
	assert.Equal(t, 0, got.PositiveRatings)
	assert.InDelta(t, 0.0, got.SellerRating, scoreEpsilon)
}

func TestAggregateScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	seller := createUser(t, db, "bob")

	// Seller with ratings [5,5,4,3,2]: 3 of 5 are positive (score >= 4),
	// so the seller rating is 3/5*5 = 3.0.
	for i, score := range []int{5, 5, 4, 3, 2} {
		buyer := createUser(t, db, fmt.Sprintf("buyer%d", i))
		exchangeMessages(t, db, buyer.ID, seller.ID)
		_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: score})
		require.NoError(t, err)
	}

	got := loadSeller(t, db, seller.ID)
	assert.Equal(t, 5, got.TotalRatings)
	assert.Equal(t, 3, got.PositiveRatings)
	assert.InDelta(t, 3.0, got.SellerRating, scoreEpsilon)
}

func TestAggregateInvariantAfterMixedOperations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	seller := createUser(t, db, "bob")

	var ratingIDs []int
	for i, score := range []int{1, 2, 3, 4, 5, 5, 4} {
		buyer := createUser(t, db, fmt.Sprintf("buyer%d", i))
		exchangeMessages(t, db, buyer.ID, seller.ID)
		rating, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: score})
		require.NoError(t, err)
		ratingIDs = append(ratingIDs, rating.ID)
	}

	// Mutate a couple and delete one.
	newScore := 5
	var first models.Rating
	require.NoError(t, db.First(&first, ratingIDs[0]).Error)
	_, err := svc.Update(first.RaterID, first.ID, models.UpdateRatingRequest{Score: &newScore})
	require.NoError(t, err)

	var last models.Rating
	require.NoError(t, db.First(&last, ratingIDs[len(ratingIDs)-1]).Error)
	require.NoError(t, svc.Delete(last.RaterID, last.ID))

	got := loadSeller(t, db, seller.ID)
	assert.LessOrEqual(t, got.PositiveRatings, got.TotalRatings)
	if got.TotalRatings > 0 {
		expected := float64(got.PositiveRatings) / float64(got.TotalRatings) * 5
		assert.InDelta(t, expected, got.SellerRating, scoreEpsilon)
	} else {
		assert.Zero(t, got.SellerRating)
	}
}

func TestSellerScoreNewSeller(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	seller := createUser(t, db, "bob")

	score, err := svc.SellerScore(seller.ID)
	require.NoError(t, err)
	assert.True(t, score.NewSeller)
	assert.Zero(t, score.TotalRatings)
	assert.Zero(t, score.SellerRating)
}

func TestSellerScoreMissingSeller(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.SellerScore(9999)
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestDistribution(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	seller := createUser(t, db, "bob")

	for i, score := range []int{5, 5, 4, 3, 2} {
		buyer := createUser(t, db, fmt.Sprintf("buyer%d", i))
		exchangeMessages(t, db, buyer.ID, seller.ID)
		_, err := svc.Create(buyer.ID, models.CreateRatingRequest{SellerID: seller.ID, Score: score})
		require.NoError(t, err)
	}

	dist, err := svc.Distribution(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{1: 0, 2: 1, 3: 1, 4: 1, 5: 2}, dist)
}

func TestListForSellerIncludesRater(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	seller := createUser(t, db, "bob")

	for i, score := range []int{3, 5} {
		buyer := createUser(t, db, fmt.Sprintf("buyer%d", i))
		exchangeMessages(t, db, buyer.ID, seller.ID)
		_, err := svc.Create(buyer.ID, models.CreateRatingRequest{
			SellerID: seller.ID,
			Score:    score,
			Comment:  "great",
		})
		require.NoError(t, err)
	}

	list, err := svc.ListForSeller(seller.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].Rater.Username)
}
