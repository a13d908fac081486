package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
)

// mockReviewRepo mirrors the aggregate refresh of the real repository into
// the product mock.
type mockReviewRepo struct {
	reviews  map[uuid.UUID]*model.Review
	products *mockProductRepo
}

func newMockReviewRepo(products *mockProductRepo) *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[uuid.UUID]*model.Review), products: products}
}

func (m *mockReviewRepo) refresh(productID uuid.UUID) {
	p, ok := m.products.products[productID]
	if !ok {
		return
	}
	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			n++
		}
	}
	p.NumReviews = n
	p.Rating = decimal.Zero
	if n > 0 {
		p.Rating = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n)))
	}
}

func (m *mockReviewRepo) Upsert(_ context.Context, review *model.Review) (bool, error) {
	defer m.refresh(review.ProductID)
	for _, r := range m.reviews {
		if r.ProductID == review.ProductID && r.UserID == review.UserID {
			r.Rating, r.Comment, r.UpdatedAt = review.Rating, review.Comment, time.Now()
			*review = *r
			return false, nil
		}
	}
	review.ID = uuid.New()
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	m.reviews[review.ID] = &cp
	return true, nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, productID, reviewID uuid.UUID) (*model.Review, error) {
	r, ok := m.reviews[reviewID]
	if !ok || r.ProductID != productID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Delete(_ context.Context, productID, reviewID uuid.UUID) error {
	r, ok := m.reviews[reviewID]
	if !ok || r.ProductID != productID {
		return pgx.ErrNoRows
	}
	delete(m.reviews, reviewID)
	m.refresh(productID)
	return nil
}

func (m *mockReviewRepo) Distribution(_ context.Context, productID uuid.UUID) (map[int]int, error) {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range m.reviews {
		if r.ProductID == productID {
			dist[r.Rating]++
		}
	}
	return dist, nil
}

type reviewFixture struct {
	svc      *ReviewService
	reviews  *mockReviewRepo
	products *mockProductRepo
	users    *mockUserRepo
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{products: newMockProductRepo(), users: newMockUserRepo()}
	f.reviews = newMockReviewRepo(f.products)
	f.svc = NewReviewService(f.reviews, f.products, f.users, nil)
	return f
}

func TestReviewService_UpsertRecomputesRating(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	pid := f.products.add("Lamp", "40")
	alice := f.users.add(&model.User{Email: "a@example.com", FirstName: "Alice", LastName: "Smith"})
	bob := f.users.add(&model.User{Email: "b@example.com", FirstName: "Bob"})

	review, created, err := f.svc.Upsert(ctx, pid, alice.ID, dto.ReviewRequest{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Alice Smith", review.Name)
	assert.Equal(t, "great", review.Comment)

	_, _, err = f.svc.Upsert(ctx, pid, bob.ID, dto.ReviewRequest{Rating: 2, Comment: "meh"})
	require.NoError(t, err)

	_, created, err = f.svc.Upsert(ctx, pid, bob.ID, dto.ReviewRequest{Rating: 4, Comment: "grew on me"})
	require.NoError(t, err)
	assert.False(t, created)

	summary, err := f.svc.Summary(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NumReviews)
	assert.True(t, decimal.RequireFromString("4.5").Equal(summary.Rating))
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1}, summary.Distribution)
}

func TestReviewService_Upsert_Errors(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	user := f.users.add(&model.User{Email: "a@example.com", FirstName: "A"})

	_, _, err := f.svc.Upsert(ctx, uuid.New(), user.ID, dto.ReviewRequest{Rating: 3, Comment: "x"})
	assert.ErrorIs(t, err, ErrProductNotFound)

	pid := f.products.add("Lamp", "40")
	_, _, err = f.svc.Upsert(ctx, pid, user.ID, dto.ReviewRequest{Rating: 6, Comment: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = f.svc.Upsert(ctx, pid, uuid.New(), dto.ReviewRequest{Rating: 3, Comment: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReviewService_Delete(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	pid := f.products.add("Lamp", "40")
	author := f.users.add(&model.User{Email: "a@example.com", FirstName: "A"})

	review, _, err := f.svc.Upsert(ctx, pid, author.ID, dto.ReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, pid, review.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, pid, review.ID, uuid.New(), true))
	assert.Equal(t, 0, f.products.products[pid].NumReviews)

	err = f.svc.Delete(ctx, pid, review.ID, author.ID, false)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_List(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	pid := f.products.add("Lamp", "40")
	user := f.users.add(&model.User{Email: "a@example.com", FirstName: "A"})

	_, _, err := f.svc.Upsert(ctx, pid, user.ID, dto.ReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	reviews, err := f.svc.List(ctx, pid)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	_, err = f.svc.List(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
