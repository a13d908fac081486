package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/model"
)

func createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "h", FirstName: "Test", LastName: "User", Role: model.RoleCustomer}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createProduct(t *testing.T, name string, price float64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name: name, Description: "D", Brand: "Generic",
		Price: decimal.NewFromFloat(price), CountInStock: 10,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), p))
	return p
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupAll(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createUser(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	err = repo.Create(ctx, &model.User{Email: "test@example.com", Password: "h", FirstName: "X", Role: model.RoleCustomer})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepo_ProfileAndLogin(t *testing.T) {
	cleanupAll(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createUser(t, "jane@example.com")
	createUser(t, "taken@example.com")
	assert.Nil(t, user.LastLoginAt)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordLogin(ctx, user.ID, at))

	user.FirstName, user.LastName = "Jane", "Roe"
	require.NoError(t, repo.UpdateProfile(ctx, user))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", found.DisplayName())
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, at.Equal(*found.LastLoginAt))

	user.Email = "taken@example.com"
	assert.ErrorIs(t, repo.UpdateProfile(ctx, user), ErrEmailTaken)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupAll(t)
	repo := NewProductRepository(testPool)
	ctx := context.Background()

	product := createProduct(t, "Test", 29.99)
	assert.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test", found.Name)
	assert.True(t, product.Price.Equal(found.Price))
	assert.False(t, found.DiscountPrice.Valid)

	found.Name = "Updated"
	found.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(20))
	require.NoError(t, repo.Update(ctx, found))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)
	assert.True(t, decimal.NewFromInt(20).Equal(found.EffectivePrice()))

	products, total, err := repo.List(ctx, 10, 0, "upd", "name", "asc")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_GetByIDsSkipsMissing(t *testing.T) {
	cleanupAll(t)
	repo := NewProductRepository(testPool)

	p := createProduct(t, "A", 10)
	got, err := repo.GetByIDs(context.Background(), []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, p.ID)
}

func TestProductRepo_AdjustStock(t *testing.T) {
	cleanupAll(t)
	repo := NewProductRepository(testPool)
	ctx := context.Background()
	p := createProduct(t, "Stocked", 5)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.AdjustStock(ctx, tx, p.ID, -4))
	require.NoError(t, repo.AdjustStock(ctx, tx, uuid.New(), -1))
	err = repo.AdjustStock(ctx, tx, p.ID, -7)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Commit(ctx))

	found, _ := repo.GetByID(ctx, p.ID)
	assert.Equal(t, 6, found.CountInStock)
}

func TestProductRepo_StockEvents(t *testing.T) {
	cleanupAll(t)
	repo := NewProductRepository(testPool)
	ctx := context.Background()
	orderID := uuid.New()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	fresh, err := repo.RecordStockEvent(ctx, tx, orderID, model.OrderEventPlaced)
	require.NoError(t, err)
	assert.True(t, fresh)
	has, err := repo.HasStockEvent(ctx, tx, orderID, model.OrderEventPlaced)
	require.NoError(t, err)
	assert.True(t, has)
	require.NoError(t, tx.Commit(ctx))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	fresh, err = repo.RecordStockEvent(ctx, tx, orderID, model.OrderEventPlaced)
	require.NoError(t, err)
	assert.False(t, fresh)
	has, err = repo.HasStockEvent(ctx, tx, orderID, model.OrderEventCancelled)
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, tx.Rollback(ctx))
}

func TestCartRepo_SaveAndGet(t *testing.T) {
	cleanupAll(t)
	repo := NewCartRepository(testPool)
	ctx := context.Background()
	userID := uuid.New()

	missing, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	cart := model.NewCart(userID)
	cart.Items = append(cart.Items, model.CartItem{
		ID: uuid.New(), ProductID: uuid.New(), Quantity: 2,
		SelectedSize: "M", SelectedColor: "Red", PriceAtTime: decimal.RequireFromString("12.50"),
	})
	cart.Coupon = &model.Coupon{Code: "SAVE10", DiscountPercent: decimal.NewFromInt(10)}
	cart.Recalculate()
	require.NoError(t, repo.Save(ctx, cart))
	assert.NotEqual(t, uuid.Nil, cart.ID)

	found, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("12.5").Equal(found.Items[0].PriceAtTime))
	require.NotNil(t, found.Coupon)
	assert.Equal(t, "SAVE10", found.Coupon.Code)
	assert.True(t, decimal.RequireFromString("22.5").Equal(found.Total))

	found.Empty()
	require.NoError(t, repo.Save(ctx, found))
	assert.Equal(t, cart.ID, found.ID)

	found, err = repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, found.Items)
	assert.Nil(t, found.Coupon)
}

func newTestOrder(userID uuid.UUID, ref string) *model.Order {
	return &model.Order{
		UserID:         userID,
		ClientOrderRef: ref,
		Items: []model.OrderItem{{
			ID: uuid.New(), ProductID: uuid.New(), Quantity: 2,
			SelectedSize: "M", SelectedColor: "Default", PriceAtTime: decimal.NewFromInt(25),
		}},
		ShippingAddress: model.Address{FullName: "A", Address: "B", City: "C", Country: "India", PostalCode: "1", Phone: "2"},
		PaymentInfo:     model.PaymentInfo{Method: model.DefaultPaymentMethod, Status: model.PaymentStatusPending},
		Subtotal:        decimal.NewFromInt(50),
		TotalPrice:      decimal.NewFromInt(50),
		Status:          model.OrderStatusPending,
	}
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	cleanupAll(t)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()
	userID := uuid.New()

	order := newTestOrder(userID, "")
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(found.Items[0].PriceAtTime))
	assert.Nil(t, found.ReturnRequest)
	assert.Empty(t, found.ClientOrderRef)

	// orders without a client ref never collide
	require.NoError(t, repo.Create(ctx, newTestOrder(userID, "")))
}

func TestOrderRepo_DuplicateClientRef(t *testing.T) {
	cleanupAll(t)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()
	userID := uuid.New()

	first := newTestOrder(userID, "ref-1")
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newTestOrder(userID, "ref-1"))
	assert.ErrorIs(t, err, ErrDuplicateClientRef)

	// the same ref is free for another user
	require.NoError(t, repo.Create(ctx, newTestOrder(uuid.New(), "ref-1")))

	found, err := repo.GetByClientRef(ctx, userID, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestOrderRepo_UpdateListAndStats(t *testing.T) {
	cleanupAll(t)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()
	userID := uuid.New()

	a := newTestOrder(userID, "a")
	b := newTestOrder(userID, "b")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	a.Status = model.OrderStatusCancelled
	a.ReturnRequest = &model.ReturnRequest{Status: model.ReturnStatusRequested, Reason: "size"}
	require.NoError(t, repo.Update(ctx, a))

	cancelled, err := repo.ListByUserID(ctx, userID, model.OrderStatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	require.NotNil(t, cancelled[0].ReturnRequest)
	assert.Equal(t, "size", cancelled[0].ReturnRequest.Reason)

	all, err := repo.ListByUserID(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, total, err := repo.List(ctx, model.OrderFilter{UserID: userID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 1)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.ByStatus[model.OrderStatusPending])
	assert.True(t, decimal.NewFromInt(100).Equal(stats.TotalRevenue))
}

func TestReviewRepo_UpsertRefreshesRating(t *testing.T) {
	cleanupAll(t)
	repo := NewReviewRepository(testPool)
	products := NewProductRepository(testPool)
	ctx := context.Background()

	p := createProduct(t, "Reviewed", 10)
	u1 := createUser(t, "r1@example.com")
	u2 := createUser(t, "r2@example.com")

	created, err := repo.Upsert(ctx, &model.Review{ProductID: p.ID, UserID: u1.ID, Name: "R1", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.True(t, created)

	second := &model.Review{ProductID: p.ID, UserID: u2.ID, Name: "R2", Rating: 2, Comment: "meh"}
	_, err = repo.Upsert(ctx, second)
	require.NoError(t, err)

	created, err = repo.Upsert(ctx, &model.Review{ProductID: p.ID, UserID: u2.ID, Name: "R2", Rating: 4, Comment: "better"})
	require.NoError(t, err)
	assert.False(t, created)

	found, _ := products.GetByID(ctx, p.ID)
	assert.Equal(t, 2, found.NumReviews)
	assert.True(t, decimal.RequireFromString("4.5").Equal(found.Rating))

	dist, err := repo.Distribution(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dist[5])
	assert.Equal(t, 1, dist[4])
	assert.Equal(t, 0, dist[2])

	require.NoError(t, repo.Delete(ctx, p.ID, second.ID))
	found, _ = products.GetByID(ctx, p.ID)
	assert.Equal(t, 1, found.NumReviews)
}

func TestWishlistRepo(t *testing.T) {
	cleanupAll(t)
	repo := NewWishlistRepository(testPool)
	ctx := context.Background()

	u := createUser(t, "w@example.com")
	p := createProduct(t, "Wished", 10)

	added, err := repo.Add(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, added)

	list, err := repo.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, repo.Remove(ctx, u.ID, p.ID))
	list, _ = repo.List(ctx, u.ID)
	assert.Empty(t, list)
}
