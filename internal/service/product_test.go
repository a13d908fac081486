package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
)

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
	lookups  int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

// add stores a product with the given price and returns its id.
func (m *mockProductRepo) add(name, price string) uuid.UUID {
	id := uuid.New()
	m.products[id] = &model.Product{
		ID: id, Name: name, Brand: defaultBrand,
		Price: decimal.RequireFromString(price), CountInStock: 100,
	}
	return id
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.lookups++
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	m.lookups++
	out := make(map[uuid.UUID]*model.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context, limit, offset int, _, _, _ string) ([]model.Product, int, error) {
	var all []model.Product
	for _, p := range m.products {
		all = append(all, *p)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) BeginTx(context.Context) (pgx.Tx, error) { return nil, nil }

func (m *mockProductRepo) AdjustStock(_ context.Context, _ pgx.Tx, id uuid.UUID, delta int) error {
	if p, ok := m.products[id]; ok {
		p.CountInStock += delta
	}
	return nil
}

func (m *mockProductRepo) RecordStockEvent(context.Context, pgx.Tx, uuid.UUID, string) (bool, error) {
	return true, nil
}

func (m *mockProductRepo) HasStockEvent(context.Context, pgx.Tx, uuid.UUID, string) (bool, error) {
	return false, nil
}

func TestProductService_Create(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)

	sale := decimal.NewFromInt(20)
	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Widget", Description: "A widget",
		Price: decimal.NewFromInt(25), DiscountPrice: &sale, CountInStock: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget", resp.Name)
	assert.Equal(t, defaultBrand, resp.Brand)
	assert.True(t, sale.Equal(resp.EffectivePrice))
	assert.Len(t, repo.products, 1)
}

func TestProductService_Create_NegativePrice(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Bad", Description: "x", Price: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_UpdatePartial(t *testing.T) {
	repo := newMockProductRepo()
	id := repo.add("Old", "10")
	svc := NewProductService(repo, nil)

	name := "New"
	resp, err := svc.Update(context.Background(), id, dto.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", resp.Name)
	assert.True(t, decimal.NewFromInt(10).Equal(resp.Price))
	assert.Equal(t, "New", repo.products[id].Name)
}

func TestProductService_Delete(t *testing.T) {
	repo := newMockProductRepo()
	id := repo.add("Gone", "10")
	svc := NewProductService(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.Empty(t, repo.products)
	assert.ErrorIs(t, svc.Delete(context.Background(), id), ErrProductNotFound)
}

func TestProductService_SetStock(t *testing.T) {
	repo := newMockProductRepo()
	id := repo.add("Boots", "80")
	svc := NewProductService(repo, nil)

	resp, err := svc.SetStock(context.Background(), id, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, resp.CountInStock)
	assert.Equal(t, "Boots", repo.products[id].Name)
	assert.Equal(t, 42, repo.products[id].CountInStock)

	_, err = svc.SetStock(context.Background(), id, -1)
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, 42, repo.products[id].CountInStock)

	_, err = svc.SetStock(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
