package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmart/storefront/internal/model"
)

// mockCartRepo joins against a shared product map the way the real
// repository joins against the products table.
type mockCartRepo struct {
	items    map[uuid.UUID]*model.CartItem
	products map[uuid.UUID]*model.Product
	seq      int
}

func newMockCartRepo(products map[uuid.UUID]*model.Product) *mockCartRepo {
	return &mockCartRepo{items: make(map[uuid.UUID]*model.CartItem), products: products}
}

func (m *mockCartRepo) withProduct(item *model.CartItem) *model.CartItem {
	joined := *item
	if p, ok := m.products[item.ProductID]; ok {
		joined.Product = p
	}
	return &joined
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID string) ([]model.CartItem, error) {
	var items []model.CartItem
	for _, item := range m.items {
		if item.UserID == userID {
			items = append(items, *m.withProduct(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *mockCartRepo) GetItem(_ context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, nil
	}
	return m.withProduct(item), nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			item.ID = existing.ID
			item.Quantity = existing.Quantity
			return nil
		}
	}
	item.ID = uuid.New()
	m.seq++
	item.CreatedAt = time.Unix(int64(m.seq), 0)
	stored := *item
	m.items[stored.ID] = &stored
	return nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if item, ok := m.items[itemID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID string) error {
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

func TestCartService_AddItem(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)

	err := svc.AddItem(context.Background(), "user-1", p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, cartRepo.items, 1)
}

func TestCartService_AddItem_SamePairIncrements(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)

	require.NoError(t, svc.AddItem(context.Background(), "user-1", p.ID, 2))
	require.NoError(t, svc.AddItem(context.Background(), "user-1", p.ID, 3))

	require.Len(t, cartRepo.items, 1, "duplicate (user, product) must not create a second row")
	for _, item := range cartRepo.items {
		assert.Equal(t, 5, item.Quantity)
	}
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	productRepo := newMockProductRepo()
	svc := NewCartService(newMockCartRepo(productRepo.products), productRepo)
	err := svc.AddItem(context.Background(), "user-1", uuid.New(), 2)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddItem_OutOfStock(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Scarce", "", "10.00", 3, true)
	inactive := seedProduct(productRepo, "Retired", "", "10.00", 50, false)
	depleted := seedProduct(productRepo, "Gone", "", "10.00", 0, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddItem(ctx, "user-1", p.ID, 4), ErrOutOfStock)
	assert.ErrorIs(t, svc.AddItem(ctx, "user-1", inactive.ID, 1), ErrOutOfStock)
	assert.ErrorIs(t, svc.AddItem(ctx, "user-1", depleted.ID, 1), ErrOutOfStock)
	assert.Empty(t, cartRepo.items, "failed adds must leave the cart unchanged")
}

func TestCartService_SetQuantity(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "user-1", p.ID, 2))
	var itemID uuid.UUID
	for id := range cartRepo.items {
		itemID = id
	}

	require.NoError(t, svc.SetQuantity(ctx, "user-1", itemID, 7))
	assert.Equal(t, 7, cartRepo.items[itemID].Quantity)
}

func TestCartService_SetQuantity_ZeroRemoves(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "user-1", p.ID, 2))
	var itemID uuid.UUID
	for id := range cartRepo.items {
		itemID = id
	}

	require.NoError(t, svc.SetQuantity(ctx, "user-1", itemID, 0))
	assert.Empty(t, cartRepo.items)
}

func TestCartService_SetQuantity_ForeignItem(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "user-1", p.ID, 2))
	var itemID uuid.UUID
	for id := range cartRepo.items {
		itemID = id
	}

	err := svc.SetQuantity(ctx, "intruder", itemID, 5)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Equal(t, 2, cartRepo.items[itemID].Quantity)
}

func TestCartService_RemoveItem_ForeignItem(t *testing.T) {
	productRepo := newMockProductRepo()
	p := seedProduct(productRepo, "Widget", "", "10.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "user-1", p.ID, 2))

	err := svc.RemoveItem(ctx, "intruder", uuid.New())
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Len(t, cartRepo.items, 1)
}

func TestCartService_GetCart_TotalTracksCurrentPrice(t *testing.T) {
	productRepo := newMockProductRepo()
	a := seedProduct(productRepo, "A", "", "10.00", 100, true)
	b := seedProduct(productRepo, "B", "", "5.00", 100, true)
	cartRepo := newMockCartRepo(productRepo.products)
	svc := NewCartService(cartRepo, productRepo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "user-1", a.ID, 2))
	require.NoError(t, svc.AddItem(ctx, "user-1", b.ID, 1))

	resp, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("25.00")), "got %s", resp.Total)

	// A price change is reflected on the next read; nothing is frozen.
	a.Price = decimal.RequireFromString("12.00")
	resp, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("29.00")), "got %s", resp.Total)
}
