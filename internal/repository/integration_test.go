package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmart/storefront/internal/model"
)

func cleanupAll(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "categories", "users")
}

func seedUser(t *testing.T, id string) *model.User {
	t.Helper()
	user := &model.User{ID: id, Email: id + "@example.com", FirstName: "Test"}
	require.NoError(t, NewUserRepository(testPool).Upsert(context.Background(), user))
	return user
}

func seedCategory(t *testing.T, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name, Icon: "fa-plug"}
	require.NoError(t, NewCategoryRepository(testPool).Create(context.Background(), category))
	return category
}

func seedProduct(t *testing.T, categoryID uuid.UUID, name, price string, stock int, active bool) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      active,
		CategoryID:    categoryID,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), p))
	return p
}

func TestUserRepo_UpsertKeepsAdminFlag(t *testing.T) {
	cleanupAll(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{ID: "sub-1", Email: "a@example.com"}
	require.NoError(t, repo.Upsert(ctx, user))
	assert.False(t, user.IsAdmin)

	_, err := testPool.Exec(ctx, `UPDATE users SET is_admin = TRUE WHERE id = 'sub-1'`)
	require.NoError(t, err)

	again := &model.User{ID: "sub-1", Email: "b@example.com", FirstName: "Renamed"}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.True(t, again.IsAdmin, "profile refresh must not clear the admin flag")

	found, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Renamed", found.FirstName)
}

func TestProductRepo_ListFilters(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	electronics := seedCategory(t, "Electronics")
	other := seedCategory(t, "Other")

	seedProduct(t, electronics.ID, "Volt Charger", "25.00", 10, true)
	seedProduct(t, electronics.ID, "Hidden Cable", "5.00", 10, false)
	seedProduct(t, other.ID, "Notebook", "3.00", 10, true)

	repo := NewProductRepository(testPool)

	products, total, err := repo.List(ctx, ProductFilter{ActiveOnly: true, Sort: SortName, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)

	categoryID := electronics.ID
	products, total, err = repo.List(ctx, ProductFilter{ActiveOnly: true, CategoryID: &categoryID, Sort: SortName, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Volt Charger", products[0].Name)

	_, total, err = repo.List(ctx, ProductFilter{Search: "volt", Sort: SortName, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCartRepo_AddItemUpserts(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	user := seedUser(t, "cart-user")
	category := seedCategory(t, "Electronics")
	product := seedProduct(t, category.ID, "Charger", "25.00", 10, true)

	repo := NewCartRepository(testPool)

	first := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.AddItem(ctx, first))

	second := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 3}
	require.NoError(t, repo.AddItem(ctx, second))
	assert.Equal(t, first.ID, second.ID, "same (user, product) must reuse the row")
	assert.Equal(t, 5, second.Quantity)

	items, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.True(t, items[0].Product.Price.Equal(decimal.RequireFromString("25.00")))
}

func TestOrderRepo_PlaceOrder(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	user := seedUser(t, "buyer")
	category := seedCategory(t, "Electronics")
	productA := seedProduct(t, category.ID, "A", "10.00", 5, true)
	productB := seedProduct(t, category.ID, "B", "5.00", 5, true)

	cartRepo := NewCartRepository(testPool)
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{UserID: user.ID, ProductID: productA.ID, Quantity: 2}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{UserID: user.ID, ProductID: productB.ID, Quantity: 1}))

	orderRepo := NewOrderRepository(testPool)
	order := &model.Order{
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.RequireFromString("25.00"),
		ShippingAddress: "1 Infinite Loop",
		PhoneNumber:     "+1 555 0100",
		Items: []model.OrderItem{
			{ProductID: productA.ID, Quantity: 2, Price: productA.Price},
			{ProductID: productB.ID, Quantity: 1, Price: productB.Price},
		},
	}
	require.NoError(t, orderRepo.PlaceOrder(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.NotEmpty(t, order.OrderNumber)

	productRepo := NewProductRepository(testPool)
	a, _ := productRepo.GetByID(ctx, productA.ID)
	b, _ := productRepo.GetByID(ctx, productB.ID)
	assert.Equal(t, 3, a.StockQuantity)
	assert.Equal(t, 4, b.StockQuantity)

	items, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "checkout must clear the cart")

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Items, 2)

	sum := decimal.Zero
	for i := range found.Items {
		sum = sum.Add(found.Items[i].TotalPrice())
	}
	assert.True(t, sum.Equal(found.TotalAmount))
}

func TestOrderRepo_PlaceOrder_RollsBackOnInsufficientStock(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	user := seedUser(t, "buyer")
	category := seedCategory(t, "Electronics")
	productA := seedProduct(t, category.ID, "A", "10.00", 5, true)
	productB := seedProduct(t, category.ID, "B", "5.00", 1, true)

	cartRepo := NewCartRepository(testPool)
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{UserID: user.ID, ProductID: productA.ID, Quantity: 2}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{UserID: user.ID, ProductID: productB.ID, Quantity: 1}))

	orderRepo := NewOrderRepository(testPool)
	order := &model.Order{
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.RequireFromString("30.00"),
		ShippingAddress: "1 Infinite Loop",
		PhoneNumber:     "+1 555 0100",
		Items: []model.OrderItem{
			{ProductID: productA.ID, Quantity: 2, Price: productA.Price},
			// Second line asks for more than is available.
			{ProductID: productB.ID, Quantity: 2, Price: productB.Price},
		},
	}
	err := orderRepo.PlaceOrder(ctx, order)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing from the failed checkout may be visible.
	productRepo := NewProductRepository(testPool)
	a, _ := productRepo.GetByID(ctx, productA.ID)
	assert.Equal(t, 5, a.StockQuantity, "earlier decrements in the same transaction must roll back")

	items, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2, "cart must survive a failed checkout")

	var orderCount int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Zero(t, orderCount)
}

func TestOrderRepo_PlaceOrder_ConcurrentLastUnit(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	category := seedCategory(t, "Electronics")
	product := seedProduct(t, category.ID, "Last Unit", "99.00", 1, true)

	orderRepo := NewOrderRepository(testPool)

	placeFor := func(userID string) error {
		return orderRepo.PlaceOrder(ctx, &model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     product.Price,
			ShippingAddress: "1 Infinite Loop",
			PhoneNumber:     "+1 555 0100",
			Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: product.Price}},
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, userID := range []string{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			results[i] = placeFor(userID)
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one buyer gets the last unit")

	final, err := NewProductRepository(testPool).GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.StockQuantity, "stock must never go negative")
}

func TestOrderRepo_UpdateStatusAndList(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	user := seedUser(t, "buyer")
	category := seedCategory(t, "Electronics")
	product := seedProduct(t, category.ID, "A", "10.00", 5, true)

	orderRepo := NewOrderRepository(testPool)
	order := &model.Order{
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		TotalAmount:     product.Price,
		ShippingAddress: "1 Infinite Loop",
		PhoneNumber:     "+1 555 0100",
		Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, orderRepo.PlaceOrder(ctx, order))

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing))
	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, found.Status)

	orders, err := orderRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.OrderNumber, orders[0].OrderNumber)
}

func TestStatsRepo_Dashboard(t *testing.T) {
	cleanupAll(t)
	ctx := context.Background()
	user := seedUser(t, "buyer")
	category := seedCategory(t, "Electronics")
	product := seedProduct(t, category.ID, "A", "10.00", 5, true)

	orderRepo := NewOrderRepository(testPool)
	require.NoError(t, orderRepo.PlaceOrder(ctx, &model.Order{
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		TotalAmount:     product.Price,
		ShippingAddress: "1 Infinite Loop",
		PhoneNumber:     "+1 555 0100",
		Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: product.Price}},
	}))

	stats, err := NewStatsRepository(testPool).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.PendingOrders)
}
