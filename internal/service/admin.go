package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltmart/storefront/internal/dto"
	"github.com/voltmart/storefront/internal/model"
	"github.com/voltmart/storefront/internal/repository"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type AdminService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	statsRepo    repository.StatsRepository
}

func NewAdminService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, orderRepo repository.OrderRepository, statsRepo repository.StatsRepository) *AdminService {
	return &AdminService{productRepo: productRepo, categoryRepo: categoryRepo, orderRepo: orderRepo, statsRepo: statsRepo}
}

// ListProducts shows the full catalog (inactive included), newest first.
func (s *AdminService) ListProducts(ctx context.Context, page, limit int) (*dto.ProductListResponse, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Sort:   repository.SortNewest,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: page, Limit: limit}, nil
}

// CreateProduct coerces numeric input instead of rejecting it: an absent or
// unparsable price or stock silently becomes zero.
func (s *AdminService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		price = decimal.Zero
	}
	stock, err := strconv.Atoi(req.StockQuantity)
	if err != nil || stock < 0 {
		stock = 0
	}

	product := &model.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          price,
		StockQuantity:  stock,
		ImageURL:       req.ImageURL,
		Brand:          req.Brand,
		Model:          req.Model,
		Specifications: req.Specifications,
		IsActive:       true,
		CategoryID:     categoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *AdminService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	stats, err := s.statsRepo.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &dto.DashboardResponse{
		Products:      stats.Products,
		Orders:        stats.Orders,
		Users:         stats.Users,
		PendingOrders: stats.PendingOrders,
	}, nil
}

func (s *AdminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if !model.CanTransition(order.Status, next) {
		return ErrInvalidTransition
	}
	return s.orderRepo.UpdateStatus(ctx, orderID, next)
}
