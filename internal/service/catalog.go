package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/voltmart/storefront/internal/dto"
	"github.com/voltmart/storefront/internal/model"
	"github.com/voltmart/storefront/internal/repository"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const productCacheTTL = 60 * time.Second

// CatalogService is the read-only storefront view: active products only.
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	redisClient  *redis.Client
}

func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{productRepo: productRepo, categoryRepo: categoryRepo, redisClient: redisClient}
}

func (s *CatalogService) ListProducts(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	filter := repository.ProductFilter{
		ActiveOnly: true,
		Search:     req.Search,
		Sort:       req.Sort,
		Limit:      req.Limit,
		Offset:     (req.Page - 1) * req.Limit,
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, ErrCategoryNotFound
		}
		filter.CategoryID = &categoryID
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return &resp, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) (*dto.CategoryListResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}
	return &dto.CategoryListResponse{Categories: items}, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		StockQuantity:  p.StockQuantity,
		InStock:        p.InStock(),
		ImageURL:       p.ImageURL,
		Brand:          p.Brand,
		Model:          p.Model,
		Specifications: p.Specifications,
		IsActive:       p.IsActive,
		CategoryID:     p.CategoryID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		CreatedAt:   c.CreatedAt,
	}
}
