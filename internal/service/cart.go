package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltmart/storefront/internal/dto"
	"github.com/voltmart/storefront/internal/model"
	"github.com/voltmart/storefront/internal/repository"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOutOfStock       = errors.New("product out of stock")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart totals are derived from the current product prices on every read.
func (s *CartService) GetCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	resp := &dto.CartResponse{Items: make([]dto.CartItemResponse, 0, len(items)), Total: decimal.Zero}
	for i := range items {
		item := &items[i]
		line := item.TotalPrice()
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Product.Name,
			Price:      item.Product.Price,
			Quantity:   item.Quantity,
			TotalPrice: line,
		})
		resp.Total = resp.Total.Add(line)
	}
	return resp, nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if !product.IsActive || !product.InStock() || quantity > product.StockQuantity {
		return ErrOutOfStock
	}

	return s.cartRepo.AddItem(ctx, &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// SetQuantity updates the item, or removes it when the quantity drops to
// zero or below. Items belonging to another user read as not found.
func (s *CartService) SetQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) error {
	if err := s.checkOwnership(ctx, userID, itemID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.cartRepo.DeleteItem(ctx, itemID)
	}
	return s.cartRepo.UpdateQuantity(ctx, itemID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) error {
	if err := s.checkOwnership(ctx, userID, itemID); err != nil {
		return err
	}
	return s.cartRepo.DeleteItem(ctx, itemID)
}

func (s *CartService) checkOwnership(ctx context.Context, userID string, itemID uuid.UUID) error {
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get cart item: %w", err)
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	return nil
}
