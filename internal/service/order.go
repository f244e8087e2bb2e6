package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/voltmart/storefront/internal/dto"
	"github.com/voltmart/storefront/internal/model"
	"github.com/voltmart/storefront/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrValidation        = errors.New("missing required checkout fields")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")

	// ErrInsufficientStock surfaces the transactional stock floor check.
	ErrInsufficientStock = repository.ErrInsufficientStock
)

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	amqpCh    *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, cartRepo: cartRepo, amqpCh: amqpCh}
}

// PlaceOrder converts the user's cart into an order. Validation happens
// before any mutation; the order insert, item inserts, stock decrements, and
// cart clearing then commit together or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req dto.PlaceOrderRequest) (*model.Order, error) {
	if strings.TrimSpace(req.ShippingAddress) == "" || strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, ErrValidation
	}

	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(cartItems))
	for i := range cartItems {
		ci := &cartItems[i]
		total = total.Add(ci.TotalPrice())
		items = append(items, model.OrderItem{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     ci.Product.Price,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		TotalAmount:     total,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
		Items:           items,
	}
	if err := s.orderRepo.PlaceOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.publishPlaced(ctx, order)
	return order, nil
}

// publishPlaced is best effort: the order is already durable, a lost event
// only delays fulfillment.
func (s *OrderService) publishPlaced(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.OrderPlacedMessage{OrderID: order.ID, UserID: order.UserID})
	_ = s.amqpCh.PublishWithContext(ctx, "", "orders", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}

func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, userID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}
