package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User identities come from the OAuth provider, so the primary key is the
// provider-assigned subject string rather than a UUID minted here.
type User struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	IsAdmin         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName falls back through the name parts the provider may or may not send.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	case u.Email != "":
		return u.Email
	}
	return "User"
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	Icon        string
	CreatedAt   time.Time
}

type Product struct {
	ID             uuid.UUID
	Name           string
	Description    string
	Price          decimal.Decimal
	StockQuantity  int
	ImageURL       string
	Brand          string
	Model          string
	Specifications string
	IsActive       bool
	CategoryID     uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InStock is always derived from the stock counter, never stored.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// CartItem holds the pending quantity for one (user, product) pair.
// Product is populated on joined reads and carries the current catalog row.
type CartItem struct {
	ID        uuid.UUID
	UserID    string
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	Product   *Product
}

// TotalPrice reflects the current product price, not the price at add time.
func (ci *CartItem) TotalPrice() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          string
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	PhoneNumber     string
	Notes           string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem snapshots the product price at order time; later catalog price
// changes never affect a placed order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

func (oi *OrderItem) TotalPrice() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

type DashboardStats struct {
	Products      int
	Orders        int
	Users         int
	PendingOrders int
}

// OrderPlacedMessage is published after a checkout commits.
type OrderPlacedMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  string    `json:"user_id"`
}
