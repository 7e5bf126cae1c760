package db

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment statuses an order moves through. The gateway integration only
// walks forward: pending -> authorized -> paid, any of which may be
// cancelled. Refund/void states are owned elsewhere and never set here.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusPaid       = "paid"
	PaymentStatusCancelled  = "cancelled"
)

type Order struct {
	gorm.Model
	OrderGUID     string `gorm:"uniqueIndex;size:36"` // correlation id handed to the gateway instead of the sequential id
	StoreID       uint
	CustomerID    uint
	CustomerEmail string
	CurrencyCode  string          `gorm:"size:3"`
	OrderTotal    decimal.Decimal `gorm:"type:decimal(18,2)"`
	PaymentStatus string          `gorm:"index;default:pending"`

	Notes []OrderNote
}

// OrderNote is an append-only audit entry on an order.
type OrderNote struct {
	gorm.Model
	OrderID           uint   `gorm:"index"`
	Note              string `gorm:"type:text"`
	DisplayToCustomer bool
}

// Setting is one configuration value, optionally overridden per store
// scope. StoreID 0 holds the defaults.
type Setting struct {
	gorm.Model
	Name    string `gorm:"size:191;uniqueIndex:idx_setting_scope"`
	StoreID uint   `gorm:"uniqueIndex:idx_setting_scope"`
	Value   string `gorm:"type:text"`
}

// AdminUser can change payment settings through the admin API.
type AdminUser struct {
	gorm.Model
	Email    string `gorm:"unique"`
	Password string // bcrypt hash
}
