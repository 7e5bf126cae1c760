package orders

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/improvgroup/uniteller-payments/events"
	"github.com/improvgroup/uniteller-payments/web/db"
	"github.com/improvgroup/uniteller-payments/web/email"
)

// Service owns order payment-state transitions. Every transition re-checks
// its legality guard inside a row lock, so concurrent gateway callbacks for
// the same order cannot double-apply a transition.
type Service struct {
	DB        *gorm.DB
	Publisher *events.Publisher // optional, may be nil
}

func NewService(gdb *gorm.DB, publisher *events.Publisher) *Service {
	return &Service{DB: gdb, Publisher: publisher}
}

func (s *Service) GetByGUID(guid uuid.UUID) (*db.Order, error) {
	var order db.Order
	if err := s.DB.First(&order, "order_guid = ?", guid.String()).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) AddNote(order *db.Order, note string) error {
	return s.DB.Create(&db.OrderNote{OrderID: order.ID, Note: note}).Error
}

// Transition guards. The callback handler consults these before requesting
// a transition and the transition itself re-checks them under lock.

func (s *Service) CanMarkPaid(order *db.Order) bool {
	return order.PaymentStatus == db.PaymentStatusPending || order.PaymentStatus == db.PaymentStatusAuthorized
}

func (s *Service) CanMarkAuthorized(order *db.Order) bool {
	return order.PaymentStatus == db.PaymentStatusPending
}

func (s *Service) CanCancel(order *db.Order) bool {
	return order.PaymentStatus != db.PaymentStatusCancelled
}

// transition locks the order row, re-checks the guard against the current
// status and applies the new one. Returns whether anything was applied.
func (s *Service) transition(order *db.Order, legal func(*db.Order) bool, status string) (bool, error) {
	applied := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var current db.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, order.ID).Error; err != nil {
			return err
		}
		if !legal(&current) {
			order.PaymentStatus = current.PaymentStatus
			return nil
		}
		current.PaymentStatus = status
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		order.PaymentStatus = status
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.Publisher.PaymentStatus(order.OrderGUID, status)
	}
	return applied, nil
}

func (s *Service) MarkAsPaid(order *db.Order) error {
	applied, err := s.transition(order, s.CanMarkPaid, db.PaymentStatusPaid)
	if err != nil {
		return err
	}
	if applied && order.CustomerEmail != "" {
		go func(to string, id uint) {
			if err := email.SendOrderPaidEmail(to, id); err != nil {
				log.Println("orders: paid email:", err)
			}
		}(order.CustomerEmail, order.ID)
	}
	return nil
}

func (s *Service) MarkAsAuthorized(order *db.Order) error {
	_, err := s.transition(order, s.CanMarkAuthorized, db.PaymentStatusAuthorized)
	return err
}

// Cancel cancels the order. notifyCustomer propagates the cancellation to
// the shopper by email.
func (s *Service) Cancel(order *db.Order, notifyCustomer bool) error {
	applied, err := s.transition(order, s.CanCancel, db.PaymentStatusCancelled)
	if err != nil {
		return err
	}
	if applied && notifyCustomer && order.CustomerEmail != "" {
		go func(to string, id uint) {
			if err := email.SendOrderCanceledEmail(to, id); err != nil {
				log.Println("orders: cancel email:", err)
			}
		}(order.CustomerEmail, order.ID)
	}
	return nil
}
