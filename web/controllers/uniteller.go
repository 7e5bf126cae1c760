package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/improvgroup/uniteller-payments/uniteller"
	"github.com/improvgroup/uniteller-payments/web/db"
)

// OrderService is the order-processing collaborator. It owns transition
// legality and serializes mutations at the data store.
type OrderService interface {
	GetByGUID(guid uuid.UUID) (*db.Order, error)
	AddNote(order *db.Order, note string) error
	CanCancel(order *db.Order) bool
	Cancel(order *db.Order, notifyCustomer bool) error
	CanMarkAuthorized(order *db.Order) bool
	MarkAsAuthorized(order *db.Order) error
	CanMarkPaid(order *db.Order) bool
	MarkAsPaid(order *db.Order) error
}

// SettingsLoader resolves the payment method settings for a store scope.
type SettingsLoader interface {
	LoadUniteller(storeID uint) uniteller.Settings
}

// StatusQuerier asks the gateway for the current statuses of an order.
type StatusQuerier interface {
	GetPaymentStatus(ctx context.Context, creds uniteller.Credentials, orderID string) []string
}

// UnitellerHandler serves the protocol-fixed gateway routes.
type UnitellerHandler struct {
	Orders     OrderService
	Settings   SettingsLoader
	Gateway    StatusQuerier
	StoreName  string
	ReturnBase string
}

// getValue reads a notification field from the submitted form first and
// falls back to the query string; a missing value is an empty string.
func getValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

// respond writes the acknowledgement the gateway polls for: two CRLF
// separated plain text lines, SUCCESS or FAIL then the store name and a
// human readable message.
func (h *UnitellerHandler) respond(c *gin.Context, text string, success bool) {
	status := "FAIL"
	if success {
		status = "SUCCESS"
	} else {
		log.Printf("uniteller: %s", text)
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(fmt.Sprintf("%s\r\n%s. %s", status, h.StoreName, text)))
}

// updateOrderStatus maps a gateway status token to an order transition.
// Unknown tokens (refunds, partial states, empty) are not acted on.
func (h *UnitellerHandler) updateOrderStatus(order *db.Order, status string) (string, bool) {
	status = strings.ToUpper(status)
	text := "Your order has been paid"

	switch status {
	case "CANCELED":
		if (order.PaymentStatus == db.PaymentStatusPaid || order.PaymentStatus == db.PaymentStatusAuthorized) &&
			h.Orders.CanCancel(order) {
			if err := h.Orders.Cancel(order, true); err != nil {
				log.Println("uniteller: cancel order:", err)
			}
		}
		text = "Your order has been canceled"
	case "AUTHORIZED":
		if h.Orders.CanMarkAuthorized(order) {
			if err := h.Orders.MarkAsAuthorized(order); err != nil {
				log.Println("uniteller: authorize order:", err)
			}
		}
		text = "Your order has been authorized"
	case "PAID":
		if h.Orders.CanMarkPaid(order) {
			if err := h.Orders.MarkAsPaid(order); err != nil {
				log.Println("uniteller: mark order paid:", err)
			}
		}
	default:
		return "Unsupported status", false
	}

	return text, true
}

// ConfirmPay handles the asynchronous server-to-server notification. The
// signature check is the sole authentication gate; every outcome is a
// well-formed acknowledgement.
func (h *UnitellerHandler) ConfirmPay(c *gin.Context) {
	if !h.Settings.LoadUniteller(0).Enabled {
		c.String(http.StatusInternalServerError, "Uniteller module cannot be loaded")
		return
	}

	orderID := getValue(c, "Order_ID")
	signature := getValue(c, "Signature")
	status := getValue(c, "Status")

	var order *db.Order
	if guid, err := uuid.Parse(orderID); err == nil {
		order, _ = h.Orders.GetByGUID(guid)
	}
	if order == nil {
		h.respond(c, "Order cannot be loaded", false)
		return
	}

	note := fmt.Sprintf("Uniteller:\nOrder_ID: %s\nSignature: %s\nStatus: %s", orderID, signature, status)
	if err := h.Orders.AddNote(order, note); err != nil {
		// audit only, never blocks verification
		log.Println("uniteller: write order note:", err)
	}

	setting := h.Settings.LoadUniteller(order.StoreID)
	if !uniteller.VerifyNotification(orderID, status, setting.Password, signature) {
		log.Printf("uniteller: signature mismatch for order %s (status %q, signature %q)", orderID, status, signature)
		h.respond(c, "Invalid order data", false)
		return
	}

	text, ok := h.updateOrderStatus(order, status)
	h.respond(c, text, ok)
}

// Success handles the browser return after a completed payment. This path
// is not gateway-authenticated, so it only nudges state through the status
// query; the authenticated callback remains the source of truth.
func (h *UnitellerHandler) Success(c *gin.Context) {
	guid, err := uuid.Parse(c.Query("Order_ID"))
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	order, err := h.Orders.GetByGUID(guid)
	if err != nil || order == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if order.PaymentStatus != db.PaymentStatusPaid {
		setting := h.Settings.LoadUniteller(order.StoreID)
		if !setting.Enabled {
			c.String(http.StatusInternalServerError, "Uniteller module cannot be loaded")
			return
		}
		statuses := h.Gateway.GetPaymentStatus(c.Request.Context(), setting.Credentials, order.OrderGUID)
		for _, status := range statuses {
			h.updateOrderStatus(order, status)
		}
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/checkout/completed/%d", order.ID))
}

// CancelOrder handles the browser return after an abandoned payment. No
// state changes here: an actual cancellation arrives through ConfirmPay.
func (h *UnitellerHandler) CancelOrder(c *gin.Context) {
	guid, err := uuid.Parse(c.Query("Order_ID"))
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	order, err := h.Orders.GetByGUID(guid)
	if err != nil || order == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/orderdetails/%d", order.ID))
}
