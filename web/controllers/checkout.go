package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/improvgroup/uniteller-payments/uniteller"
	"github.com/improvgroup/uniteller-payments/web/db"
)

func (h *UnitellerHandler) loadOrder(c *gin.Context) *db.Order {
	guid, err := uuid.Parse(c.Param("order_guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return nil
	}
	order, err := h.Orders.GetByGUID(guid)
	if err != nil || order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil
	}
	return order
}

func (h *UnitellerHandler) redirectForm(c *gin.Context, order *db.Order) {
	setting := h.Settings.LoadUniteller(order.StoreID)
	if !setting.Enabled {
		c.String(http.StatusInternalServerError, "Uniteller module cannot be loaded")
		return
	}

	total := order.OrderTotal.Add(setting.AdditionalHandlingFee(order.OrderTotal))
	req := uniteller.BuildPaymentRequest(
		setting.Credentials,
		order.OrderGUID,
		strconv.FormatUint(uint64(order.CustomerID), 10),
		order.CurrencyCode,
		total,
		h.ReturnBase,
	)
	c.Data(http.StatusOK, "text/html; charset=utf-8", req.AutoPostForm())
}

// PostProcessPayment sends the shopper to the gateway with the signed
// payload: the auto-submitting form posts to the fixed gateway URL.
func (h *UnitellerHandler) PostProcessPayment(c *gin.Context) {
	order := h.loadOrder(c)
	if order == nil {
		return
	}
	h.redirectForm(c, order)
}

// RePostProcessPayment lets the shopper retry an incomplete payment. The
// retry window opens a few seconds after order creation.
func (h *UnitellerHandler) RePostProcessPayment(c *gin.Context) {
	order := h.loadOrder(c)
	if order == nil {
		return
	}
	if order.PaymentStatus == db.PaymentStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
		return
	}
	if !uniteller.CanRePostProcessPayment(order.CreatedAt) {
		c.JSON(http.StatusConflict, gin.H{"error": "Please wait a few seconds before retrying the payment"})
		return
	}
	h.redirectForm(c, order)
}

// PaymentQR renders a QR code with the continue-payment link so the
// shopper can finish the checkout on another device.
func (h *UnitellerHandler) PaymentQR(c *gin.Context) {
	order := h.loadOrder(c)
	if order == nil {
		return
	}

	base := uniteller.FixReturnHost(h.ReturnBase)
	link := fmt.Sprintf("%s/checkout/repost/%s", trimSlash(base), order.OrderGUID)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
