package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/improvgroup/uniteller-payments/uniteller"
	"github.com/improvgroup/uniteller-payments/web/db"
)

const (
	testGUID     = "11111111-1111-1111-1111-111111111111"
	testPassword = "secret"
)

type fakeOrders struct {
	orders map[string]*db.Order
	notes  []string

	paidCalls   int
	authCalls   int
	cancelCalls int
	notified    bool
}

func newFakeOrders(orders ...*db.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]*db.Order)}
	for _, o := range orders {
		f.orders[o.OrderGUID] = o
	}
	return f
}

func (f *fakeOrders) GetByGUID(guid uuid.UUID) (*db.Order, error) {
	order, ok := f.orders[guid.String()]
	if !ok {
		return nil, errors.New("record not found")
	}
	return order, nil
}

func (f *fakeOrders) AddNote(order *db.Order, note string) error {
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeOrders) CanCancel(order *db.Order) bool {
	return order.PaymentStatus != db.PaymentStatusCancelled
}

func (f *fakeOrders) Cancel(order *db.Order, notifyCustomer bool) error {
	f.cancelCalls++
	f.notified = notifyCustomer
	order.PaymentStatus = db.PaymentStatusCancelled
	return nil
}

func (f *fakeOrders) CanMarkAuthorized(order *db.Order) bool {
	return order.PaymentStatus == db.PaymentStatusPending
}

func (f *fakeOrders) MarkAsAuthorized(order *db.Order) error {
	f.authCalls++
	order.PaymentStatus = db.PaymentStatusAuthorized
	return nil
}

func (f *fakeOrders) CanMarkPaid(order *db.Order) bool {
	return order.PaymentStatus == db.PaymentStatusPending || order.PaymentStatus == db.PaymentStatusAuthorized
}

func (f *fakeOrders) MarkAsPaid(order *db.Order) error {
	f.paidCalls++
	order.PaymentStatus = db.PaymentStatusPaid
	return nil
}

type fakeSettings struct {
	settings uniteller.Settings
}

func (f *fakeSettings) LoadUniteller(storeID uint) uniteller.Settings {
	return f.settings
}

type fakeGateway struct {
	statuses []string
	calls    int
}

func (f *fakeGateway) GetPaymentStatus(ctx context.Context, creds uniteller.Credentials, orderID string) []string {
	f.calls++
	return f.statuses
}

func enabledSettings() uniteller.Settings {
	return uniteller.Settings{
		Credentials: uniteller.Credentials{ShopIDP: "12345", Login: "login", Password: testPassword},
		Enabled:     true,
	}
}

func testOrder(status string) *db.Order {
	return &db.Order{
		Model:         gorm.Model{ID: 1},
		OrderGUID:     testGUID,
		CustomerID:    42,
		CustomerEmail: "shopper@example.com",
		CurrencyCode:  "RUB",
		OrderTotal:    decimal.RequireFromString("99.00"),
		PaymentStatus: status,
	}
}

func newTestHandler(orders *fakeOrders, gateway *fakeGateway) *UnitellerHandler {
	return &UnitellerHandler{
		Orders:     orders,
		Settings:   &fakeSettings{settings: enabledSettings()},
		Gateway:    gateway,
		StoreName:  "WebStore",
		ReturnBase: "https://shop.example.com/",
	}
}

func newRouter(h *UnitellerHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/Plugins/Uniteller/ConfirmPay", h.ConfirmPay)
	r.GET("/Plugins/Uniteller/ConfirmPay", h.ConfirmPay)
	r.GET("/Plugins/Uniteller/Success", h.Success)
	r.GET("/Plugins/Uniteller/CancelOrder", h.CancelOrder)
	return r
}

func postConfirmPay(r *gin.Engine, fields map[string]string) *httptest.ResponseRecorder {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/Plugins/Uniteller/ConfirmPay", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signedFields(orderID, status string) map[string]string {
	return map[string]string{
		"Order_ID":  orderID,
		"Status":    status,
		"Signature": uniteller.SignNotification(orderID, status, testPassword),
	}
}

func TestConfirmPayPaid(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(testGUID, "PAID"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	want := "SUCCESS\r\nWebStore. Your order has been paid"
	if w.Body.String() != want {
		t.Errorf("expected acknowledgement %q, got %q", want, w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPaid {
		t.Errorf("expected order to be paid, got %s", got)
	}
	if orders.paidCalls != 1 {
		t.Errorf("expected one paid transition, got %d", orders.paidCalls)
	}
	if len(orders.notes) != 1 {
		t.Errorf("expected one audit note, got %d", len(orders.notes))
	}
}

func TestConfirmPayTamperedSignature(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	fields := signedFields(testGUID, "PAID")
	sig := []byte(fields["Signature"])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	fields["Signature"] = string(sig)

	w := postConfirmPay(r, fields)

	want := "FAIL\r\nWebStore. Invalid order data"
	if w.Body.String() != want {
		t.Errorf("expected acknowledgement %q, got %q", want, w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPending {
		t.Errorf("expected order to stay pending, got %s", got)
	}
	if orders.paidCalls != 0 {
		t.Errorf("expected no transitions, got %d", orders.paidCalls)
	}
}

func TestConfirmPayWrongPassword(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, map[string]string{
		"Order_ID":  testGUID,
		"Status":    "PAID",
		"Signature": uniteller.SignNotification(testGUID, "PAID", "wrong-password"),
	})

	if !strings.HasPrefix(w.Body.String(), "FAIL\r\n") {
		t.Errorf("expected FAIL acknowledgement, got %q", w.Body.String())
	}
	if orders.paidCalls != 0 {
		t.Errorf("expected no transitions, got %d", orders.paidCalls)
	}
}

func TestConfirmPayUnknownOrder(t *testing.T) {
	orders := newFakeOrders()
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(uuid.NewString(), "PAID"))

	want := "FAIL\r\nWebStore. Order cannot be loaded"
	if w.Body.String() != want {
		t.Errorf("expected acknowledgement %q, got %q", want, w.Body.String())
	}
	if len(orders.notes) != 0 {
		t.Errorf("expected no audit note for an unknown order, got %d", len(orders.notes))
	}
}

func TestConfirmPayMalformedOrderID(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, map[string]string{"Order_ID": "not-a-guid", "Status": "PAID", "Signature": "whatever"})

	if !strings.Contains(w.Body.String(), "Order cannot be loaded") {
		t.Errorf("expected order-load failure, got %q", w.Body.String())
	}
}

func TestConfirmPayUnsupportedStatus(t *testing.T) {
	for _, status := range []string{"REFUNDED", "WAITING", ""} {
		orders := newFakeOrders(testOrder(db.PaymentStatusPending))
		r := newRouter(newTestHandler(orders, &fakeGateway{}))

		w := postConfirmPay(r, signedFields(testGUID, status))

		want := "FAIL\r\nWebStore. Unsupported status"
		if w.Body.String() != want {
			t.Errorf("status %q: expected acknowledgement %q, got %q", status, want, w.Body.String())
		}
		if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPending {
			t.Errorf("status %q: expected order to stay pending, got %s", status, got)
		}
	}
}

func TestConfirmPayDuplicatePaidIsIdempotent(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	first := postConfirmPay(r, signedFields(testGUID, "PAID"))
	second := postConfirmPay(r, signedFields(testGUID, "PAID"))

	if !strings.HasPrefix(first.Body.String(), "SUCCESS\r\n") {
		t.Errorf("first delivery: expected SUCCESS, got %q", first.Body.String())
	}
	if !strings.HasPrefix(second.Body.String(), "SUCCESS\r\n") {
		t.Errorf("second delivery: expected SUCCESS, got %q", second.Body.String())
	}
	if orders.paidCalls != 1 {
		t.Errorf("expected the paid transition to apply once, got %d", orders.paidCalls)
	}
}

func TestConfirmPayCanceledFromPaid(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPaid))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(testGUID, "CANCELED"))

	want := "SUCCESS\r\nWebStore. Your order has been canceled"
	if w.Body.String() != want {
		t.Errorf("expected acknowledgement %q, got %q", want, w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusCancelled {
		t.Errorf("expected order to be cancelled, got %s", got)
	}
	if !orders.notified {
		t.Errorf("expected the cancellation to be propagated to the customer")
	}
}

func TestConfirmPayCanceledFromPendingIsNoOp(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(testGUID, "CANCELED"))

	if !strings.HasPrefix(w.Body.String(), "SUCCESS\r\n") {
		t.Errorf("expected SUCCESS acknowledgement, got %q", w.Body.String())
	}
	if orders.cancelCalls != 0 {
		t.Errorf("expected no cancel transition from pending, got %d", orders.cancelCalls)
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPending {
		t.Errorf("expected order to stay pending, got %s", got)
	}
}

func TestConfirmPayAuthorized(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(testGUID, "AUTHORIZED"))

	want := "SUCCESS\r\nWebStore. Your order has been authorized"
	if w.Body.String() != want {
		t.Errorf("expected acknowledgement %q, got %q", want, w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusAuthorized {
		t.Errorf("expected order to be authorized, got %s", got)
	}
}

func TestConfirmPayIntegrationDisabled(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	h := newTestHandler(orders, &fakeGateway{})
	h.Settings = &fakeSettings{settings: uniteller.Settings{}}
	r := newRouter(h)

	w := postConfirmPay(r, signedFields(testGUID, "PAID"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if len(orders.notes) != 0 {
		t.Errorf("expected processing to abort before any field handling")
	}
}

func TestConfirmPayQueryStringFallback(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	fields := signedFields(testGUID, "PAID")
	query := url.Values{}
	for k, v := range fields {
		query.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/ConfirmPay?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.HasPrefix(w.Body.String(), "SUCCESS\r\n") {
		t.Errorf("expected SUCCESS acknowledgement, got %q", w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPaid {
		t.Errorf("expected order to be paid, got %s", got)
	}
}

func TestSuccessReconcilesPendingOrder(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	gateway := &fakeGateway{statuses: []string{"PAID"}}
	r := newRouter(newTestHandler(orders, gateway))

	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/Success?Order_ID="+testGUID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/checkout/completed/1" {
		t.Errorf("expected redirect to /checkout/completed/1, got %s", loc)
	}
	if gateway.calls != 1 {
		t.Errorf("expected one status query, got %d", gateway.calls)
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPaid {
		t.Errorf("expected order to be paid, got %s", got)
	}
}

func TestSuccessAlreadyPaidSkipsStatusQuery(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPaid))
	gateway := &fakeGateway{statuses: []string{"PAID"}}
	r := newRouter(newTestHandler(orders, gateway))

	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/Success?Order_ID="+testGUID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if gateway.calls != 0 {
		t.Errorf("expected no status query for a paid order, got %d", gateway.calls)
	}
	if loc := w.Header().Get("Location"); loc != "/checkout/completed/1" {
		t.Errorf("expected redirect to /checkout/completed/1, got %s", loc)
	}
}

func TestSuccessNoActionableStatus(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	gateway := &fakeGateway{statuses: []string{""}}
	r := newRouter(newTestHandler(orders, gateway))

	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/Success?Order_ID="+testGUID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPending {
		t.Errorf("expected order to stay pending on an empty token, got %s", got)
	}
	if w.Code != http.StatusFound {
		t.Errorf("expected redirect even without an actionable status, got %d", w.Code)
	}
}

func TestSuccessUnknownOrderRedirectsHome(t *testing.T) {
	r := newRouter(newTestHandler(newFakeOrders(), &fakeGateway{}))

	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/Success?Order_ID="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %s", loc)
	}
}

func TestCancelOrderRedirects(t *testing.T) {
	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	req := httptest.NewRequest(http.MethodGet, "/Plugins/Uniteller/CancelOrder?Order_ID="+testGUID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); loc != "/orderdetails/1" {
		t.Errorf("expected redirect to /orderdetails/1, got %s", loc)
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPending {
		t.Errorf("cancel return must not mutate state, got %s", got)
	}
}

func TestEndToEndCheckoutToPaid(t *testing.T) {
	creds := uniteller.Credentials{ShopIDP: "12345", Login: "login", Password: testPassword}
	total := decimal.RequireFromString("99.00")

	outbound := uniteller.BuildPaymentRequest(creds, testGUID, "42", "RUB", total, "https://shop.example.com/")
	wantSig := uniteller.SignPaymentRequest("12345", testGUID, "99.00", "42", testPassword)
	if outbound.Fields.Get("Signature") != wantSig {
		t.Fatalf("outbound signature mismatch: expected %s, got %s", wantSig, outbound.Fields.Get("Signature"))
	}

	orders := newFakeOrders(testOrder(db.PaymentStatusPending))
	r := newRouter(newTestHandler(orders, &fakeGateway{}))

	w := postConfirmPay(r, signedFields(outbound.Fields.Get("Order_IDP"), "PAID"))

	if !strings.HasPrefix(w.Body.String(), "SUCCESS\r\n") {
		t.Errorf("expected SUCCESS acknowledgement, got %q", w.Body.String())
	}
	if got := orders.orders[testGUID].PaymentStatus; got != db.PaymentStatusPaid {
		t.Errorf("expected order to move from pending to paid, got %s", got)
	}
}
