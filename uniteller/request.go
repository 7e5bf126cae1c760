package uniteller

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// PayURL is the fixed gateway endpoint the shopper is redirected to.
const PayURL = "https://wpay.uniteller.ru/pay/"

const (
	successPath = "Plugins/Uniteller/Success"
	cancelPath  = "Plugins/Uniteller/CancelOrder"
)

// PaymentRequest is the signed form payload that redirects the shopper to
// the gateway. It is built fresh per checkout and never persisted.
type PaymentRequest struct {
	URL    string
	Fields url.Values
}

// FormatAmount renders a payment amount with exactly two decimal places.
// The rendered string is part of the signed payload, so it must not depend
// on the host locale.
func FormatAmount(total decimal.Decimal) string {
	return total.StringFixed(2)
}

// FixReturnHost rewrites a localhost return base to the loopback IP
// literal. The gateway refuses callback URLs with a "localhost" host.
func FixReturnHost(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if !strings.EqualFold(u.Hostname(), "localhost") {
		return base
	}
	host := "127.0.0.1"
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	return u.String()
}

// BuildPaymentRequest assembles and signs the redirect payload for one
// order. returnBase is the absolute base URL of the storefront the gateway
// sends the shopper back to.
func BuildPaymentRequest(creds Credentials, orderGUID, customerID, currency string, total decimal.Decimal, returnBase string) *PaymentRequest {
	amount := FormatAmount(total)
	signature := SignPaymentRequest(creds.ShopIDP, orderGUID, amount, customerID, creds.Password)

	base := FixReturnHost(returnBase)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	fields := url.Values{}
	fields.Set("Shop_IDP", creds.ShopIDP)
	fields.Set("Order_IDP", orderGUID)
	fields.Set("Currency", currency)
	fields.Set("Subtotal_P", amount)
	fields.Set("Customer_IDP", customerID)
	fields.Set("Signature", signature)
	fields.Set("URL_RETURN_NO", base+cancelPath)
	fields.Set("URL_RETURN_OK", base+successPath)

	return &PaymentRequest{URL: PayURL, Fields: fields}
}

// AutoPostForm renders an HTML page that posts the payment request to the
// gateway as soon as it loads.
func (r *PaymentRequest) AutoPostForm() []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"UTF-8\"><title>Redirecting to payment...</title></head>\n")
	b.WriteString("<body onload=\"document.forms['PayPoint'].submit()\">\n")
	fmt.Fprintf(&b, "<form name=\"PayPoint\" method=\"post\" action=\"%s\">\n", html.EscapeString(r.URL))
	for key, values := range r.Fields {
		for _, v := range values {
			fmt.Fprintf(&b, "<input type=\"hidden\" name=\"%s\" value=\"%s\">\n", html.EscapeString(key), html.EscapeString(v))
		}
	}
	b.WriteString("<noscript><input type=\"submit\" value=\"Continue to payment\"></noscript>\n</form>\n</body>\n</html>\n")
	return []byte(b.String())
}
