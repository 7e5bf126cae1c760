package uniteller

import (
	"context"
	"encoding/xml"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ResultsURL is the fixed gateway endpoint for status queries.
const ResultsURL = "https://wpay.uniteller.ru/results/"

// Format selector "4" asks the gateway for an XML response body.
const returnFormat = "4"

// Client queries the gateway for order statuses. The zero value is not
// usable; construct with NewClient.
type Client struct {
	ResultsURL string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

func NewClient() *Client {
	return &Client{
		ResultsURL: ResultsURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// The response nests statuses under root/orders/order/status. The root
// element name is left unconstrained on purpose.
type resultsDocument struct {
	Orders struct {
		Order struct {
			Statuses []string `xml:"status"`
		} `xml:"order"`
	} `xml:"orders"`
}

// GetPaymentStatus returns the uppercased status tokens the gateway reports
// for an order. Anything that is not a well-formed status response degrades
// to a single empty token, which callers treat as "no actionable status"
// and never as an order-transition error.
func (c *Client) GetPaymentStatus(ctx context.Context, creds Credentials, orderID string) []string {
	noStatus := []string{""}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return noStatus
		}
	}

	form := url.Values{}
	form.Set("Shop_ID", creds.ShopIDP)
	form.Set("Login", creds.Login)
	form.Set("Password", creds.Password)
	form.Set("Format", returnFormat)
	form.Set("ShopOrderNumber", orderID)
	form.Set("S_FIELDS", "Status")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ResultsURL, strings.NewReader(form.Encode()))
	if err != nil {
		return noStatus
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Println("uniteller: status query failed:", err)
		return noStatus
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return noStatus
	}

	if !strings.Contains(string(body), "?xml") {
		return noStatus
	}

	var doc resultsDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		log.Println("uniteller: unparsable status response:", err)
		return noStatus
	}

	statuses := doc.Orders.Order.Statuses
	if len(statuses) == 0 {
		return noStatus
	}
	for i, s := range statuses {
		statuses[i] = strings.ToUpper(s)
	}
	return statuses
}
