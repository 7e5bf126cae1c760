package events

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPaymentStatus carries payment status changes for downstream
// consumers (fulfilment, notifications).
const SubjectPaymentStatus = "orders.payment"

type PaymentStatusChanged struct {
	OrderGUID string    `json:"order_guid"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// Publisher pushes payment events to NATS. A nil Publisher is valid and
// publishes nothing, so the integration works without a broker.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials NATS_URL. Returns nil when the variable is unset.
func Connect() *Publisher {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil
	}
	conn, err := nats.Connect(url)
	if err != nil {
		log.Println("events: NATS connect failed:", err)
		return nil
	}
	return &Publisher{conn: conn}
}

func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PaymentStatus publishes a status change. Failures are logged and never
// surfaced: event delivery must not affect the gateway acknowledgement.
func (p *Publisher) PaymentStatus(orderGUID, status string) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(PaymentStatusChanged{OrderGUID: orderGUID, Status: status, At: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := p.conn.Publish(SubjectPaymentStatus, data); err != nil {
		log.Println("events: publish payment status:", err)
	}
}
