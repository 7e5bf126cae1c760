package email

import (
	"fmt"
	"net/smtp"
	"os"
)

func SendEmail(to string, subject string, body string) error {
	smtpServer := os.Getenv("SMTP_SERVER")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromAddr := os.Getenv("FROM_ADDR")
	fromName := os.Getenv("FROM_NAME")

	if smtpServer == "" || smtpPort == "" || smtpUser == "" || smtpPass == "" || fromAddr == "" || fromName == "" {
		return fmt.Errorf("missing required SMTP environment variables")
	}
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		fromName, fromAddr, to, subject, body))

	auth := smtp.PlainAuth("", smtpUser, smtpPass, smtpServer)

	err := smtp.SendMail(smtpServer+":"+smtpPort, auth, fromAddr, []string{to}, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func SendOrderCanceledEmail(to string, orderID uint) error {
	subject := fmt.Sprintf("Your order #%d has been canceled", orderID)
	body := fmt.Sprintf("The payment for your order #%d was canceled by the payment provider.\n\nIf you did not request this, please contact support.", orderID)
	return SendEmail(to, subject, body)
}

func SendOrderPaidEmail(to string, orderID uint) error {
	subject := fmt.Sprintf("Payment received for order #%d", orderID)
	body := fmt.Sprintf("We have received the payment for your order #%d. It is now being processed.", orderID)
	return SendEmail(to, subject, body)
}
