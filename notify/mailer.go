package notify

import (
	"fmt"
	"os"
	"strconv"

	"procur/models"

	"github.com/shopspring/decimal"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends settlement receipts over SMTP. It implements ledger.Notifier;
// the ledger calls it fire-and-forget, so a slow SMTP server never holds up
// a settlement.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string

	buyerTo string // operator inbox used when buyer members have no email on file
}

func NewMailerFromEnv() *Mailer {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return &Mailer{
		host:    os.Getenv("SMTP_HOST"),
		port:    port,
		user:    os.Getenv("SMTP_USER"),
		pass:    os.Getenv("SMTP_PASSWORD"),
		from:    os.Getenv("SMTP_FROM"),
		buyerTo: os.Getenv("RECEIPT_FALLBACK_TO"),
	}
}

func (m *Mailer) send(to []string, subject, body string) error {
	if m.host == "" || len(to) == 0 {
		return fmt.Errorf("mailer not configured or no recipients")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	return d.DialAndSend(msg)
}

func formatAmount(cents int64, currency string) string {
	return decimal.New(cents, -2).StringFixed(2) + " " + currency
}

func (m *Mailer) SendBuyerReceipt(txn models.Transaction, order models.Order) error {
	body := fmt.Sprintf(
		"Payment received for order %s.\n\nReference: %s\nAmount: %s\nBank reference: %s\n",
		order.OrderNumber, txn.TransactionNumber,
		formatAmount(txn.Amount, txn.Currency), txn.BankReference,
	)
	return m.send([]string{m.buyerTo}, "Payment receipt "+txn.TransactionNumber, body)
}

func (m *Mailer) SendSellerReceipt(txn models.Transaction, order models.Order, recipients []models.OrganizationMember) error {
	var to []string
	for _, r := range recipients {
		if r.Email != "" {
			to = append(to, r.Email)
		}
	}
	body := fmt.Sprintf(
		"Your payout for order %s has been sent.\n\nReference: %s\nAmount: %s\n",
		order.OrderNumber, txn.TransactionNumber,
		formatAmount(txn.Amount, txn.Currency),
	)
	return m.send(to, "Payout sent "+txn.TransactionNumber, body)
}
