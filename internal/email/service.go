package email

import (
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail through an SMTP relay. Auth is used when a username
// is configured.
type SMTPSender struct {
	addr     string
	host     string
	username string
	password string
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, username, password, from, fromName string) *SMTPSender {
	return &SMTPSender{
		addr:     host + ":" + strconv.Itoa(port),
		host:     host,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", s.fromName), s.from)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, mime.QEncoding.Encode("UTF-8", subject), htmlBody)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	return smtp.SendMail(s.addr, auth, s.from, []string{to}, []byte(msg))
}

// Service builds the customer notifications and hands them to a Sender.
type Service struct {
	sender   Sender
	currency string
}

func NewService(sender Sender, currency string) *Service {
	if currency == "" {
		currency = "F"
	}
	return &Service{sender: sender, currency: currency}
}

// SendOrderConfirmation sends the receipt for a placed order.
func (s *Service) SendOrderConfirmation(to string, o Order) error {
	subject := fmt.Sprintf("Visela - commande %s confirmée", ShortID(o.ID))
	return s.sender.Send(to, subject, BuildOrderConfirmationBody(o, s.currency))
}

// SendWalletCredited tells a customer an approved reload reached the wallet.
func (s *Service) SendWalletCredited(to, name string, amount, balance int64) error {
	subject := fmt.Sprintf("Visela - recharge de %s validée", FormatAmount(amount, s.currency))
	return s.sender.Send(to, subject, BuildWalletCreditedBody(name, amount, balance, s.currency))
}

// ShortID is the order id as read over the phone: the first block after the prefix.
func ShortID(orderID string) string {
	const prefixed = len("VSL-") + 8
	if len(orderID) > prefixed {
		return orderID[:prefixed]
	}
	return orderID
}
