package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type recordingSender struct {
	sent []sentMail
	err  error
}

func (r *recordingSender) Send(to, subject, htmlBody string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 F"},
		{800, "800 F"},
		{3800, "3 800 F"},
		{125000, "125 000 F"},
		{1250000, "1 250 000 F"},
		{-5000, "-5 000 F"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.n, "F"))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "VSL-3f2a9c1e", ShortID("VSL-3f2a9c1e-8d4b-4c2a-9f3e-1a2b3c4d5e6f"))
	assert.Equal(t, "VSL-1", ShortID("VSL-1"))
}

func TestService_SendOrderConfirmation(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "F")

	err := svc.SendOrderConfirmation("771234567@visela.com", Order{
		ID:              "VSL-3f2a9c1e-8d4b-4c2a-9f3e-1a2b3c4d5e6f",
		CustomerName:    "Awa <Ndiaye>",
		Items:           []OrderItem{{Name: "Mangue Kent", Unit: "kg", Quantity: 2, Price: 1500}},
		Subtotal:        3000,
		DeliveryFee:     0,
		Total:           3000,
		DeliveryAddress: "Rue 10, Plateau, Dakar",
		DeliverySlot:    "Lundi 16 oct. (Matin: 09h - 12h)",
		PaymentMethod:   "Wallet",
		NeedsReview:     true,
	})

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "771234567@visela.com", mail.to)
	assert.Equal(t, "Visela - commande VSL-3f2a9c1e confirmée", mail.subject)
	assert.Contains(t, mail.body, "Awa &lt;Ndiaye&gt;")
	assert.Contains(t, mail.body, "3 000 F")
	assert.Contains(t, mail.body, "Offerte")
	assert.Contains(t, mail.body, "Portefeuille Cercle")
	assert.Contains(t, mail.body, "rupture")
}

func TestService_SendWalletCredited(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "")

	require.NoError(t, svc.SendWalletCredited("771234567@visela.com", "Awa", 5000, 12500))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Visela - recharge de 5 000 F validée", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].body, "12 500 F")
}
