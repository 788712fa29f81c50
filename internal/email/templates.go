package email

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// OrderItem is an order line as shown in the confirmation.
type OrderItem struct {
	Name     string
	Unit     string
	Quantity int
	Price    int64
}

// Order is what the confirmation email shows.
type Order struct {
	ID              string
	CustomerName    string
	Items           []OrderItem
	Subtotal        int64
	DeliveryFee     int64
	Total           int64
	DeliveryAddress string
	DeliverySlot    string
	PaymentMethod   string
	NeedsReview     bool
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(o Order, currency string) string {
	var itemsHTML strings.Builder
	for _, item := range o.Items {
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d %s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(item.Name),
			item.Quantity,
			html.EscapeString(item.Unit),
			FormatAmount(item.Price*int64(item.Quantity), currency),
		))
	}

	fee := FormatAmount(o.DeliveryFee, currency)
	if o.DeliveryFee == 0 {
		fee = "Offerte"
	}
	review := ""
	if o.NeedsReview {
		review = `<p style="background: #fff4e5; padding: 12px; border-radius: 5px;">Certains articles sont en rupture. Notre équipe vous contactera avant la livraison.</p>`
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #0f5132; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Merci %s !</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Votre commande <strong style="font-family: monospace;">%s</strong> est en préparation.</p>
		%s
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tbody>
				%s
			</tbody>
		</table>

		<p style="margin: 4px 0;">Sous-total : %s</p>
		<p style="margin: 4px 0;">Livraison : %s</p>
		<p style="margin: 4px 0; font-size: 20px; font-weight: bold;">Total : %s</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
		<p style="margin: 4px 0;">Adresse : %s</p>
		<p style="margin: 4px 0;">Créneau : %s</p>
		<p style="margin: 4px 0;">Paiement : %s</p>
	</div>
</body>
</html>`,
		html.EscapeString(o.CustomerName),
		html.EscapeString(o.ID),
		review,
		itemsHTML.String(),
		FormatAmount(o.Subtotal, currency),
		fee,
		FormatAmount(o.Total, currency),
		html.EscapeString(o.DeliveryAddress),
		html.EscapeString(o.DeliverySlot),
		paymentLabel(o.PaymentMethod),
	)
}

// BuildWalletCreditedBody builds the HTML body sent when a reload is approved.
func BuildWalletCreditedBody(name string, amount, balance int64, currency string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px;">Bonjour %s,</h1>
	<p>Votre recharge de <strong>%s</strong> a été validée.</p>
	<p>Solde du portefeuille : <strong>%s</strong></p>
</body>
</html>`, html.EscapeString(name), FormatAmount(amount, currency), FormatAmount(balance, currency))
}

func paymentLabel(method string) string {
	if method == "Wallet" {
		return "Portefeuille Cercle"
	}
	return "Espèces à la livraison"
}

// FormatAmount groups thousands with spaces: 125000 -> "125 000 F".
func FormatAmount(n int64, currency string) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	str := strconv.FormatInt(n, 10)

	var result strings.Builder
	head := len(str) % 3
	if head > 0 {
		result.WriteString(str[:head])
	}
	for i := head; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(" ")
		}
		result.WriteString(str[i : i+3])
	}
	return sign + result.String() + " " + currency
}
