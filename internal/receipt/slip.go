// Package receipt renders the delivery slip couriers carry with an order.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/order"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
)

var ErrNoOrder = errors.New("order is required")

// DeliverySlip renders an A5 PDF with the order lines, the delivery details
// and a QR code of the order id.
func DeliverySlip(o *readmodel.OrderReadModel, currency string) ([]byte, error) {
	if o == nil || o.ID == "" {
		return nil, ErrNoOrder
	}

	qrPNG, err := qrcode.Encode(o.ID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "VISELA")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, tr("Bon de livraison"))
	pdf.Ln(10)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 103, 10, 35, 35, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, tr("Commande "+o.ID))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Client", o.CustomerName + " (" + o.CustomerClientID + ")"},
		{"Adresse", o.DeliveryAddress},
		{"Créneau", o.DeliverySlot},
		{"Paiement", paymentLabel(o.PaymentMethod)},
		{"Statut", statusLabel(o.Status)},
	}
	for _, r := range rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(22, 6, tr(r[0]), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 6, tr(r[1]), "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(70, 7, tr("Article"), "1", 0, "", true, 0, "")
	pdf.CellFormat(18, 7, tr("Qté"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, tr("Montant"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, item := range o.Items {
		name := item.Name
		if item.Unit != "" {
			name += " / " + item.Unit
		}
		pdf.CellFormat(70, 6, tr(name), "1", 0, "", false, 0, "")
		pdf.CellFormat(18, 6, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, tr(FormatAmount(item.Price*int64(item.Quantity), currency)), "1", 1, "R", false, 0, "")
	}

	totals := [][2]string{
		{"Sous-total", FormatAmount(o.Subtotal, currency)},
		{"Livraison", FormatAmount(o.DeliveryFee, currency)},
		{"Total", FormatAmount(o.Total, currency)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 10)
		}
		pdf.CellFormat(88, 6, tr(t[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(t[1]), "", 1, "R", false, 0, "")
	}

	if o.NeedsReview {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 5, tr("À vérifier: "+o.ReviewReason), "", "", false)
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render slip: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatAmount groups thousands with a space: 350000 becomes "350 000 F".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b bytes.Buffer
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	if currency == "" {
		return sign + b.String()
	}
	return sign + b.String() + " " + currency
}

func paymentLabel(method string) string {
	if order.PaymentMethod(method) == order.PaymentWallet {
		return "Portefeuille"
	}
	return "Espèces à la livraison"
}

func statusLabel(status string) string {
	if label := order.Status(status).Label(); label != "" {
		return label
	}
	return status
}
