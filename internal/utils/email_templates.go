package utils

import (
	"bytes"
	"html/template"
	"strings"

	"medicart_back_end/internal/models"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Your order is confirmed</h2>
		<p>Order <strong>#{{.ShortID}}</strong> has been paid and is being prepared by the pharmacy.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Medicine</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantity</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Unit price</th>
				</tr>
			</thead>
			<tbody>
				{{range .Order.Items}}
				<tr>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.Name}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.Quantity}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.PriceAtPurchase.StringFixed 2}}</td>
				</tr>
				{{end}}
			</tbody>
			<tfoot>
				<tr>
					<td colspan="2" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">{{.Order.TotalPrice.StringFixed 2}} {{.Currency}}</td>
				</tr>
			</tfoot>
		</table>
		<p>Delivery to: {{.Order.DeliveryAddress.FullName}}, {{.Order.DeliveryAddress.AddressLine1}}, {{.Order.DeliveryAddress.City}} {{.Order.DeliveryAddress.PostalCode}}</p>
	</div>
</body>
</html>`))

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order update</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 12px;">
		<div style="display: inline-block; padding: 12px 24px; background-color: {{.Color}}; color: #ffffff; border-radius: 25px; font-weight: 600;">
			{{.Icon}} {{.Status}}
		</div>
		<p style="color: #333333; font-size: 16px; line-height: 1.6;">{{.Message}}</p>
		<p><strong>Order:</strong> #{{.ShortID}}<br><strong>Total:</strong> {{.Order.TotalPrice.StringFixed 2}} {{.Currency}}</p>
	</div>
</body>
</html>`))

type emailData struct {
	Order    models.Order
	ShortID  string
	Currency string
	Status   string
	Message  string
	Icon     string
	Color    string
}

func newEmailData(order models.Order) emailData {
	short := order.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return emailData{Order: order, ShortID: short, Currency: strings.ToUpper(order.Currency)}
}

func GenerateOrderConfirmationHTML(order models.Order) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, newEmailData(order)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func GenerateStatusEmailHTML(order models.Order) (string, error) {
	data := newEmailData(order)
	data.Status = string(order.DeliveryStatus)
	data.Message = statusMessage(order.DeliveryStatus)
	data.Icon = statusIcon(order.DeliveryStatus)
	data.Color = statusColor(order.DeliveryStatus)

	var buf bytes.Buffer
	if err := statusTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
