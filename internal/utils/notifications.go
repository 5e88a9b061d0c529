package utils

import (
	"context"
	"log"
	"time"

	"medicart_back_end/internal/models"
)

// Notifier prévient le client. Les envois sont asynchrones et ne font
// jamais échouer l'opération appelante.
type Notifier interface {
	OrderConfirmed(order models.Order)
	OrderStatusChanged(order models.Order)
}

// NewNotifier retourne un MailNotifier si un hôte SMTP est configuré.
func NewNotifier(cfg SMTPConfig) Notifier {
	if cfg.Host == "" {
		log.Println("⚠️ SMTP_HOST vide, e-mails désactivés")
		return NoopNotifier{}
	}
	return &MailNotifier{mailer: NewMailer(cfg)}
}

type MailNotifier struct {
	mailer *Mailer
}

func (n *MailNotifier) OrderConfirmed(order models.Order) {
	html, err := GenerateOrderConfirmationHTML(order)
	if err != nil {
		log.Printf("❌ Erreur génération e-mail commande %s: %v", order.ID, err)
		return
	}
	n.sendAsync(order.CustomerEmail, "✅ Order confirmed - MediCart", html)
}

func (n *MailNotifier) OrderStatusChanged(order models.Order) {
	html, err := GenerateStatusEmailHTML(order)
	if err != nil {
		log.Printf("❌ Erreur génération e-mail statut %s: %v", order.ID, err)
		return
	}
	n.sendAsync(order.CustomerEmail, statusSubject(order.DeliveryStatus), html)
}

func (n *MailNotifier) sendAsync(to, subject, html string) {
	if to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.mailer.Send(ctx, to, subject, html); err != nil {
			log.Printf("❌ Erreur envoi email à %s: %v", to, err)
			return
		}
		log.Printf("📧 Email envoyé: %s → %s", subject, to)
	}()
}

type NoopNotifier struct{}

func (NoopNotifier) OrderConfirmed(models.Order)     {}
func (NoopNotifier) OrderStatusChanged(models.Order) {}

func statusSubject(status models.DeliveryStatus) string {
	switch status {
	case models.DeliveryStatusConfirmed:
		return "✅ Your order was accepted by the pharmacy - MediCart"
	case models.DeliveryStatusShipped:
		return "📦 Your order is on its way - MediCart"
	case models.DeliveryStatusDelivered:
		return "🎉 Your order was delivered - MediCart"
	case models.DeliveryStatusCancelled:
		return "❌ Order cancelled - MediCart"
	default:
		return "📋 Order update - MediCart"
	}
}

func statusMessage(status models.DeliveryStatus) string {
	switch status {
	case models.DeliveryStatusConfirmed:
		return "The pharmacy has confirmed your order and is preparing it."
	case models.DeliveryStatusShipped:
		return "Good news! Your order has been dispatched and is on its way."
	case models.DeliveryStatusDelivered:
		return "Your order has been delivered. Get well soon!"
	case models.DeliveryStatusCancelled:
		return "Your order has been cancelled. Your payment will be refunded to the original method."
	default:
		return "The status of your order has been updated."
	}
}

func statusIcon(status models.DeliveryStatus) string {
	switch status {
	case models.DeliveryStatusConfirmed:
		return "✅"
	case models.DeliveryStatusShipped:
		return "📦"
	case models.DeliveryStatusDelivered:
		return "🎉"
	case models.DeliveryStatusCancelled:
		return "❌"
	default:
		return "📋"
	}
}

func statusColor(status models.DeliveryStatus) string {
	switch status {
	case models.DeliveryStatusShipped:
		return "#3b82f6"
	case models.DeliveryStatusDelivered:
		return "#10b981"
	case models.DeliveryStatusCancelled:
		return "#ef4444"
	default:
		return "#667eea"
	}
}
