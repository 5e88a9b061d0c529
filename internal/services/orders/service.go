// Package orders est le registre des commandes payées. Une commande n'est
// créée qu'après un paiement vérifié ; seuls ses statuts évoluent ensuite.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"medicart_back_end/internal/events"
	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/inventory"
	"medicart_back_end/internal/store"
	"medicart_back_end/internal/utils"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrForbidden               = errors.New("order belongs to another customer")
	// ErrStatusConflict : un autre écrivain a changé le statut entre lecture et écriture.
	ErrStatusConflict = store.ErrStatusConflict
)

var transitions = map[models.DeliveryStatus][]models.DeliveryStatus{
	models.DeliveryStatusPending:   {models.DeliveryStatusConfirmed, models.DeliveryStatusCancelled},
	models.DeliveryStatusConfirmed: {models.DeliveryStatusShipped, models.DeliveryStatusCancelled},
	models.DeliveryStatusShipped:   {models.DeliveryStatusDelivered},
}

// CanTransition indique si from -> to figure dans la table des transitions.
func CanTransition(from, to models.DeliveryStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	orders    store.OrderStore
	ledger    *inventory.Ledger
	publisher events.Publisher
	notifier  utils.Notifier
}

func NewService(orders store.OrderStore, ledger *inventory.Ledger, publisher events.Publisher, notifier utils.Notifier) *Service {
	return &Service{orders: orders, ledger: ledger, publisher: publisher, notifier: notifier}
}

// Create enregistre une commande. ErrDuplicatePayment si le paiement a déjà produit une commande.
func (s *Service) Create(ctx context.Context, order *models.Order) error {
	return s.orders.InsertOrder(ctx, order)
}

// Discard retire une commande dont le stock n'a pas pu être décrémenté.
func (s *Service) Discard(ctx context.Context, order *models.Order) error {
	return s.orders.DeleteOrder(ctx, order)
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.FindOrder(ctx, id)
}

// FindForActor applique la règle de lecture : un client ne voit que ses commandes.
func (s *Service) FindForActor(ctx context.Context, actor models.Identity, id string) (*models.Order, error) {
	o, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && o.CustomerID != actor.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

// FindByCustomer retourne les commandes du client, les plus récentes d'abord.
func (s *Service) FindByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.orders.FindOrdersByCustomer(ctx, customerID)
}

func (s *Service) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.orders.FindOrderByPayment(ctx, paymentID)
}

func (s *Service) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	return s.orders.FindOrderByGatewayOrder(ctx, gatewayOrderID)
}

// UpdateStatus applique une transition de livraison. L'annulation remet le
// stock et passe le paiement en remboursement à traiter.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Identity, orderID string, next models.DeliveryStatus) (*models.Order, error) {
	o, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.DeliveryStatus, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.DeliveryStatus, next)
	}

	payment := o.PaymentStatus
	if next == models.DeliveryStatusCancelled {
		payment = models.PaymentStatusRefundPending
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, o.DeliveryStatus, next, payment); err != nil {
		return nil, err
	}

	previous := o.DeliveryStatus
	o.DeliveryStatus = next
	o.PaymentStatus = payment

	if next == models.DeliveryStatusCancelled {
		if err := s.ledger.Restock(ctx, o.Lines(), o.ID, models.MovementCancellation, actor.UserID); err != nil {
			log.Printf("❌ Remise en stock de la commande annulée %s incomplète: %v", o.ID, err)
		}
	}

	log.Printf("✅ Commande %s: %s -> %s (par %s)", o.ID, previous, next, actor.UserID)
	s.publisher.Publish(ctx, events.OrderStatusChanged, o.ID, map[string]any{
		"order_id":    o.ID,
		"customer_id": o.CustomerID,
		"from":        previous,
		"to":          next,
		"actor":       actor.UserID,
	})
	s.notifier.OrderStatusChanged(*o)
	return o, nil
}
