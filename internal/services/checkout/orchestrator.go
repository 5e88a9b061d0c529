// Package checkout convertit un panier en commande payée : création de
// l'intention de paiement, vérification du callback signé, puis commit
// atomique du stock et de la commande.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medicart_back_end/internal/events"
	"medicart_back_end/internal/metrics"
	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/cart"
	"medicart_back_end/internal/services/inventory"
	"medicart_back_end/internal/services/orders"
	"medicart_back_end/internal/services/payment"
	"medicart_back_end/internal/store"
	"medicart_back_end/internal/utils"
)

const DefaultStagingTTL = 48 * time.Hour

type Deps struct {
	Carts     *cart.Service
	Ledger    *inventory.Ledger
	Products  store.ProductStore
	Orders    *orders.Service
	Staging   store.StagingStore
	Locker    store.Locker
	Tx        store.TxRunner
	Gateway   payment.Gateway
	Signer    *payment.Signer
	Publisher events.Publisher
	Notifier  utils.Notifier
	Metrics   *metrics.Metrics

	Currency   string
	StagingTTL time.Duration
}

type Orchestrator struct {
	Deps
}

func New(d Deps) *Orchestrator {
	if d.Tx == nil {
		d.Tx = store.NoTx{}
	}
	if d.Publisher == nil {
		d.Publisher = events.LogPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = utils.NoopNotifier{}
	}
	if d.Currency == "" {
		d.Currency = "inr"
	}
	if d.StagingTTL <= 0 {
		d.StagingTTL = DefaultStagingTTL
	}
	return &Orchestrator{Deps: d}
}

// Intent est renvoyé au client pour qu'il règle auprès de la passerelle.
type Intent struct {
	GatewayOrderID string          `json:"gatewayOrderId"`
	ClientSecret   string          `json:"clientSecret,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	AmountMinor    int64           `json:"amountMinor"`
	Currency       string          `json:"currency"`
	Gateway        string          `json:"gateway"`
	State          State           `json:"state"`
}

// Callback est le retour signé de la passerelle après paiement.
type Callback struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type Receipt struct {
	Order    *models.Order `json:"order"`
	State    State         `json:"state"`
	Replayed bool          `json:"replayed"`
}

func lines(items []models.CartItem) []models.StockLine {
	out := make([]models.StockLine, 0, len(items))
	for _, it := range items {
		out = append(out, models.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// Begin valide le panier et l'adresse, contrôle le stock puis ouvre une
// intention de paiement. Rien n'est réservé ni décrémenté.
func (o *Orchestrator) Begin(ctx context.Context, id models.Identity, address models.DeliveryAddress) (intent *Intent, err error) {
	defer func() { o.observe("begin", StateIntentCreated, err) }()

	c, err := o.Carts.ListItems(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, reject(StateRejectedEmptyCart, "cart is empty")
	}

	if fields := address.Validate(); len(fields) > 0 {
		e := reject(StateRejectedInvalidAddress, "delivery address is incomplete")
		e.Fields = fields
		return nil, e
	}

	items := make([]models.CartItem, 0, len(c.Items))
	for _, l := range c.Items {
		items = append(items, models.CartItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	avail, err := o.Ledger.CheckAvailability(ctx, lines(items))
	if err != nil {
		return nil, err
	}
	if !avail.OK {
		e := reject(StateRejectedInsufficientStock, "some items are not available in the requested quantity")
		e.Shortages = avail.Shortages
		return nil, e
	}

	amountMinor := models.ToMinorUnits(c.Total)
	pi, err := o.Gateway.CreateIntent(ctx, amountMinor, o.Currency, map[string]string{
		"customer_id": id.UserID,
		"email":       id.Email,
		"items":       strconv.Itoa(len(items)),
	})
	if err != nil {
		log.Printf("❌ Passerelle %s indisponible pour %s: %v", o.Gateway.Name(), id.UserID, err)
		return nil, &Error{State: StateFailedGateway, Message: "payment gateway unavailable, please retry", Err: err}
	}

	staged := models.StagedCheckout{
		GatewayOrderID:  pi.IntentID,
		CustomerID:      id.UserID,
		Email:           id.Email,
		DeliveryAddress: address,
		Amount:          c.Total,
		Currency:        o.Currency,
		Items:           items,
		CreatedAt:       time.Now(),
	}
	if err := o.Staging.Stage(ctx, staged, o.StagingTTL); err != nil {
		return nil, fmt.Errorf("stage checkout %s: %w", pi.IntentID, err)
	}

	log.Printf("✅ Intention %s créée pour %s (%s %s)", pi.IntentID, id.UserID, c.Total.StringFixed(2), o.Currency)
	return &Intent{
		GatewayOrderID: pi.IntentID,
		ClientSecret:   pi.ClientSecret,
		Amount:         c.Total,
		AmountMinor:    amountMinor,
		Currency:       o.Currency,
		Gateway:        o.Gateway.Name(),
		State:          StateIntentCreated,
	}, nil
}

// Verify contrôle la signature du callback puis commit la commande.
func (o *Orchestrator) Verify(ctx context.Context, id models.Identity, cb Callback) (r *Receipt, err error) {
	defer func() { o.observe("verify", StateOrderCommitted, err) }()

	if err := o.Signer.Verify(cb.GatewayOrderID, cb.GatewayPaymentID, cb.Signature); err != nil {
		log.Printf("🔐 Signature de paiement invalide: client=%s intention=%s paiement=%s", id.UserID, cb.GatewayOrderID, cb.GatewayPaymentID)
		return nil, &Error{State: StateRejectedBadSignature, Message: "payment verification failed", Err: err}
	}
	return o.commit(ctx, id.UserID, cb.GatewayOrderID, cb.GatewayPaymentID)
}

// CompleteFromWebhook commit une commande confirmée par le webhook Stripe.
// Le client est retrouvé via le checkout en attente. Un paiement sans
// checkout ni commande est signalé pour remboursement.
func (o *Orchestrator) CompleteFromWebhook(ctx context.Context, p *payment.WebhookPayment) (r *Receipt, err error) {
	defer func() { o.observe("webhook", StateOrderCommitted, err) }()

	if existing, err := o.Orders.FindByPaymentID(ctx, p.PaymentID); err == nil {
		return &Receipt{Order: existing, State: StateOrderCommitted, Replayed: true}, nil
	}

	staged, err := o.Staging.GetStaged(ctx, p.IntentID)
	if err == nil {
		return o.commit(ctx, staged.CustomerID, p.IntentID, p.PaymentID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load staged checkout: %w", err)
	}

	prior, err := o.Orders.FindByGatewayOrderID(ctx, p.IntentID)
	switch {
	case err == nil:
		return o.commit(ctx, prior.CustomerID, p.IntentID, p.PaymentID)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("find order for intent %s: %w", p.IntentID, err)
	}

	log.Printf("⚠️ Webhook %s sans checkout en attente (expiré ou inconnu)", p.IntentID)
	o.orphan(ctx, &models.StagedCheckout{
		GatewayOrderID: p.IntentID,
		CustomerID:     p.Metadata["customer_id"],
		Email:          p.Metadata["email"],
		Amount:         models.FromMinorUnits(p.AmountMinor),
		Currency:       p.Currency,
	}, p.PaymentID, StateRejectedUnknownIntent)
	return nil, reject(StateRejectedUnknownIntent, "no pending checkout for this payment")
}

// sameLines compare les couples produit/quantité, ordre et doublons ignorés.
func sameLines(a, b []models.CartItem) bool {
	count := func(items []models.CartItem) map[string]int {
		m := make(map[string]int, len(items))
		for _, it := range items {
			m[it.ProductID] += it.Quantity
		}
		return m
	}
	ma, mb := count(a), count(b)
	if len(ma) != len(mb) {
		return false
	}
	for id, q := range ma {
		if mb[id] != q {
			return false
		}
	}
	return true
}

// commit convertit le panier payé en commande sous le verrou du client. Le
// panier doit correspondre au checkout en attente et ne pas coûter plus que
// le montant encaissé. La commande est écrite avant le décrément du stock.
func (o *Orchestrator) commit(ctx context.Context, customerID, gatewayOrderID, paymentID string) (*Receipt, error) {
	unlock, err := o.Locker.Lock(ctx, cart.LockKey(customerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := o.Orders.FindByPaymentID(ctx, paymentID)
	if err == nil {
		log.Printf("⚠️ Paiement %s déjà enregistré (commande %s), rejeu ignoré", paymentID, existing.ID)
		return &Receipt{Order: existing, State: StateOrderCommitted, Replayed: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("replay check: %w", err)
	}

	prior, err := o.Orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err == nil {
		// Un second paiement sur une intention déjà servie.
		o.orphan(ctx, &models.StagedCheckout{
			GatewayOrderID: gatewayOrderID,
			CustomerID:     prior.CustomerID,
			Amount:         prior.TotalPrice,
			Currency:       prior.Currency,
		}, paymentID, StateRejectedIntentFulfilled)
		return nil, reject(StateRejectedIntentFulfilled, "this checkout has already been paid")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("intent check: %w", err)
	}

	staged, err := o.Staging.GetStaged(ctx, gatewayOrderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && staged.CustomerID != customerID) {
		log.Printf("⚠️ Aucun checkout en attente pour %s (client %s)", gatewayOrderID, customerID)
		return nil, reject(StateRejectedUnknownIntent, "no pending checkout for this payment")
	}
	if err != nil {
		return nil, fmt.Errorf("load staged checkout: %w", err)
	}

	items, err := o.Carts.Items(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		o.orphan(ctx, staged, paymentID, StateRejectedEmptyCart)
		return nil, reject(StateRejectedEmptyCart, "cart is empty")
	}
	if !sameLines(items, staged.Items) {
		log.Printf("⚠️ Panier de %s modifié depuis l'intention %s", customerID, gatewayOrderID)
		o.orphan(ctx, staged, paymentID, StateRejectedCartChanged)
		return nil, reject(StateRejectedCartChanged, "cart changed after payment was started, please check out again")
	}

	stock := lines(items)
	avail, err := o.Ledger.CheckAvailability(ctx, stock)
	if err != nil {
		return nil, err
	}
	if !avail.OK {
		o.orphan(ctx, staged, paymentID, StateRejectedInsufficientStock)
		e := reject(StateRejectedInsufficientStock, "some items are no longer available")
		e.Shortages = avail.Shortages
		return nil, e
	}

	order, err := o.buildOrder(ctx, staged, items, paymentID)
	if err != nil {
		return nil, err
	}
	if order.TotalPrice.GreaterThan(staged.Amount) {
		log.Printf("⚠️ Prix en hausse pour %s: payé %s, dû %s", gatewayOrderID, staged.Amount.StringFixed(2), order.TotalPrice.StringFixed(2))
		o.orphan(ctx, staged, paymentID, StateRejectedCartChanged)
		return nil, reject(StateRejectedCartChanged, "prices changed after payment was started, please check out again")
	}

	err = o.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := o.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := o.Ledger.Decrement(ctx, stock, order.ID); err != nil {
			if !store.InTx(ctx) {
				if derr := o.Orders.Discard(context.WithoutCancel(ctx), order); derr != nil {
					log.Printf("❌ Commande %s sans stock décrémenté non retirée: %v", order.ID, derr)
				}
			}
			return err
		}
		return nil
	})

	var shortage *inventory.InsufficientStockError
	switch {
	case err == nil:
	case errors.As(err, &shortage):
		o.orphan(ctx, staged, paymentID, StateRejectedInsufficientStock)
		e := reject(StateRejectedInsufficientStock, "some items are no longer available")
		e.Shortages = shortage.Shortages
		e.Err = err
		return nil, e
	case errors.Is(err, store.ErrDuplicatePayment):
		prior, ferr := o.Orders.FindByPaymentID(ctx, paymentID)
		if ferr != nil {
			prior, ferr = o.Orders.FindByGatewayOrderID(ctx, gatewayOrderID)
		}
		if ferr != nil {
			return nil, &Error{State: StateFailedCommit, Message: "order could not be recorded", Err: errors.Join(err, ferr)}
		}
		return &Receipt{Order: prior, State: StateOrderCommitted, Replayed: true}, nil
	default:
		log.Printf("❌ Commit de la commande %s (paiement %s) échoué: %v", order.ID, paymentID, err)
		return nil, &Error{State: StateFailedCommit, Message: "order could not be recorded", Err: err}
	}

	if err := o.Staging.Unstage(ctx, gatewayOrderID); err != nil {
		log.Printf("⚠️ Checkout %s non consommé: %v", gatewayOrderID, err)
	}
	if err := o.Carts.Clear(ctx, customerID); err != nil {
		log.Printf("⚠️ Panier de %s non vidé après la commande %s: %v", customerID, order.ID, err)
	}

	log.Printf("✅ Commande %s enregistrée: %d ligne(s), %s %s, paiement %s", order.ID, len(order.Items), order.TotalPrice.StringFixed(2), order.Currency, paymentID)
	o.Publisher.Publish(ctx, events.OrderCommitted, order.ID, map[string]any{
		"order_id":           order.ID,
		"customer_id":        order.CustomerID,
		"total":              order.TotalPrice.StringFixed(2),
		"currency":           order.Currency,
		"gateway_order_id":   order.GatewayOrderID,
		"gateway_payment_id": order.GatewayPaymentID,
		"items":              len(order.Items),
	})
	o.Notifier.OrderConfirmed(*order)
	return &Receipt{Order: order, State: StateOrderCommitted}, nil
}

// buildOrder fige les prix courants dans les lignes de la commande.
func (o *Orchestrator) buildOrder(ctx context.Context, staged *models.StagedCheckout, items []models.CartItem, paymentID string) (*models.Order, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := o.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	now := time.Now()
	order := &models.Order{
		ID:               uuid.NewString(),
		CustomerID:       staged.CustomerID,
		CustomerEmail:    staged.Email,
		Items:            make([]models.OrderItem, 0, len(items)),
		TotalPrice:       decimal.Zero,
		Currency:         staged.Currency,
		PaymentStatus:    models.PaymentStatusPaid,
		DeliveryStatus:   models.DeliveryStatusPending,
		DeliveryAddress:  staged.DeliveryAddress,
		GatewayOrderID:   staged.GatewayOrderID,
		GatewayPaymentID: paymentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, it := range items {
		p := products[it.ProductID]
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       it.ProductID,
			Name:            p.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: p.Price,
		})
		order.TotalPrice = order.TotalPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if order.TotalPrice.LessThan(staged.Amount) {
		log.Printf("⚠️ Prix en baisse pour %s: payé %s, commande %s", staged.GatewayOrderID, staged.Amount.StringFixed(2), order.TotalPrice.StringFixed(2))
	}
	return order, nil
}

// orphan signale un paiement encaissé qui ne donnera pas de commande.
func (o *Orchestrator) orphan(ctx context.Context, staged *models.StagedCheckout, paymentID string, reason State) {
	log.Printf("⚠️ Paiement %s sans commande (%s), remboursement à traiter", paymentID, reason)
	o.Publisher.Publish(ctx, events.PaymentOrphaned, paymentID, map[string]any{
		"customer_id":        staged.CustomerID,
		"email":              staged.Email,
		"gateway_order_id":   staged.GatewayOrderID,
		"gateway_payment_id": paymentID,
		"amount":             staged.Amount.StringFixed(2),
		"currency":           staged.Currency,
		"reason":             string(reason),
	})
}

func (o *Orchestrator) observe(phase string, success State, err error) {
	state := success
	var ce *Error
	switch {
	case err == nil:
	case errors.As(err, &ce):
		state = ce.State
	default:
		state = "ERROR"
	}
	o.Metrics.Checkout(phase, string(state))
}
