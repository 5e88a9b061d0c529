// Package payment isole la passerelle de paiement : création d'intentions,
// signature des callbacks et lecture des webhooks Stripe.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"medicart_back_end/internal/models"
)

var ErrGateway = errors.New("payment gateway error")

// Gateway ouvre une intention de paiement chez le prestataire. Le montant
// est en unités mineures (centimes, paise).
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*models.PaymentIntent, error)
	Name() string
}

// SandboxGateway est une passerelle locale pour le développement et les
// tests. Elle sait produire le callback signé qu'enverrait le prestataire.
type SandboxGateway struct {
	signer *Signer
	// Fail, si défini, est retourné par CreateIntent.
	Fail error
}

func NewSandboxGateway(signer *Signer) *SandboxGateway {
	return &SandboxGateway{signer: signer}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, _ map[string]string) (*models.PaymentIntent, error) {
	if g.Fail != nil {
		return nil, g.Fail
	}
	id := uuid.NewString()
	return &models.PaymentIntent{
		IntentID:     "order_" + id,
		Amount:       amountMinor,
		Currency:     currency,
		Status:       "created",
		ClientSecret: "sandbox_secret_" + id,
	}, nil
}

// Complete simule le paiement réussi d'une intention.
func (g *SandboxGateway) Complete(gatewayOrderID string) (paymentID, signature string) {
	paymentID = "pay_" + uuid.NewString()
	return paymentID, g.signer.Sign(gatewayOrderID, paymentID)
}
