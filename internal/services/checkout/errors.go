package checkout

import (
	"fmt"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/inventory"
)

type State string

const (
	StateCartReview      State = "CART_REVIEW"
	StateIntentCreated   State = "INTENT_CREATED"
	StatePaymentVerified State = "PAYMENT_VERIFIED"
	StateOrderCommitted  State = "ORDER_COMMITTED"

	StateRejectedInvalidAddress    State = "REJECTED_INVALID_ADDRESS"
	StateRejectedInsufficientStock State = "REJECTED_INSUFFICIENT_STOCK"
	StateRejectedEmptyCart         State = "REJECTED_EMPTY_CART"
	StateRejectedBadSignature      State = "REJECTED_BAD_SIGNATURE"
	StateRejectedUnknownIntent     State = "REJECTED_UNKNOWN_INTENT"
	StateRejectedCartChanged       State = "REJECTED_CART_CHANGED"
	StateRejectedIntentFulfilled   State = "REJECTED_INTENT_FULFILLED"
	StateFailedGateway             State = "FAILED_GATEWAY"
	StateFailedCommit              State = "FAILED_COMMIT"
)

// Error est l'issue négative d'un checkout. Fields et Shortages sont
// renvoyés au client ; Err reste côté serveur.
type Error struct {
	State     State
	Message   string
	Fields    []models.FieldError
	Shortages []inventory.Shortage
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.State, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func reject(state State, message string) *Error {
	return &Error{State: state, Message: message}
}
