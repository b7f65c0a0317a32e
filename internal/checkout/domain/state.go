package domain

// State is the payment orchestrator's position in a sale.
type State string

const (
	StateIdle           State = "IDLE"
	StateSubmitting     State = "SUBMITTING"
	StateCashDone       State = "CASH_DONE"
	StateGatewayInit    State = "GATEWAY_INIT"
	StateGatewayPolling State = "GATEWAY_POLLING"
	StatePaid           State = "PAID"
	StateFailed         State = "FAILED"
	StateCancelled      State = "CANCELLED"
)

// IsTerminal reports whether no further transitions occur for this sale.
func (s State) IsTerminal() bool {
	switch s {
	case StateCashDone, StatePaid, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Settled reports a successfully completed sale.
func (s State) Settled() bool {
	return s == StateCashDone || s == StatePaid
}

func (s State) String() string {
	return string(s)
}

// PaymentSession is the transient gateway-side counterpart of one
// NON_TUNAI transaction. Liveness is owned by the orchestrator's poll
// context, not a flag on the session itself.
type PaymentSession struct {
	OrderID string        `json:"order_id"`
	Amount  int64         `json:"amount"`
	Status  PaymentStatus `json:"payment_status"`
}
