package events

// Event enumerates high-level topics inside the trader.
type Event string

const (
	EventOrderExecuted  Event = "order.executed"
	EventOrderRejected  Event = "order.rejected"
	EventPositionOpened Event = "position.opened"
	EventPositionClosed Event = "position.closed"
	EventDirective      Event = "directive"
	EventBalancesSynced Event = "balances.synced"
)

// All lists every topic, for subscribers that mirror the whole stream.
var All = []Event{
	EventOrderExecuted,
	EventOrderRejected,
	EventPositionOpened,
	EventPositionClosed,
	EventDirective,
	EventBalancesSynced,
}

// Envelope tags a payload with its topic when topics are merged into one stream.
type Envelope struct {
	Event   Event `json:"event"`
	Payload any   `json:"payload"`
}
