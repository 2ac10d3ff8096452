package outbox

// Status is the relay state of an outbox row persisted inside the same DB
// transaction as the state change it announces.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
)
