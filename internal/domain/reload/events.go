package reload

import "time"

const (
	EventReloadRequested = "ReloadRequested"
	EventReloadApproved  = "ReloadApproved"
	EventReloadRejected  = "ReloadRejected"
)

type ReloadRequested struct {
	ReloadID    string    `json:"reload_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Amount      int64     `json:"amount"`
	RequestedAt time.Time `json:"requested_at"`
}

type ReloadApproved struct {
	ReloadID   string    `json:"reload_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}

type ReloadRejected struct {
	ReloadID   string    `json:"reload_id"`
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason,omitempty"`
	RejectedBy string    `json:"rejected_by"`
	RejectedAt time.Time `json:"rejected_at"`
}
