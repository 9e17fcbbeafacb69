package intake

import (
	"errors"
	"time"

	"github.com/reklamap/recommender/internal/signals"
)

// #region complaint
// Complaint is one stored intake submission: the raw answers as received
// and the profile they were filed under.
type Complaint struct {
	ID         string            `json:"complaint_id"`
	Profile    string            `json:"profile"`
	Signals    signals.SignalSet `json:"signals"`
	ReceivedAt time.Time         `json:"received_at"`
}

// #endregion complaint

// ErrNotFound is returned when no complaint carries the requested ID.
var ErrNotFound = errors.New("complaint not found")
