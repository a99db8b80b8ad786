package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one persisted question/answer turn. Stores hand out copies; an
// Exchange is never modified after it is appended.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Intent    Intent    `json:"intent"`
	Results   ResultSet `json:"results"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExchange stamps a completed turn with a UUIDv7 identifier and the
// current time.
func NewExchange(sessionID, question string, intent Intent, results ResultSet, answer string) Exchange {
	return Exchange{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Question:  question,
		Intent:    intent.Clone(),
		Results:   results.Clone(),
		Answer:    answer,
		Timestamp: time.Now(),
	}
}

// Clone returns a deep copy of the exchange.
func (e Exchange) Clone() Exchange {
	out := e
	out.Intent = e.Intent.Clone()
	out.Results = e.Results.Clone()
	return out
}
