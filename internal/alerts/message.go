// Package alerts publishes anomaly alerts to an AMQP exchange.
package alerts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/spendwise/internal/daemon"
	"github.com/theirongolddev/spendwise/internal/model"
)

// MessageType identifies anomaly alert messages on the wire.
const MessageType = "spendwise.anomaly"

// AnomalyMessage is the JSON body of a published alert.
type AnomalyMessage struct {
	MessageID     string         `json:"message_id"`
	Type          string         `json:"type"`
	UserID        string         `json:"user_id"`
	DetectedAt    time.Time      `json:"detected_at"`
	TransactionID string         `json:"transaction_id"`
	Category      string         `json:"category"`
	Severity      model.Severity `json:"severity"`
	Amount        float64        `json:"amount"`
	ZScore        float64        `json:"z_score"`
	ExpectedRange model.Range    `json:"expected_range"`
	Description   string         `json:"description"`
	Date          time.Time      `json:"date"`
}

// NewAnomalyMessage builds a message with a fresh ID.
func NewAnomalyMessage(a daemon.AnomalyAlert) *AnomalyMessage {
	return &AnomalyMessage{
		MessageID:     uuid.NewString(),
		Type:          MessageType,
		UserID:        a.UserID,
		DetectedAt:    a.DetectedAt,
		TransactionID: a.Anomaly.TransactionID,
		Category:      a.Anomaly.Category,
		Severity:      a.Anomaly.Severity,
		Amount:        a.Anomaly.ActualAmount,
		ZScore:        a.Anomaly.ZScore,
		ExpectedRange: a.Anomaly.ExpectedRange,
		Description:   a.Anomaly.Description,
		Date:          a.Anomaly.Date,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *AnomalyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnomalyMessageFromJSON decodes a message body.
func AnomalyMessageFromJSON(data []byte) (*AnomalyMessage, error) {
	var msg AnomalyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
