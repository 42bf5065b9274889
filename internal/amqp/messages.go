package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"meinbudget/internal/outbox"
)

// SchemaVersion is bumped whenever the envelope layout changes.
const SchemaVersion = 1

// SyncMessage wraps an outbox record on the wire. Consumers use Schema to
// reject envelopes they do not understand.
type SyncMessage struct {
	Schema    int           `json:"schema"`
	Record    outbox.Record `json:"record"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewSyncMessage(rec outbox.Record) *SyncMessage {
	return &SyncMessage{
		Schema:    SchemaVersion,
		Record:    rec,
		Timestamp: time.Now(),
	}
}

// RoutingKey routes each collection to its own binding.
func (m *SyncMessage) RoutingKey(queue string) string {
	return queue + "." + m.Record.Collection
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Schema != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", msg.Schema)
	}
	return &msg, nil
}
