package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the sync queue.
const (
	KindSync   = "sync"
	KindDelete = "delete"
)

// TransactionEventMessage is the lightweight message published after a
// transaction write. It carries only the id and version; the worker
// fetches the full row from storage before mirroring it out.
type TransactionEventMessage struct {
	Kind        string    `json:"kind"`
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Version     int64     `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewSyncMessage(householdID, id, version int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Kind:        KindSync,
		ID:          id,
		HouseholdID: householdID,
		Version:     version,
		Timestamp:   time.Now(),
	}
}

func NewDeleteMessage(householdID, id int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Kind:        KindDelete,
		ID:          id,
		HouseholdID: householdID,
		Timestamp:   time.Now(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
