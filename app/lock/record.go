package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record is the serialized lock object: who holds the lock and since when.
// AcquiredAt is used only for staleness evaluation, never for ordering.
type Record struct {
	OwnerToken string    `json:"owner_token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// EncodeRecord serializes a record to the stored object body.
func EncodeRecord(rec Record) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode lock record: %w", err)
	}
	return body, nil
}

// DecodeRecord parses a stored object body into a record.
func DecodeRecord(body []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("decode lock record: %w", err)
	}
	if rec.OwnerToken == "" {
		return Record{}, errors.New("decode lock record: missing owner token")
	}
	return rec, nil
}
