package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoData is returned by Envelope.Decode when the backend sent no data
var ErrNoData = errors.New("response has no data")

// Envelope is the {success, data, message} shape every backend endpoint returns
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`

	// StatusCode is the HTTP status of the response that carried the envelope
	StatusCode int `json:"-"`
}

// OK reports whether the HTTP status was 2xx
func (e *Envelope) OK() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// HasData reports whether data is present and truthy
func (e *Envelope) HasData() bool {
	switch string(bytes.TrimSpace(e.Data)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Decode unmarshals data into v
func (e *Envelope) Decode(v any) error {
	if !e.HasData() {
		return ErrNoData
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// MessageOr returns the backend message or fallback when it is empty
func (e *Envelope) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}
