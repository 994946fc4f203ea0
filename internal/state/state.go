package state

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	// StateVersion is the current layout file format version
	StateVersion = 1
)

var (
	// ErrUnsupportedVersion is returned for files written by a newer build
	ErrUnsupportedVersion = errors.New("unsupported layout file version")
	// ErrEmptyPayload is returned when a file carries no engine state
	ErrEmptyPayload = errors.New("layout file has no payload")
)

// LayoutFile is the root structure persisted to disk. The payload is the
// engine's own serialized form; this package only frames it.
type LayoutFile struct {
	Version     int             `json:"version"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Payload     json.RawMessage `json:"payload"`
}

// NewLayoutFile wraps an already marshaled payload
func NewLayoutFile(payload json.RawMessage) *LayoutFile {
	return &LayoutFile{
		Version:     StateVersion,
		LastUpdated: time.Now(),
		Payload:     payload,
	}
}

// Decode unmarshals the payload into v
func (f *LayoutFile) Decode(v any) error {
	if len(f.Payload) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(f.Payload, v)
}

// Info describes a layout file without decoding its payload.
type Info struct {
	Path         string    `json:"path"`
	Exists       bool      `json:"exists"`
	Version      int       `json:"version,omitempty"`
	LastUpdated  time.Time `json:"lastUpdated,omitzero"`
	PayloadBytes int       `json:"payloadBytes,omitempty"`
}
