package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope types
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Error codes, JSON-RPC style
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	CodeTimeout        = -32001
	CodeRateLimited    = -32029
)

// MessageEnvelope is the top-level message for every line on the socket
type MessageEnvelope struct {
	Type     string    `json:"type"` // "request", "response", or "event"
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// Request represents an RPC request
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents an RPC response
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo represents an error in a response
type ErrorInfo struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Event is pushed by the server without a request
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRequest creates a request envelope; params may be nil
func NewRequest(id, method string, params any) (*MessageEnvelope, error) {
	raw, err := marshalOptional(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	return &MessageEnvelope{
		Type:    TypeRequest,
		Request: &Request{ID: id, Method: method, Params: raw},
	}, nil
}

// NewResponse creates a successful response envelope
func NewResponse(id string, result any) (*MessageEnvelope, error) {
	raw, err := marshalOptional(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &MessageEnvelope{
		Type:     TypeResponse,
		Response: &Response{ID: id, Result: raw},
	}, nil
}

// NewErrorResponse creates a failed response envelope
func NewErrorResponse(id string, code int, msg string) *MessageEnvelope {
	return &MessageEnvelope{
		Type:     TypeResponse,
		Response: &Response{ID: id, Error: &ErrorInfo{Code: code, Message: msg}},
	}
}

// NewEvent creates an event envelope stamped with a fresh id
func NewEvent(eventType string, data any, at time.Time) (*MessageEnvelope, error) {
	raw, err := marshalOptional(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return &MessageEnvelope{
		Type: TypeEvent,
		Event: &Event{
			ID:        uuid.NewString(),
			EventType: eventType,
			Data:      raw,
			Timestamp: at,
		},
	}, nil
}

// DecodeParams unmarshals the request params into v. Missing params leave
// v untouched.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 || string(r.Params) == "null" {
		return nil
	}
	return json.Unmarshal(r.Params, v)
}

// IsError checks if the response contains an error
func (r *Response) IsError() bool {
	return r.Error != nil
}

// GetError returns the error message, or "" on success
func (r *Response) GetError() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// Decode unmarshals the result into v
func (r *Response) Decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Result) == 0 {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
