// Package gateway implements the typed JSON-over-HTTP client for the MSS
// upstream gateway: a single POST envelope carries a "destination" routed
// to a named service, and the reply mirrors the header with a message code
// and an arbitrary payload.
package gateway

import "encoding/json"

// Destination names the routed service within one gateway request.
type Destination struct {
	Source  uint32 `json:"source"`
	Target  uint32 `json:"target"`
	Service string `json:"service"`
	Mode    int32  `json:"mode"`
	Sync    bool   `json:"sync"`
}

// MessageHeader is the request-side envelope header.
type MessageHeader struct {
	MessageID   string      `json:"messageId"`
	OpCode      int         `json:"op_code"`
	Timestamp   int64       `json:"timestamp"`
	Destination Destination `json:"destination"`
}

// ServiceMessage is the full request envelope.
type ServiceMessage struct {
	Header MessageHeader `json:"header"`
	Body   RequestBody   `json:"body"`
}

// RequestBody carries the call payload, always a JSON array.
type RequestBody struct {
	Payload []interface{} `json:"payload"`
}

// ReplyHeader mirrors the request header plus the gateway's status code and
// human-readable description.
type ReplyHeader struct {
	MessageID   string      `json:"messageId"`
	OpCode      int         `json:"op_code"`
	Timestamp   int64       `json:"timestamp"`
	Destination Destination `json:"destination"`
	MessageCode int         `json:"message_code"`
	Description string      `json:"description"`
}

// ServiceReply is the full reply envelope. InvokeService keeps the whole
// reply in Raw so callers can pull whatever shape they expect out of
// body.payload with gjson; Body is not filled by decoding.
type ServiceReply struct {
	Header ReplyHeader     `json:"header"`
	Body   json.RawMessage `json:"-"`
	Raw    []byte          `json:"-"`
}
