// CLAUDE:SUMMARY Versioned surface→host event envelope and its payload shapes.
package canvas

import "encoding/json"

// ProtocolVersion is the envelope version the runtime emits and the host
// accepts.
const ProtocolVersion = 1

// BindingName is the CDP binding the runtime posts envelopes through.
const BindingName = "__atelier_emit"

// Envelope event types.
const (
	EventReady     = "ready"
	EventClick     = "component-click"
	EventDragStart = "component-dragstart"
	EventDragEnd   = "component-dragend"
)

// Envelope is one surface→host message. Fire-and-forget: no ack, no retry.
// Gen is the mount generation the message was produced under; the host
// drops envelopes from any generation but the current one.
type Envelope struct {
	V       int             `json:"v"`
	Seq     uint64          `json:"seq"`
	Gen     uint64          `json:"gen"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClickPayload accompanies EventClick.
type ClickPayload struct {
	ComponentID   string `json:"componentId"`
	ComponentType string `json:"componentType"`
}

// DragStartPayload accompanies EventDragStart. EventDragEnd and EventReady
// carry empty payloads.
type DragStartPayload struct {
	ComponentID string `json:"componentId"`
}
