package canvas

import (
	"encoding/json"
	"testing"
)

func TestEnvelope_DecodeClick(t *testing.T) {
	raw := `{"v":1,"seq":4,"gen":2,"type":"component-click","payload":{"componentId":"cmp-hero","componentType":"hero"}}`

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.V != ProtocolVersion || env.Seq != 4 || env.Gen != 2 {
		t.Fatalf("envelope header: got %+v", env)
	}
	if env.Type != EventClick {
		t.Fatalf("type: got %q, want %q", env.Type, EventClick)
	}

	var p ClickPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.ComponentID != "cmp-hero" || p.ComponentType != "hero" {
		t.Fatalf("payload: got %+v", p)
	}
}

func TestEnvelope_EmptyPayloadTypes(t *testing.T) {
	raw := `{"v":1,"seq":1,"gen":1,"type":"ready","payload":{}}`

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != EventReady {
		t.Fatalf("type: got %q, want %q", env.Type, EventReady)
	}
	if string(env.Payload) != "{}" {
		t.Fatalf("payload: got %s, want {}", env.Payload)
	}
}
