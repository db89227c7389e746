package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewEnvelope_FillsIdentity(t *testing.T) {
	a := NewEnvelope(OrderCreated, map[string]int{"id": 1})
	b := NewEnvelope(OrderCreated, map[string]int{"id": 1})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.OccurredAt.IsZero() || a.OccurredAt.Location().String() != "UTC" {
		t.Fatalf("expected UTC timestamp, got %v", a.OccurredAt)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != OrderCreated {
		t.Fatalf("type = %v", decoded["type"])
	}
}

func TestRecorder_KeepsOrder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	_ = r.Publish(ctx, TripCreated, nil)
	_ = r.Publish(ctx, TripStatusChanged, nil)

	got := r.Types()
	if len(got) != 2 || got[0] != TripCreated || got[1] != TripStatusChanged {
		t.Fatalf("unexpected types: %v", got)
	}
	var p Publisher = Nop{}
	if err := p.Publish(ctx, "x", nil); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}
