package event

import (
	"encoding/json"
	"fmt"
)

type createWire struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Meta  map[string]any  `json:"meta"`
	State json.RawMessage `json:"state"`
}

type linkWire struct {
	Type    string `json:"type"`
	ChildID string `json:"childId"`
	RefID   string `json:"refId"`
}

// MarshalJSON encodes the state with parent and alias inlined next to Props.
func (s CreateState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Props)+2)
	for k, v := range s.Props {
		out[k] = v
	}
	out["parent"] = s.Parent
	if s.Alias != "" {
		out["alias"] = s.Alias
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits parent and alias out of the remaining state fields.
func (s *CreateState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = CreateState{}
	if p, ok := raw["parent"]; ok {
		if err := json.Unmarshal(p, &s.Parent); err != nil {
			return fmt.Errorf("state.parent: %w", err)
		}
		delete(raw, "parent")
	}
	if a, ok := raw["alias"]; ok {
		if err := json.Unmarshal(a, &s.Alias); err != nil {
			return fmt.Errorf("state.alias: %w", err)
		}
		delete(raw, "alias")
	}
	if len(raw) == 0 {
		return nil
	}
	s.Props = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("state.%s: %w", k, err)
		}
		s.Props[k] = val
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e *CreateEvent) MarshalJSON() ([]byte, error) {
	state, err := json.Marshal(e.State)
	if err != nil {
		return nil, err
	}
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(createWire{ID: e.ID, Type: e.Type, Meta: meta, State: state})
}

// MarshalJSON implements json.Marshaler.
func (e *LinkEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(linkWire{Type: e.Type, ChildID: e.ChildID, RefID: e.RefID})
}

// Decode decodes a single event, choosing the variant from its type.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch KindOf(head.Type) {
	case KindCreate:
		var w createWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode create event: %w", err)
		}
		ev := &CreateEvent{ID: w.ID, Type: w.Type, Meta: w.Meta}
		if ev.Meta == nil {
			ev.Meta = map[string]any{}
		}
		if len(w.State) > 0 {
			if err := json.Unmarshal(w.State, &ev.State); err != nil {
				return nil, fmt.Errorf("decode create event %s: %w", w.ID, err)
			}
		}
		return ev, nil
	case KindLink:
		var w linkWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode link event: %w", err)
		}
		return &LinkEvent{Type: w.Type, ChildID: w.ChildID, RefID: w.RefID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}
}

// List is an ordered event sequence with JSON array encoding.
type List []Event

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode event list: %w", err)
	}
	out := make(List, 0, len(raws))
	for i, raw := range raws {
		ev, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	*l = out
	return nil
}
