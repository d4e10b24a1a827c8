package templates

import "github.com/danieljhkim/atelier/internal/event"

// Summary describes a stored template without its events.
type Summary struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`

	// Creates and Links count the events by kind
	Creates int `json:"creates"`
	Links   int `json:"links"`

	// RootKey is meta.key of the template's root component, if any
	RootKey string `json:"rootKey,omitempty"`
}

// Summarize builds a Summary from a template's events.
func Summarize(dir, name string, events []event.Event) Summary {
	s := Summary{Dir: dir, Name: name}
	for _, ev := range events {
		switch e := ev.(type) {
		case *event.CreateEvent:
			s.Creates++
			if e.State.Parent.ID == event.TemplateRootID && s.RootKey == "" {
				s.RootKey = e.Key()
			}
		case *event.LinkEvent:
			s.Links++
		}
	}
	return s
}
