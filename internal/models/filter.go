package models

import "sort"

// FilterSet holds the event types suppressed from output. Only membership
// matters; an untyped event is matched by the empty string.
type FilterSet struct {
	types map[string]struct{}
}

func NewFilterSet(types ...string) FilterSet {
	fs := FilterSet{types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		fs.types[t] = struct{}{}
	}
	return fs
}

func (fs FilterSet) Contains(eventType string) bool {
	_, ok := fs.types[eventType]
	return ok
}

func (fs FilterSet) Len() int {
	return len(fs.types)
}

// List returns the members sorted, for logging.
func (fs FilterSet) List() []string {
	out := make([]string, 0, len(fs.types))
	for t := range fs.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
