package state

// Map holds the latest TestState per test id and remembers the order in which ids were
// first seen, so every consumer iterates states in a stable, insertion-defined order.
//
// Map is not safe for concurrent use. Mutate it from the event loop only.
type Map struct {
	order  []string
	states map[string]TestState
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{states: make(map[string]TestState)}
}

// Set stores st for id, replacing any previous state.
func (m *Map) Set(id string, st TestState) {
	if _, exists := m.states[id]; !exists {
		m.order = append(m.order, id)
	}
	m.states[id] = st
}

// Get returns the state for id.
func (m *Map) Get(id string) (TestState, bool) {
	st, ok := m.states[id]
	return st, ok
}

// Len returns the number of tracked tests.
func (m *Map) Len() int {
	return len(m.order)
}

// Range calls fn for each tracked state in first-seen order until fn returns false.
func (m *Map) Range(fn func(id string, st TestState) bool) {
	for _, id := range m.order {
		if !fn(id, m.states[id]) {
			return
		}
	}
}
