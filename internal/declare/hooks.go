package declare

import (
	"context"
	"strings"
)

// HookFunc is a lifecycle hook body.
type HookFunc func(ctx context.Context) error

// HookKind names one of the four lifecycle hook sequences.
type HookKind string

const (
	BeforeAll  HookKind = "beforeAll"
	AfterAll   HookKind = "afterAll"
	BeforeEach HookKind = "beforeEach"
	AfterEach  HookKind = "afterEach"
)

// HookSet holds the hooks registered for one hierarchy key, in registration order.
type HookSet struct {
	BeforeAll  []HookFunc
	AfterAll   []HookFunc
	BeforeEach []HookFunc
	AfterEach  []HookFunc
}

func (h *HookSet) add(kind HookKind, fn HookFunc) {
	switch kind {
	case BeforeAll:
		h.BeforeAll = append(h.BeforeAll, fn)
	case AfterAll:
		h.AfterAll = append(h.AfterAll, fn)
	case BeforeEach:
		h.BeforeEach = append(h.BeforeEach, fn)
	case AfterEach:
		h.AfterEach = append(h.AfterEach, fn)
	}
}

// Of returns the hooks of the given kind.
func (h *HookSet) Of(kind HookKind) []HookFunc {
	if h == nil {
		return nil
	}
	switch kind {
	case BeforeAll:
		return h.BeforeAll
	case AfterAll:
		return h.AfterAll
	case BeforeEach:
		return h.BeforeEach
	case AfterEach:
		return h.AfterEach
	}
	return nil
}

// Len returns the total number of hooks in the set.
func (h *HookSet) Len() int {
	if h == nil {
		return 0
	}
	return len(h.BeforeAll) + len(h.AfterAll) + len(h.BeforeEach) + len(h.AfterEach)
}

// HierarchySeparator joins group ids into a hierarchy key.
const HierarchySeparator = ">"

// HierarchyKey joins the ids of groups, outermost first.
func HierarchyKey(groups []Group) string {
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return strings.Join(ids, HierarchySeparator)
}

// HookRegistrar returns a function that registers hooks of the given kind against the
// group stack active at call time.
func (s *Session) HookRegistrar(kind HookKind) func(HookFunc) error {
	return func(fn HookFunc) error {
		if fn == nil {
			return &HookTypeError{Kind: kind}
		}
		if len(s.stack) == 0 {
			s.fileHooks.add(kind, fn)
			return nil
		}
		s.groupHookSet(HierarchyKey(s.stack)).add(kind, fn)
		return nil
	}
}

// groupHookSet returns the HookSet for key, creating an empty one on first use.
func (s *Session) groupHookSet(key string) *HookSet {
	if hs, ok := s.groupHooks[key]; ok {
		return hs
	}
	hs := &HookSet{}
	s.groupHooks[key] = hs
	s.hookKeys = append(s.hookKeys, key)
	return hs
}

// BeforeAll registers a hook run once before the tests of the current scope.
func (s *Session) BeforeAll(fn HookFunc) error { return s.HookRegistrar(BeforeAll)(fn) }

// AfterAll registers a hook run once after the tests of the current scope.
func (s *Session) AfterAll(fn HookFunc) error { return s.HookRegistrar(AfterAll)(fn) }

// BeforeEach registers a hook run before every test of the current scope.
func (s *Session) BeforeEach(fn HookFunc) error { return s.HookRegistrar(BeforeEach)(fn) }

// AfterEach registers a hook run after every test of the current scope.
func (s *Session) AfterEach(fn HookFunc) error { return s.HookRegistrar(AfterEach)(fn) }

// Hooks returns the HookSet registered under exactly key, or nil.
func (s *Session) Hooks(key string) *HookSet {
	return s.groupHooks[key]
}

// FileHooks returns the file-level default HookSet.
func (s *Session) FileHooks() *HookSet {
	return s.fileHooks
}

// HookKeys returns the hierarchy keys that have hooks, in first-registration order.
func (s *Session) HookKeys() []string {
	keys := make([]string, len(s.hookKeys))
	copy(keys, s.hookKeys)
	return keys
}
