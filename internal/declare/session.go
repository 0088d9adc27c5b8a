package declare

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Agent is the browser agent the execution engine hands to a test body.
type Agent interface {
	// Act performs a natural-language step.
	Act(ctx context.Context, description string) error
	// Check verifies a natural-language assertion.
	Check(ctx context.Context, description string) error
}

// TestFunc is a test body.
type TestFunc func(ctx context.Context, agent Agent) error

// GroupFunc is a group body. It declares nested tests, groups and hooks.
type GroupFunc func() error

// Group is one declaration scope on the hierarchy stack.
type Group struct {
	ID      string
	Name    string
	Options Options
}

// RegisteredTest is an immutable record of one declared test.
type RegisteredTest struct {
	ID          string
	Title       string
	Filepath    string
	Groups      []Group // stack contents at registration, outermost first
	URL         string
	PromptStack []string
	Options     Options // effective options after merging
	Fn          TestFunc
}

// GroupName returns the name of the innermost enclosing group, or "".
func (t *RegisteredTest) GroupName() string {
	if len(t.Groups) == 0 {
		return ""
	}
	return t.Groups[len(t.Groups)-1].Name
}

// HierarchyKey returns the hook key of the test's enclosing groups.
func (t *RegisteredTest) HierarchyKey() string {
	return HierarchyKey(t.Groups)
}

// Session records the declarations of one file-load pass. It owns the group stack, the
// ordered test list, the hook sets and the prompt stacks. A Session is not safe for
// concurrent use; declarations run synchronously on one goroutine.
type Session struct {
	filepath string
	defaults Options

	stack      []Group
	tests      []*RegisteredTest
	fileHooks  *HookSet
	groupHooks map[string]*HookSet
	hookKeys   []string
	prompts    map[string][]string

	seenIDs map[string]struct{}
	newID   func() string
}

// NewSession starts a declaration pass for filepath. defaults are the worker-level
// options, including the default URL.
func NewSession(filepath string, defaults Options) *Session {
	return &Session{
		filepath:   filepath,
		defaults:   defaults.Clone(),
		fileHooks:  &HookSet{},
		groupHooks: make(map[string]*HookSet),
		prompts:    make(map[string][]string),
		seenIDs:    make(map[string]struct{}),
		newID:      shortID,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Filepath returns the file this session declares.
func (s *Session) Filepath() string {
	return s.filepath
}

// Depth returns the current group nesting depth.
func (s *Session) Depth() int {
	return len(s.stack)
}

// CurrentHierarchy returns a copy of the group stack, outermost first.
func (s *Session) CurrentHierarchy() []Group {
	groups := make([]Group, len(s.stack))
	copy(groups, s.stack)
	return groups
}

// Test declares a test with no inline options.
func (s *Session) Test(title string, fn TestFunc) error {
	return s.TestWith(title, Options{}, fn)
}

// TestWith declares a test with inline options. The effective options are the worker
// defaults, overridden by every enclosing group outermost first, overridden by opts.
func (s *Session) TestWith(title string, opts Options, fn TestFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: test %q requires a test function", ErrInvalidArguments, title)
	}

	groupOpts := mergeGroups(s.stack)

	combined := overlay(overlay(s.defaults, groupOpts), opts)
	urls := make([]string, 0, len(s.stack)+2)
	urls = append(urls, s.defaults.URL)
	for _, g := range s.stack {
		urls = append(urls, g.Options.URL)
	}
	combined.URL = ResolveURL(append(urls, opts.URL)...)
	if combined.URL == "" {
		return &ConfigError{Title: title}
	}

	// Group prompt first, then test prompt, kept as separate layers.
	var prompts []string
	if groupOpts.Prompt != "" {
		prompts = append(prompts, groupOpts.Prompt)
	}
	if opts.Prompt != "" {
		prompts = append(prompts, opts.Prompt)
	}
	s.prompts[title] = prompts

	s.registerTest(fn, title, combined, prompts)
	return nil
}

// registerTest appends a test, capturing the hierarchy stack by value.
func (s *Session) registerTest(fn TestFunc, title string, opts Options, prompts []string) {
	test := &RegisteredTest{
		ID:          uuid.NewString(),
		Title:       title,
		Filepath:    s.filepath,
		Groups:      s.CurrentHierarchy(),
		URL:         opts.URL,
		PromptStack: prompts,
		Options:     opts,
		Fn:          fn,
	}
	s.tests = append(s.tests, test)

	log.Debug().
		Str("file", s.filepath).
		Str("test", title).
		Str("key", test.HierarchyKey()).
		Str("url", test.URL).
		Msg("test registered")
}

// Group declares a group with no options.
func (s *Session) Group(name string, fn GroupFunc) error {
	return s.GroupWith(name, Options{}, fn)
}

// GroupWith declares a group with options and runs fn inside it. The group is popped on
// every exit path, including a panic in fn, and fn's error is returned after the pop.
func (s *Session) GroupWith(name string, opts Options, fn GroupFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: group %q requires a group function", ErrInvalidArguments, name)
	}

	depth := len(s.stack)
	s.stack = append(s.stack, Group{ID: s.nextGroupID(), Name: name, Options: opts.Clone()})
	defer func() {
		s.stack = s.stack[:depth]
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("group %q: %w", name, err)
	}
	return nil
}

// nextGroupID returns a group id not yet used in this session.
func (s *Session) nextGroupID() string {
	for {
		id := "grp" + s.newID()
		if _, used := s.seenIDs[id]; !used {
			s.seenIDs[id] = struct{}{}
			return id
		}
	}
}

// Tests returns the registered tests in declaration order.
func (s *Session) Tests() []*RegisteredTest {
	tests := make([]*RegisteredTest, len(s.tests))
	copy(tests, s.tests)
	return tests
}

// PromptStack returns the prompt layers recorded for title, group prompt first.
func (s *Session) PromptStack(title string) []string {
	return s.prompts[title]
}
