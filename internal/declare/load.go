package declare

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// DeclareFunc declares the tests of one file against a fresh Session.
type DeclareFunc func(s *Session) error

// File is the immutable result of one file-load pass.
type File struct {
	Path       string
	Tests      []*RegisteredTest
	FileHooks  *HookSet
	GroupHooks map[string]*HookSet
	HookKeys   []string
	Prompts    map[string][]string
}

// Load runs one declaration pass for path. Any declaration error aborts the pass; no
// partial file is returned.
func Load(path string, defaults Options, declare DeclareFunc) (*File, error) {
	if declare == nil {
		return nil, fmt.Errorf("%w: file %s requires a declare function", ErrInvalidArguments, path)
	}

	s := NewSession(path, defaults)
	if err := declare(s); err != nil {
		return nil, fmt.Errorf("declare %s: %w", path, err)
	}

	log.Debug().Str("file", path).Int("tests", len(s.tests)).Int("hookKeys", len(s.hookKeys)).Msg("file declared")
	return s.File(), nil
}

// File snapshots the session.
func (s *Session) File() *File {
	groupHooks := make(map[string]*HookSet, len(s.groupHooks))
	for k, v := range s.groupHooks {
		groupHooks[k] = v
	}
	prompts := make(map[string][]string, len(s.prompts))
	for k, v := range s.prompts {
		prompts[k] = v
	}
	return &File{
		Path:       s.filepath,
		Tests:      s.Tests(),
		FileHooks:  s.fileHooks,
		GroupHooks: groupHooks,
		HookKeys:   s.HookKeys(),
		Prompts:    prompts,
	}
}

// HooksFor returns the hook sets that apply to t, outermost scope first: the file-level
// set, then the set of every ancestor hierarchy key that has hooks.
func (f *File) HooksFor(t *RegisteredTest) []*HookSet {
	sets := []*HookSet{f.FileHooks}
	for i := 1; i <= len(t.Groups); i++ {
		if hs, ok := f.GroupHooks[HierarchyKey(t.Groups[:i])]; ok {
			sets = append(sets, hs)
		}
	}
	return sets
}

// Registry collects declared files in load order.
type Registry struct {
	defaults Options
	files    []*File
	byPath   map[string]*File
}

// NewRegistry creates a registry whose sessions inherit defaults.
func NewRegistry(defaults Options) *Registry {
	return &Registry{
		defaults: defaults.Clone(),
		byPath:   make(map[string]*File),
	}
}

// Load declares path and adds it to the registry.
func (r *Registry) Load(path string, declare DeclareFunc) error {
	if _, ok := r.byPath[path]; ok {
		return fmt.Errorf("%w: %s", ErrFileLoaded, path)
	}
	f, err := Load(path, r.defaults, declare)
	if err != nil {
		return err
	}
	r.files = append(r.files, f)
	r.byPath[path] = f
	return nil
}

// Files returns the declared files in load order.
func (r *Registry) Files() []*File {
	files := make([]*File, len(r.files))
	copy(files, r.files)
	return files
}

// Tests returns every registered test, files in load order.
func (r *Registry) Tests() []*RegisteredTest {
	var tests []*RegisteredTest
	for _, f := range r.files {
		tests = append(tests, f.Tests...)
	}
	return tests
}
