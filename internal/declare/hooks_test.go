package declare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_ScopedToExactHierarchyKey(t *testing.T) {
	s := newTestSession(Options{URL: "https://a"})

	require.NoError(t, s.Group("A", func() error {
		return s.Group("B", func() error {
			return s.BeforeEach(noopHook)
		})
	}))

	assert.Equal(t, []string{"grp1>grp2"}, s.HookKeys())
	require.NotNil(t, s.Hooks("grp1>grp2"))
	assert.Len(t, s.Hooks("grp1>grp2").BeforeEach, 1)
	assert.Nil(t, s.Hooks("grp1"))
	assert.Equal(t, 0, s.FileHooks().Len())
}

func TestHooks_FileLevelOutsideGroups(t *testing.T) {
	s := newTestSession(Options{URL: "https://a"})

	require.NoError(t, s.BeforeAll(noopHook))
	require.NoError(t, s.AfterAll(noopHook))
	require.NoError(t, s.AfterEach(noopHook))
	require.NoError(t, s.AfterEach(noopHook))

	fh := s.FileHooks()
	assert.Len(t, fh.Of(BeforeAll), 1)
	assert.Len(t, fh.Of(AfterAll), 1)
	assert.Empty(t, fh.Of(BeforeEach))
	assert.Len(t, fh.Of(AfterEach), 2)
	assert.Equal(t, 4, fh.Len())
	assert.Empty(t, s.HookKeys())
}

func TestHooks_KeysInFirstRegistrationOrder(t *testing.T) {
	s := newTestSession(Options{URL: "https://a"})

	require.NoError(t, s.Group("A", func() error {
		if err := s.Group("B", func() error {
			return s.AfterAll(noopHook)
		}); err != nil {
			return err
		}
		if err := s.BeforeAll(noopHook); err != nil {
			return err
		}
		return s.BeforeEach(noopHook)
	}))

	assert.Equal(t, []string{"grp1>grp2", "grp1"}, s.HookKeys())
	assert.Equal(t, 2, s.Hooks("grp1").Len())
}

func TestHooks_SameNameGroupsGetSeparateKeys(t *testing.T) {
	s := newTestSession(Options{URL: "https://a"})

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Group("dup", func() error {
			return s.BeforeEach(noopHook)
		}))
	}

	assert.Equal(t, []string{"grp1", "grp2"}, s.HookKeys())
}

func TestHookRegistrar_RejectsNil(t *testing.T) {
	s := newTestSession(Options{URL: "https://a"})

	for _, kind := range []HookKind{BeforeAll, AfterAll, BeforeEach, AfterEach} {
		t.Run(string(kind), func(t *testing.T) {
			err := s.HookRegistrar(kind)(nil)

			var hookErr *HookTypeError
			require.ErrorAs(t, err, &hookErr)
			assert.Equal(t, kind, hookErr.Kind)
			assert.Equal(t, string(kind)+" expects a function", err.Error())
		})
	}
	assert.Equal(t, 0, s.FileHooks().Len())
}

func TestHookSet_NilSafe(t *testing.T) {
	var hs *HookSet
	assert.Equal(t, 0, hs.Len())
	assert.Nil(t, hs.Of(BeforeEach))
}
