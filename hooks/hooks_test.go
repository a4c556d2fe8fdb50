package hooks

import (
	stderrors "errors"
	"testing"

	"github.com/slimloans/rigging/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fish struct {
	calls []string
}

func (f *fish) record(name string) Hook[*fish] {
	return func(owner *fish) error {
		owner.calls = append(owner.calls, name)
		return nil
	}
}

func TestKnownEvents(t *testing.T) {
	reg := NewRegistry[*fish]("swim", "eat")

	t.Run("deduplicates", func(t *testing.T) {
		assert.Equal(t, []Event{"swim", "eat"}, reg.KnownEvents("swim"))
	})

	t.Run("instances inherit and extend", func(t *testing.T) {
		inst := reg.Instance("sleep")

		assert.True(t, inst.IsKnownEvent("swim"))
		assert.True(t, inst.IsKnownEvent("sleep"))
		assert.False(t, reg.IsKnownEvent("sleep"))

		reg.KnownEvents("dive")
		assert.True(t, inst.IsKnownEvent("dive"))
	})
}

func TestAddUnknownEvent(t *testing.T) {
	reg := NewRegistry[*fish]("swim")
	f := &fish{}

	tests := []struct {
		name string
		add  func() error
	}{
		{"before", func() error { return reg.Before("fly", f.record("x")) }},
		{"after", func() error { return reg.After("fly", f.record("x")) }},
		{"around", func() error { return reg.Around("fly", PriorityHigh, f.record("x")) }},
		{"instance", func() error { return reg.Instance().Before("fly", f.record("x")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.add()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrorUnknownEvent))
		})
	}
}

func TestAddNilHook(t *testing.T) {
	reg := NewRegistry[*fish]("swim")

	err := reg.Before("swim", nil)
	assert.True(t, errors.Is(err, errors.ErrorArgument))
}

func TestHookOrdering(t *testing.T) {
	tests := []struct {
		name     string
		register func(reg *Registry[*fish], f *fish)
		expected []string
	}{
		{
			name: "registration order for equal priority",
			register: func(reg *Registry[*fish], f *fish) {
				reg.Before("swim", f.record("one"))
				reg.Before("swim", f.record("two"))
				reg.Before("swim", f.record("three"))
			},
			expected: []string{"one", "two", "three"},
		},
		{
			name: "higher priority first",
			register: func(reg *Registry[*fish], f *fish) {
				reg.Add(Before, "swim", PriorityLow, f.record("low"))
				reg.Add(Before, "swim", PriorityDefault, f.record("default"))
				reg.Add(Before, "swim", PriorityHigh, f.record("high"))
			},
			expected: []string{"high", "default", "low"},
		},
		{
			name: "stable within a priority",
			register: func(reg *Registry[*fish], f *fish) {
				reg.Add(Before, "swim", PriorityHigh, f.record("high1"))
				reg.Add(Before, "swim", PriorityLow, f.record("low1"))
				reg.Add(Before, "swim", PriorityHigh, f.record("high2"))
				reg.Add(Before, "swim", 5, f.record("five"))
				reg.Add(Before, "swim", PriorityLow, f.record("low2"))
			},
			expected: []string{"five", "high1", "high2", "low1", "low2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry[*fish]("swim")
			f := &fish{}

			tt.register(reg, f)

			require.NoError(t, reg.Call(f, Before, "swim"))
			assert.Equal(t, tt.expected, f.calls)
		})
	}
}

func TestInstanceHooksComposeAfterShared(t *testing.T) {
	shared := NewRegistry[*fish]("swim")
	f := &fish{}

	inst := shared.Instance()

	require.NoError(t, inst.Add(Before, "swim", PriorityHigh, f.record("instance-high")))
	require.NoError(t, shared.Add(Before, "swim", PriorityLow, f.record("shared-low")))
	require.NoError(t, shared.Before("swim", f.record("shared")))

	require.NoError(t, inst.Call(f, Before, "swim"))
	assert.Equal(t, []string{"shared", "shared-low", "instance-high"}, f.calls)

	assert.Len(t, shared.Hooks(Before, "swim"), 2)
	assert.Len(t, inst.Hooks(Before, "swim"), 3)
	assert.Len(t, inst.Hooks(After, "swim"), 0)
}

func TestCallAround(t *testing.T) {
	t.Run("before body after", func(t *testing.T) {
		reg := NewRegistry[*fish]("swim")
		f := &fish{}

		reg.Before("swim", f.record("prepping"))
		reg.After("swim", f.record("resting"))

		err := reg.CallAround(f, "swim", func() error {
			f.calls = append(f.calls, "swimming")
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, []string{"prepping", "swimming", "resting"}, f.calls)
	})

	t.Run("around registers both kinds", func(t *testing.T) {
		reg := NewRegistry[*fish]("swim")
		f := &fish{}

		reg.Around("swim", PriorityDefault, f.record("around"))

		reg.CallAround(f, "swim", func() error { return nil })
		assert.Equal(t, []string{"around", "around"}, f.calls)
	})

	t.Run("hook error aborts chain and body", func(t *testing.T) {
		reg := NewRegistry[*fish]("swim")
		f := &fish{}
		boom := stderrors.New("boom")

		reg.Before("swim", func(*fish) error { return boom })
		reg.Before("swim", f.record("never"))
		reg.After("swim", f.record("never-after"))

		bodyRan := false
		err := reg.CallAround(f, "swim", func() error {
			bodyRan = true
			return nil
		})

		assert.ErrorIs(t, err, boom)
		assert.False(t, bodyRan)
		assert.Empty(t, f.calls)
	})

	t.Run("body error skips after hooks", func(t *testing.T) {
		reg := NewRegistry[*fish]("swim")
		f := &fish{}
		boom := stderrors.New("boom")

		reg.After("swim", f.record("after"))

		err := reg.CallAround(f, "swim", func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, f.calls)
	})
}

func TestHooksReceiveOwner(t *testing.T) {
	reg := NewRegistry[*fish]("swim")
	var got *fish

	reg.Before("swim", func(owner *fish) error {
		got = owner
		return nil
	})

	f := &fish{}
	reg.Call(f, Before, "swim")
	assert.Same(t, f, got)
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
		wantErr  bool
	}{
		{"high", PriorityHigh, false},
		{"LOW", PriorityLow, false},
		{" default ", PriorityDefault, false},
		{"urgent", PriorityDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePriority(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}
