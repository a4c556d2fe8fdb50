package rigging

import (
	"fmt"
	"testing"

	"github.com/slimloans/rigging/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlugin struct {
	name    string
	calls   *[]string
	initErr error
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) record(call string) {
	*p.calls = append(*p.calls, p.name+" "+call)
}

func (p *recordingPlugin) Initialize(*Environment) error {
	p.record("initialize")
	return p.initErr
}

func (p *recordingPlugin) Deinitialize(*Environment) error {
	p.record("deinitialize")
	return nil
}

type forkingPlugin struct {
	recordingPlugin
}

func (p *forkingPlugin) BeforeFork(*Environment) error {
	p.record("before fork")
	return nil
}

func (p *forkingPlugin) AfterFork(*Environment) error {
	p.record("after fork")
	return nil
}

func TestPluginLifecycle(t *testing.T) {
	var calls []string

	e := newTestEnvironment()
	require.NoError(t, e.RegisterPlugin(
		&recordingPlugin{name: "cache", calls: &calls},
		&forkingPlugin{recordingPlugin{name: "db", calls: &calls}},
	))

	assert.Equal(t, []string{"cache", "db"}, e.Plugins().Names())

	_, err := e.Setup(Test)
	require.NoError(t, err)
	assert.True(t, e.Plugins().Initialized())

	require.NoError(t, e.Fork(nil))

	e.Reset()
	assert.False(t, e.Plugins().Initialized())

	assert.Equal(t, []string{
		"cache initialize",
		"db initialize",
		"db before fork",
		"db after fork",
		"db deinitialize",
		"cache deinitialize",
	}, calls)
}

func TestPluginForkHooksOnlyWhileInitialized(t *testing.T) {
	var calls []string

	e := newTestEnvironment()
	require.NoError(t, e.RegisterPlugin(&forkingPlugin{recordingPlugin{name: "db", calls: &calls}}))

	require.NoError(t, e.Fork(nil))
	assert.Empty(t, calls)
}

func TestPluginSetupTwice(t *testing.T) {
	var calls []string

	e := newTestEnvironment()
	require.NoError(t, e.RegisterPlugin(&recordingPlugin{name: "cache", calls: &calls}))

	_, err := e.Setup(Test)
	require.NoError(t, err)
	_, err = e.Setup(Test)
	require.NoError(t, err)

	assert.Equal(t, []string{"cache initialize", "cache deinitialize", "cache initialize"}, calls)
}

func TestPluginInitializeFailure(t *testing.T) {
	var calls []string

	e := newTestEnvironment()
	require.NoError(t, e.RegisterPlugin(&recordingPlugin{name: "db", calls: &calls, initErr: fmt.Errorf("refused")}))

	_, err := e.Setup(Test)
	assert.EqualError(t, err, "failed to initialize plugin db: refused")
	assert.False(t, e.Plugins().Initialized())
}

func TestRegisterPlugin(t *testing.T) {
	var calls []string

	e := newTestEnvironment()
	p := &recordingPlugin{name: "cache", calls: &calls}
	require.NoError(t, e.RegisterPlugin(p))

	t.Run("duplicate names", func(t *testing.T) {
		err := e.RegisterPlugin(&recordingPlugin{name: "cache", calls: &calls})
		assert.True(t, errors.Is(err, errors.ErrorArgument))
	})

	t.Run("nil plugin", func(t *testing.T) {
		assert.True(t, errors.Is(e.RegisterPlugin(nil), errors.ErrorArgument))
	})

	t.Run("typed lookup", func(t *testing.T) {
		found, ok := GetPlugin[*recordingPlugin](e, "cache")
		assert.True(t, ok)
		assert.Same(t, p, found)

		_, ok = GetPlugin[*forkingPlugin](e, "cache")
		assert.False(t, ok)

		assert.Nil(t, e.Plugins().Get("missing"))
	})
}
