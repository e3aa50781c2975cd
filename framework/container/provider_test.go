package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/straw/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

func value(v any) container.Factory {
	return func(*container.Container, container.Parameters) (any, error) { return v, nil }
}

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     int
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.Singleton("eager-svc", value("eager"))
}

func (p *eagerProvider) Boot(_ *container.Container) error {
	p.bootCalled++
	return nil
}

// deferredProvider is lazy, only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     int
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.Singleton("deferred-svc", value("deferred-value"))
}

func (p *deferredProvider) Boot(_ *container.Container) error {
	p.bootCalled++
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// lazyLiar claims to provide an abstract it never binds.
type lazyLiar struct{ container.BaseProvider }

func (p *lazyLiar) Register(_ *container.Container) error { return nil }
func (p *lazyLiar) IsDeferred() bool                      { return true }
func (p *lazyLiar) Provides() []string                    { return []string{"ghost"} }

// multiProvider registers multiple abstracts.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	if err := app.Singleton("alpha", value("α")); err != nil {
		return err
	}
	return app.Singleton("beta", value("β"))
}

type failingProvider struct {
	container.BaseProvider
	err error
}

func (p *failingProvider) Register(_ *container.Container) error { return p.err }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalled, "Register() should be called immediately for eager providers")
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	assert.Zero(t, p.bootCalled, "Boot() should NOT be called before registry.Boot()")

	require.NoError(t, reg.Boot())
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	got, err := container.Resolve[string](c, "eager-svc")
	require.NoError(t, err)
	assert.Equal(t, "eager", got)
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	require.NoError(t, reg.Boot())
	require.NoError(t, reg.Boot())

	assert.True(t, reg.Booted())
	assert.Equal(t, 1, p.bootCalled)
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	assert.False(t, reg.Booted())
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalled)
}

func TestRegistry_RegisterError_Propagates(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	cause := errors.New("no database")

	err := reg.Register(&failingProvider{err: cause})
	assert.ErrorIs(t, err, cause)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.Zero(t, p.registerCalled, "deferred provider Register() should not be called until Make()")
	assert.Equal(t, []string{"deferred-svc"}, reg.Deferred())
}

func TestRegistry_DeferredProvider_RegisteredOnFirstMake(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	got, err := container.Resolve[string](c, "deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)

	_, err = c.Make("deferred-svc")
	require.NoError(t, err)

	assert.Equal(t, 1, p.registerCalled)
	assert.Equal(t, 1, p.bootCalled, "deferred provider loaded after Boot() is booted on load")
	assert.Empty(t, reg.Deferred())
}

func TestRegistry_DeferredProvider_MissingBinding(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&lazyLiar{}))

	_, err := c.Make("ghost")
	assert.ErrorContains(t, err, "deferred provider did not bind [ghost]")
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&multiProvider{}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	for abstract, want := range map[string]string{"alpha": "α", "beta": "β", "eager-svc": "eager"} {
		got, err := container.Resolve[string](c, abstract)
		require.NoError(t, err)
		assert.Equal(t, want, got, abstract)
	}
}

// ── Providers list ────────────────────────────────────────────────────────────

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Register(&deferredProvider{}))

	assert.Len(t, reg.Providers(), 1, "eager only")
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider

	assert.NoError(t, p.Boot(container.New()))
	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	require.NoError(t, reg.Boot())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.bootCalled, "provider registered after Boot() should be booted immediately")
}
