package container

import (
	"sync"

	"github.com/go-errors/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Every provider must implement at minimum Register().
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other bindings inside Boot().
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", container.TypeOf[Mailer]())
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    _, err := container.Resolve[*Mailer](app, "mailer")
//	    return err
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here, use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the abstract keys this provider registers.
	// Only consulted for deferred providers.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() abstracts is first resolved.
	//
	//	// Laravel: protected $defer = true;
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// It mirrors the behaviour of Laravel's Application::registerConfiguredProviders
// and Application::bootProviders.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	loaded     map[ServiceProvider]bool
	intercepts map[string]*binding
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[ServiceProvider]bool),
		intercepts: make(map[string]*binding),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
		}
		r.mu.Unlock()
		// Intercept Make() calls for deferred abstracts
		return r.interceptDeferred(provider)
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return errors.WrapPrefix(err, "register provider", 0)
	}
	// If already booted, boot this provider immediately
	if booted {
		return provider.Boot(r.app)
	}
	return nil
}

// interceptDeferred registers a lazy binding for each deferred abstract.
// The first Make() call triggers real registration + boot.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, abstract := range provider.Provides() {
		abs := abstract
		err := r.app.Bind(abs, Factory(func(c *Container, parameters Parameters) (any, error) {
			if err := r.load(provider); err != nil {
				return nil, err
			}
			if r.stillDeferred(abs) {
				return nil, errors.Errorf("container: deferred provider did not bind [%s]", abs)
			}
			return c.remake(abs, parameters)
		}))
		if err != nil {
			return err
		}
		r.app.mu.RLock()
		b := r.app.bindings[abs]
		r.app.mu.RUnlock()
		r.mu.Lock()
		r.intercepts[abs] = b
		r.mu.Unlock()
	}
	return nil
}

// load registers (and, after Boot, boots) a deferred provider exactly once.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.mu.Lock()
	if r.loaded[provider] {
		r.mu.Unlock()
		return nil
	}
	r.loaded[provider] = true
	for _, abs := range provider.Provides() {
		delete(r.deferred, abs)
	}
	booted := r.booted
	r.mu.Unlock()

	r.app.log.Debugf("loading deferred provider %T", provider)
	if err := provider.Register(r.app); err != nil {
		return err
	}
	if booted {
		return provider.Boot(r.app)
	}
	return nil
}

// stillDeferred reports whether abs is still bound to its interceptor.
func (r *ProviderRegistry) stillDeferred(abs string) bool {
	r.mu.Lock()
	intercept := r.intercepts[abs]
	r.mu.Unlock()
	r.app.mu.RLock()
	defer r.app.mu.RUnlock()
	return r.app.bindings[abs] == intercept
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return errors.WrapPrefix(err, "boot provider", 0)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the abstracts whose providers have not been loaded yet.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abs := range r.deferred {
		out = append(out, abs)
	}
	return out
}
