// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of your application's
// dependencies. It supports transient bindings, singletons, pre-built instances,
// aliases, tags, contextual bindings, and extension (decoration).
//
// A binding maps an abstract (any string key) to a Concrete recipe: either a
// Factory closure or a TypeName. TypeNames are built by autowiring: the
// container introspects the exported fields of a registered struct type (or
// the arguments of a constructor given to Provide) and satisfies each one, in
// order, from the MakeWith overrides, a contextual binding, recursive
// resolution of class-typed dependencies, or a declared default.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        (safe to resolve everything after this)
//  4. Serve requests
//
// # Bindings
//
//	// Transient: new instance every Make()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", container.Factory(func(c *container.Container, _ container.Parameters) (any, error) {
//	    return &Foo{}, nil
//	}))
//
//	// Autowired: Repository's exported fields are resolved recursively
//	// Laravel: $app->bind(RepositoryInterface::class, Repository::class)
//	c.Register(&Repository{})
//	c.Bind(string(container.TypeOf[RepositoryInterface]()), container.TypeOf[Repository]())
//
//	// Singleton: created once, reused
//	c.Singleton("cache", container.TypeOf[RedisCache]())
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
//	// Alias
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
//
// # Resolving
//
//	// Untyped
//	raw, err := c.Make("cache")
//
//	// With overrides for this call only (never cached)
//	// Laravel: $app->makeWith(Report::class, ['year' => 2024])
//	report, err := c.MakeWith("Report", container.Parameters{"year": 2024})
//
//	// Generic (no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
// Circular graphs are reported as a *BindingResolutionError wrapping
// ErrCircularDependency. The guard covers one resolution chain; a Factory
// that calls Make starts a new chain.
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(fn() => new S3Filesystem)
//	c.When(container.TypeOf[PhotoController]()).
//	    Needs(string(container.TypeOf[Filesystem]())).
//	    GiveValue(&S3Filesystem{})
//
// # Tags
//
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")  // []any
//
// # Extend / Decorate
//
//	c.Extend("logger", func(instance any, c *container.Container) (any, error) {
//	    return &TimestampLogger{Inner: instance.(*Logger)}, nil
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", container.TypeOf[SMTPMailer]())
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    // only called on first app.Make("heavy")
//	    return app.Singleton("heavy", container.Factory(heavySetup))
//	}
package container
