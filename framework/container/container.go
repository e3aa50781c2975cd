package container

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-errors/errors"
	"github.com/samber/lo"

	"github.com/km-arc/straw/framework/logging"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// binding holds a registered recipe and whether its instance is shared.
type binding struct {
	concrete Concrete
	shared   bool
}

// Extender wraps an already-resolved instance with decorator logic.
type Extender func(instance any, c *Container) (any, error)

// resolution is the state of one top-level Make/Get call. Each call allocates
// its own and passes the pointer down the recursion; it is never shared between
// calls.
type resolution struct {
	stack []string
}

// scope is the resolution chain a Factory, Extender or contextual Give runs
// in. Make calls through the view it receives continue that chain, so cycles
// through factories are caught too. Once the callback returns the scope is
// done and the view resolves like the container itself.
type scope struct {
	stack []string
	done  atomic.Bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container. It mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / MakeWith / Get, with autowiring of registered struct types
//   - Tags (group multiple abstractions under one tag)
//   - Extend (decorate / wrap resolved instances)
//   - Contextual binding (when A needs B, give it C)
//   - Rebound callbacks
//   - Resolved event callbacks
type Container struct {
	*state

	// set on views handed to callbacks during a resolution
	scope *scope
}

type state struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved shared instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extender funcs
	extenders map[string][]Extender

	// tag → []abstract
	tags map[string][]string

	// contextual: when[concrete][needs] = factory
	contextual map[TypeName]map[string]Factory

	// type name → introspected constructor
	types map[TypeName]*constructor

	// abstracts resolved at least once
	resolved map[string]bool

	// rebound callbacks: abstract → []func(any)
	reboundCallbacks map[string][]func(any)

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)

	log *logging.Logger
}

// New creates an empty container that already holds itself under
// "container" and under TypeOf[Container]().
func New() *Container {
	c := &Container{state: &state{
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		contextual:       make(map[TypeName]map[string]Factory),
		types:            make(map[TypeName]*constructor),
		resolved:         make(map[string]bool),
		reboundCallbacks: make(map[string][]func(any)),
		log:              logging.NewLogger("Container"),
	}}
	// Laravel: $app->instance('app', $this); $app->instance(Container::class, $this)
	c.Instance("container", c)
	c.Instance(string(TypeOf[Container]()), c)
	return c
}

// ── Type registration ─────────────────────────────────────────────────────────

// Register makes struct and interface types known to the container so they
// can be built by TypeName. Samples may be values, nil pointers or
// reflect.Types:
//
//	c.Register(&Mailer{}, (*Transport)(nil), reflect.TypeOf(Queue{}))
//
// Exported struct fields are the constructor parameters, in declaration
// order. Tags tune them:
//
//	type Mailer struct {
//	    Transport Transport                 // autowired
//	    From      string `inject:"from"`    // override key "from"
//	    Retries   int    `default:"3"`      // primitive default
//	    cache     map[string]string         // unexported: ignored
//	    Debug     bool   `inject:"-"`       // skipped
//	}
func (c *Container) Register(samples ...any) error {
	for _, sample := range samples {
		ctor, err := introspect(sample)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.types[ctor.name] = ctor
		c.mu.Unlock()
		c.log.Tracef("registered type [%s] with %d parameter(s)", ctor.name, len(ctor.params))
	}
	return nil
}

// Provide registers a constructor function for the type it returns. The
// function may return T or (T, error); names label its arguments for
// MakeWith overrides.
//
//	name, err := c.Provide(NewMailer, "transport", "from")
//	mailer, err := c.MakeWith(string(name), container.Parameters{"from": "noreply@example.com"})
func (c *Container) Provide(constructor any, names ...string) (TypeName, error) {
	ctor, err := introspectFunc(constructor, names)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.types[ctor.name] = ctor
	c.mu.Unlock()
	return ctor.name, nil
}

// learn registers a struct or interface type met while autowiring.
func (c *Container) learn(t reflect.Type) {
	name := NameOf(t)
	c.mu.RLock()
	_, known := c.types[name]
	c.mu.RUnlock()
	if known {
		return
	}
	if ctor, err := introspectType(t); err == nil {
		c.mu.Lock()
		if _, known := c.types[name]; !known {
			c.types[name] = ctor
		}
		c.mu.Unlock()
	}
}

func (c *Container) constructorFor(name TypeName) (*constructor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ctor, ok := c.types[name]
	return ctor, ok
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) recipe. A nil concrete
// binds the abstract to itself as a TypeName.
//
//	// Laravel: $app->bind(UserRepository::class, EloquentUserRepository::class)
//	c.Bind(string(container.TypeOf[UserRepository]()), container.TypeOf[EloquentUserRepository]())
func (c *Container) Bind(abstract string, concrete Concrete) error {
	return c.bind(abstract, concrete, false)
}

// Singleton registers a recipe whose result is cached after first resolution.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", container.Factory(func(c *container.Container, _ container.Parameters) (any, error) {
//	    return cache.NewRedisCache(container.MustResolve[*config.Config](c, "config")), nil
//	}))
func (c *Container) Singleton(abstract string, concrete Concrete) error {
	return c.bind(abstract, concrete, true)
}

// Instance pins a pre-built value as a shared instance and returns it.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(abstract string, instance any) any {
	c.mu.Lock()
	delete(c.aliases, abstract)
	_, wasBound := c.bindings[abstract]
	_, wasPinned := c.instances[abstract]
	c.instances[abstract] = instance
	c.mu.Unlock()

	if wasBound || wasPinned {
		c.fireRebound(abstract, instance)
	}
	return instance
}

func (c *Container) bind(abstract string, concrete Concrete, shared bool) error {
	if concrete == nil {
		concrete = TypeName(abstract)
	}
	switch con := concrete.(type) {
	case Factory:
		if con == nil {
			return fmt.Errorf("container: bind [%s]: %w", abstract, ErrInvalidConcrete)
		}
	case TypeName:
		if con == "" {
			return fmt.Errorf("container: bind [%s]: %w", abstract, ErrInvalidConcrete)
		}
	}

	c.mu.Lock()
	delete(c.aliases, abstract)

	// Drop the stale instance so it's rebuilt with the new recipe
	_, hadInstance := c.instances[abstract]
	delete(c.instances, abstract)
	c.bindings[abstract] = &binding{concrete: concrete, shared: shared}
	wasResolved := c.resolved[abstract]
	c.mu.Unlock()

	c.log.Debugf("bound [%s] (shared=%t)", abstract, shared)

	if hadInstance || wasResolved {
		return c.rebound(abstract)
	}
	return nil
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) error {
	if abstract == alias {
		return errors.Errorf("container: [%s] is aliased to itself", abstract)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(abstract)
	return nil
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain for a concrete type.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(fn() => new S3)
//	c.When(container.TypeOf[PhotoController]()).
//	    Needs(string(container.TypeOf[Filesystem]())).
//	    GiveValue(&S3Filesystem{})
func (c *Container) When(concrete TypeName) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// getContextual returns the contextual factory for (concrete, needs), or nil.
func (c *Container) getContextual(concrete TypeName, needs string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[concrete]; ok {
		return m[needs]
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) (any, error) {
//	    return logging.NewTimestampWrapper(instance.(*Logger)), nil
//	})
func (c *Container) Extend(abstract string, fn Extender) error {
	c.mu.Lock()
	key := c.canonical(abstract)
	c.extenders[key] = append(c.extenders[key], fn)
	inst, shared := c.instances[key]
	c.mu.Unlock()

	// If already resolved as shared, decorate the cached instance in place
	if !shared {
		return nil
	}
	extended, err := fn(inst, c)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.instances[key] = extended
	c.mu.Unlock()
	c.fireRebound(key, extended)
	return nil
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = lo.Uniq(append(c.tags[tag], abstracts...))
}

// Tagged resolves all abstracts registered under a tag.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	abstracts := slices.Clone(c.tags[tag])
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		instance, err := c.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id like Make, but reports a failure for an identifier that has
// no binding and no instance as *EntryNotFoundError. Failures of registered
// identifiers propagate unchanged.
func (c *Container) Get(id string) (any, error) {
	instance, err := c.Make(id)
	if err != nil {
		if c.Has(id) {
			return nil, err
		}
		return nil, &EntryNotFoundError{ID: id, Err: err}
	}
	return instance, nil
}

// Make resolves an abstract from the container. Unbound abstracts are built
// as TypeNames.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make("UserRepository")
func (c *Container) Make(abstract string) (any, error) {
	return c.resolve(abstract, nil, c.chain())
}

// MakeWith resolves an abstract, satisfying constructor parameters by name
// from parameters first. It always builds a fresh instance, even for shared
// abstracts, and never caches it.
//
//	// Laravel: $app->makeWith(Report::class, ['year' => 2024])
//	report, err := c.MakeWith("Report", container.Parameters{"year": 2024})
func (c *Container) MakeWith(abstract string, parameters Parameters) (any, error) {
	return c.resolve(abstract, parameters, c.chain())
}

// chain starts the resolution for a Make call: fresh on the container, a copy
// of the enclosing chain on a live callback view.
func (c *Container) chain() *resolution {
	if c.scope == nil || c.scope.done.Load() {
		return &resolution{}
	}
	return &resolution{stack: slices.Clone(c.scope.stack)}
}

// within runs fn with a view of c that continues res.
func (c *Container) within(res *resolution, fn func(view *Container) (any, error)) (any, error) {
	view := &Container{state: c.state, scope: &scope{stack: slices.Clone(res.stack)}}
	defer view.scope.done.Store(true)
	return fn(view)
}

// remake resolves abstract again from inside its own factory, after that
// factory replaced the binding. The abstract itself is taken off the chain.
func (c *Container) remake(abstract string, parameters Parameters) (any, error) {
	res := c.chain()
	c.mu.RLock()
	key := c.canonical(abstract)
	c.mu.RUnlock()
	if n := len(res.stack); n > 0 && res.stack[n-1] == key {
		res.stack = res.stack[:n-1]
	}
	return c.resolve(abstract, parameters, res)
}

func (c *Container) resolve(abstract string, parameters Parameters, res *resolution) (any, error) {
	c.mu.RLock()
	abstract = c.canonical(abstract)
	cached, hasInstance := c.instances[abstract]
	b, bound := c.bindings[abstract]
	c.mu.RUnlock()

	if hasInstance && len(parameters) == 0 {
		return cached, nil
	}

	if slices.Contains(res.stack, abstract) {
		return nil, circularError(res.stack, abstract)
	}
	res.stack = append(res.stack, abstract)
	defer func() { res.stack = res.stack[:len(res.stack)-1] }()

	var concrete Concrete = TypeName(abstract)
	if bound {
		concrete = b.concrete
	}

	c.log.Tracef("resolving [%s]", abstract)
	instance, err := c.build(abstract, concrete, parameters, res)
	if err != nil {
		return nil, err
	}
	if instance, err = c.applyExtenders(abstract, instance, res); err != nil {
		return nil, err
	}

	shared := hasInstance || (bound && b.shared)
	c.mu.Lock()
	if shared && len(parameters) == 0 {
		if existing, ok := c.instances[abstract]; ok {
			instance = existing
		} else {
			c.instances[abstract] = instance
		}
	}
	c.resolved[abstract] = true
	c.mu.Unlock()

	c.fireAfterResolving(abstract, instance)
	return instance, nil
}

// build instantiates a concrete. Factories run directly; type names are built
// from their introspected constructor, or resolved in turn when they name
// another abstract.
func (c *Container) build(abstract string, concrete Concrete, parameters Parameters, res *resolution) (any, error) {
	switch con := concrete.(type) {
	case Factory:
		return c.within(res, func(view *Container) (any, error) {
			return con(view, parameters)
		})
	case TypeName:
		if string(con) != abstract {
			return c.resolve(string(con), parameters, res)
		}
		return c.buildType(con, parameters, res)
	}
	return nil, fmt.Errorf("container: resolve [%s]: %w", abstract, ErrInvalidConcrete)
}

func (c *Container) buildType(name TypeName, parameters Parameters, res *resolution) (any, error) {
	ctor, ok := c.constructorFor(name)
	if !ok {
		return nil, &BindingResolutionError{
			Abstract: string(name),
			Message:  "Target class [" + string(name) + "] does not exist.",
		}
	}
	if ctor.abstract || ctor.newInstance == nil {
		return nil, &BindingResolutionError{
			Abstract: string(name),
			Message:  "Target [" + string(name) + "] is not instantiable.",
		}
	}

	var args []reflect.Value
	if len(ctor.params) > 0 {
		var err error
		if args, err = c.resolveDependencies(ctor, parameters, res); err != nil {
			return nil, err
		}
	}

	instance, err := ctor.newInstance(args)
	if err != nil {
		return nil, &BindingResolutionError{
			Abstract: string(name),
			Message:  "Constructor of [" + string(name) + "] failed",
			Err:      errors.Wrap(err, 1),
		}
	}
	return instance, nil
}

// resolveDependencies builds the positional argument list for ctor. Per
// parameter, in order: an override by name, a contextual binding, autowiring
// of class types, the declared default; otherwise the parameter is
// unresolvable.
func (c *Container) resolveDependencies(ctor *constructor, parameters Parameters, res *resolution) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(ctor.params))

	for _, p := range ctor.params {
		value, found, err := c.resolveParameter(ctor, p, parameters, res)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &BindingResolutionError{
				Abstract: string(ctor.name),
				Message:  fmt.Sprintf("Unresolvable dependency resolving [%s] in class %s", p, ctor.name),
			}
		}
		arg, err := coerce(value, p)
		if err != nil {
			return nil, &BindingResolutionError{
				Abstract: string(ctor.name),
				Message:  fmt.Sprintf("Cannot use value for %s in class %s", p, ctor.name),
				Err:      err,
			}
		}
		args = append(args, arg)
	}
	return args, nil
}

func (c *Container) resolveParameter(ctor *constructor, p Parameter, parameters Parameters, res *resolution) (any, bool, error) {
	if value, ok := parameters[p.Name]; ok {
		return value, true, nil
	}

	class, isClass := ClassNameOf(p)

	needs := "$" + p.Name
	if isClass {
		needs = string(class)
	}
	if give := c.getContextual(ctor.name, needs); give != nil {
		value, err := c.within(res, func(view *Container) (any, error) {
			return give(view, nil)
		})
		return value, err == nil, err
	}

	if isClass {
		c.learn(p.Type)
		value, err := c.resolve(string(class), nil, res)
		if err != nil && p.HasDefault && !errors.Is(err, ErrCircularDependency) {
			return p.Default.Interface(), true, nil
		}
		return value, err == nil, err
	}

	if p.HasDefault {
		return p.Default.Interface(), true, nil
	}
	return nil, false, nil
}

func (c *Container) applyExtenders(key string, instance any, res *resolution) (any, error) {
	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	c.mu.RUnlock()

	for _, ext := range exts {
		var err error
		instance, err = c.within(res, func(view *Container) (any, error) {
			return ext(instance, view)
		})
		if err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has returns true if an abstract has a binding or a shared instance.
//
//	// Laravel: $app->has(UserRepository::class)
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(id)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// IsShared reports whether the abstract is bound as a singleton or holds a
// shared instance.
func (c *Container) IsShared(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	if _, ok := c.instances[key]; ok {
		return true
	}
	b, ok := c.bindings[key]
	return ok && b.shared
}

// Resolved returns true if the abstract has been resolved at least once.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, ok := c.instances[key]
	return ok || c.resolved[key]
}

// Forget removes all registrations for an abstract (binding + instance).
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.resolved, key)
}

// Flush resets the entire container. Registered types are kept.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]Extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[TypeName]map[string]Factory)
	c.resolved = make(map[string]bool)
}

// Bindings returns the sorted set of registered abstract keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := lo.Union(lo.Keys(c.bindings), lo.Keys(c.instances))
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (c *Container) canonical(abstract string) string {
	seen := 0
	for {
		target, ok := c.aliases[abstract]
		if !ok || seen > len(c.aliases) {
			return abstract
		}
		abstract = target
		seen++
	}
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback to be called whenever an abstract is re-bound.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(abstract string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reboundCallbacks[abstract] = append(c.reboundCallbacks[abstract], cb)
}

// AfterResolving registers a callback fired after any abstract is built.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// rebound rebuilds a re-bound abstract and hands the result to its callbacks.
func (c *Container) rebound(abstract string) error {
	c.mu.RLock()
	cbs := c.reboundCallbacks[abstract]
	c.mu.RUnlock()
	if len(cbs) == 0 {
		return nil
	}
	instance, err := c.Make(abstract)
	if err != nil {
		return err
	}
	for _, cb := range cbs {
		cb(instance)
	}
	return nil
}

func (c *Container) fireRebound(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.reboundCallbacks[abstract]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: raw, err := c.Make("db"); db := raw.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Make(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &BindingResolutionError{
			Abstract: abstract,
			Message:  fmt.Sprintf("[%s] resolved to %T, not %T", abstract, instance, zero),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Meant for bootstrap code
// where a missing binding is a programming error.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}
