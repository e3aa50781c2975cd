package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(...)
//	c.When(container.TypeOf[PhotoController]()).
//	    Needs(string(container.TypeOf[Filesystem]())).
//	    Give(func(c *container.Container, _ container.Parameters) (any, error) {
//	        return filesystem.NewS3(...), nil
//	    })
//
// Needs takes either a TypeName string, matched against class-typed
// parameters, or "$name", matched against any parameter called name.
type ContextualBuilder struct {
	container *Container
	concrete  TypeName
	needs     string
}

// Needs specifies which dependency of the concrete type is being overridden.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give provides the factory that should be used when the concrete type
// resolves the specified dependency.
func (b *ContextualBuilder) Give(factory Factory) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	if _, ok := b.container.contextual[b.concrete]; !ok {
		b.container.contextual[b.concrete] = make(map[string]Factory)
	}
	b.container.contextual[b.concrete][b.needs] = factory
}

// GiveValue is a shorthand for Give when the value is a simple scalar or
// pre-built instance (no factory logic needed).
//
//	// Laravel: ->needs('$storagePath')->give('/tmp/photos')
//	c.When(container.TypeOf[PhotoController]()).Needs("$storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(_ *Container, _ Parameters) (any, error) { return value, nil })
}

// GiveTagged resolves every abstract under tag and hands them over as a
// []any. The target parameter must be a []any.
//
//	// Laravel: ->needs('$reports')->giveTagged('reports')
func (b *ContextualBuilder) GiveTagged(tag string) {
	b.Give(func(c *Container, _ Parameters) (any, error) { return c.Tagged(tag) })
}
