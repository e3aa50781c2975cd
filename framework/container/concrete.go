package container

import "reflect"

// ── Recipes ───────────────────────────────────────────────────────────────────

// Concrete is what an abstract resolves to. It is either a Factory or a
// TypeName; no other implementations exist.
type Concrete interface {
	concrete()
}

// Factory builds an instance from the container. parameters carries the
// overrides passed to MakeWith for this resolution (nil for Make).
//
//	// Laravel: $app->bind('mailer', fn($app, $params) => new Mailer($params['from']))
//	c.Bind("mailer", container.Factory(func(c *container.Container, p container.Parameters) (any, error) {
//	    return &Mailer{From: p["from"].(string)}, nil
//	}))
type Factory func(c *Container, parameters Parameters) (any, error)

// TypeName names a constructible type known to the container, in the form
// "import/path.Name". Use TypeOf to derive one from a Go type.
type TypeName string

func (Factory) concrete()  {}
func (TypeName) concrete() {}

// Parameters maps constructor parameter names to override values for a
// single resolution.
type Parameters map[string]any

// TypeOf returns the TypeName of T. Pointer types resolve to their element:
// TypeOf[*Logger]() == TypeOf[Logger]().
func TypeOf[T any]() TypeName {
	return NameOf(reflect.TypeOf((*T)(nil)).Elem())
}

// NameOf returns the TypeName of t with any pointer indirection removed.
func NameOf(t reflect.Type) TypeName {
	t = indirect(t)
	if t.Name() == "" || t.PkgPath() == "" {
		return TypeName(t.String())
	}
	return TypeName(t.PkgPath() + "." + t.Name())
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
