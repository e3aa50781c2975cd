package container

import (
	"fmt"
	"reflect"

	"github.com/go-errors/errors"
	"github.com/gookit/goutil/reflects"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Parameter is one constructor argument: an exported struct field for
// struct types, or a positional argument for constructor functions.
type Parameter struct {
	Name       string
	Type       reflect.Type
	Declaring  reflect.Type
	Default    reflect.Value
	HasDefault bool
	Embedded   bool

	index int
}

func (p Parameter) String() string {
	return fmt.Sprintf("Parameter [%s %s]", p.Name, p.Type)
}

// ClassNameOf returns the TypeName of the parameter's declared type when it
// names a class: a named struct, a pointer to one, or a non-empty named
// interface. A reference to the declaring type resolves to the declaring type
// and an embedded struct (Go's nearest thing to a parent) to the embedded
// type. Predeclared, unnamed and primitive types report false.
func ClassNameOf(p Parameter) (TypeName, bool) {
	t := indirect(p.Type)
	if p.Declaring != nil && t == indirect(p.Declaring) {
		return NameOf(p.Declaring), true
	}
	if !isClass(t) {
		return "", false
	}
	return NameOf(t), true
}

func isClass(t reflect.Type) bool {
	if t.Name() == "" || t.PkgPath() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Interface:
		return t.NumMethod() > 0
	}
	return false
}

// constructor is the introspected recipe for building one type.
type constructor struct {
	name     TypeName
	typ      reflect.Type
	params   []Parameter
	abstract bool

	newInstance func(args []reflect.Value) (any, error)
}

// introspect derives a constructor from a sample value: a struct, a pointer
// to a struct, or a nil pointer to an interface type.
func introspect(sample any) (*constructor, error) {
	if sample == nil {
		return nil, errors.Errorf("container: cannot introspect a nil sample")
	}
	if t, ok := sample.(reflect.Type); ok {
		return introspectType(t)
	}
	return introspectType(reflect.TypeOf(sample))
}

func introspectType(t reflect.Type) (*constructor, error) {
	t = indirect(t)
	switch t.Kind() {
	case reflect.Struct:
		return introspectStruct(t)
	case reflect.Interface:
		return &constructor{name: NameOf(t), typ: t, abstract: true}, nil
	}
	return nil, errors.Errorf("container: type %s is neither a struct nor an interface", t)
}

func introspectStruct(t reflect.Type) (*constructor, error) {
	ctor := &constructor{name: NameOf(t), typ: t}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, tagged := field.Tag.Lookup("inject")
		if tag == "-" {
			continue
		}

		p := Parameter{
			Name:      field.Name,
			Type:      field.Type,
			Declaring: t,
			Embedded:  field.Anonymous,
			index:     i,
		}
		if tagged && tag != "" {
			p.Name = tag
		}
		if raw, ok := field.Tag.Lookup("default"); ok {
			def, err := defaultValue(raw, field.Type)
			if err != nil {
				return nil, &BindingResolutionError{
					Abstract: string(ctor.name),
					Message:  fmt.Sprintf("Invalid default %q for %s in class %s", raw, p, ctor.name),
					Err:      err,
				}
			}
			p.Default, p.HasDefault = def, true
		}
		ctor.params = append(ctor.params, p)
	}

	ctor.newInstance = func(args []reflect.Value) (any, error) {
		v := reflect.New(t).Elem()
		for i, p := range ctor.params {
			v.Field(p.index).Set(args[i])
		}
		return v.Addr().Interface(), nil
	}
	return ctor, nil
}

// introspectFunc derives a constructor from a function returning T or
// (T, error). names label the positional arguments so overrides can target
// them; unnamed arguments are called arg0, arg1, ...
func introspectFunc(fn any, names []string) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.Errorf("container: constructor %T is not a function", fn)
	}
	t := v.Type()

	mayFail := false
	switch t.NumOut() {
	case 1:
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, errors.Errorf("container: constructor %s has two results, but the second one isn't an error", t)
		}
		mayFail = true
	default:
		return nil, errors.Errorf("container: constructor %s must return T or (T, error)", t)
	}

	out := t.Out(0)
	ctor := &constructor{name: NameOf(out), typ: indirect(out)}
	for i := 0; i < t.NumIn(); i++ {
		p := Parameter{
			Name:      fmt.Sprintf("arg%d", i),
			Type:      t.In(i),
			Declaring: out,
			index:     i,
		}
		if i < len(names) && names[i] != "" {
			p.Name = names[i]
		}
		if t.IsVariadic() && i == t.NumIn()-1 {
			p.Default, p.HasDefault = reflect.MakeSlice(p.Type, 0, 0), true
		}
		ctor.params = append(ctor.params, p)
	}

	ctor.newInstance = func(args []reflect.Value) (any, error) {
		var results []reflect.Value
		if t.IsVariadic() {
			results = v.CallSlice(args)
		} else {
			results = v.Call(args)
		}
		if mayFail && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}
	return ctor, nil
}

func defaultValue(raw string, t reflect.Type) (reflect.Value, error) {
	rv, err := reflects.ValueByKind(raw, t.Kind())
	if err != nil {
		return reflect.Value{}, err
	}
	if rv.Type() != t {
		rv = rv.Convert(t)
	}
	return rv, nil
}

// coerce adapts a resolved or overriding value to the parameter type.
// Overrides are not type checked beyond what assignment requires.
func coerce(value any, p Parameter) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(p.Type), nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(p.Type):
		return rv, nil
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(p.Type):
		return rv.Elem(), nil
	case p.Type.Kind() == reflect.Pointer && rv.Type().AssignableTo(p.Type.Elem()):
		ptr := reflect.New(p.Type.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	case rv.Type().ConvertibleTo(p.Type) && convertibleKinds(rv.Kind(), p.Type.Kind()):
		return rv.Convert(p.Type), nil
	}
	return reflect.Value{}, errors.Errorf("value of type %s is not assignable to %s", rv.Type(), p)
}

func convertibleKinds(from, to reflect.Kind) bool {
	if from == to {
		return true
	}
	return isNumeric(from) && isNumeric(to)
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}
