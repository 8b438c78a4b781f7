package model

import (
	"fmt"
	"sort"
)

// Object is a named, typed, immutable instance created at load time.
// Objects are never created or destroyed during simulation.
type Object struct {
	Name string
	Type string
}

// FluentSig declares a fluent: its name, the types of its parameters, and
// the kind of value it holds.
type FluentSig struct {
	Name   string
	Params []string // parameter type names, positional
	Kind   Kind
}

// Domain is the immutable registry a plan is validated against: declared
// types, registered objects, fluent signatures, and action templates.
// All Add* methods are load-time operations; after loading, a Domain is
// safe for concurrent read-only use.
type Domain struct {
	name      string
	types     map[string]bool
	objects   map[string]Object
	fluents   map[string]FluentSig
	templates map[string]*Template
}

// NewDomain creates an empty domain with the given name.
func NewDomain(name string) *Domain {
	return &Domain{
		name:      name,
		types:     make(map[string]bool),
		objects:   make(map[string]Object),
		fluents:   make(map[string]FluentSig),
		templates: make(map[string]*Template),
	}
}

// Name returns the domain's name.
func (d *Domain) Name() string { return d.name }

// AddType declares an object type. Duplicate declarations are rejected.
func (d *Domain) AddType(name string) error {
	if name == "" {
		return fmt.Errorf("type name must be non-empty")
	}
	if d.types[name] {
		return fmt.Errorf("duplicate type %s", name)
	}
	d.types[name] = true
	return nil
}

// HasType reports whether a type is declared.
func (d *Domain) HasType(name string) bool { return d.types[name] }

// AddObject registers a concrete object of a declared type.
func (d *Domain) AddObject(name, typ string) error {
	if !d.types[typ] {
		return fmt.Errorf("object %s: unknown type %s", name, typ)
	}
	if _, dup := d.objects[name]; dup {
		return fmt.Errorf("duplicate object %s", name)
	}
	d.objects[name] = Object{Name: name, Type: typ}
	return nil
}

// Object resolves an object name to its typed handle.
func (d *Domain) Object(name string) (Object, bool) {
	o, ok := d.objects[name]
	return o, ok
}

// ObjectsOfType returns the names of all objects of the given type,
// sorted for deterministic iteration.
func (d *Domain) ObjectsOfType(typ string) []string {
	var names []string
	for name, o := range d.objects {
		if o.Type == typ {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AddFluent declares a fluent signature. All parameter types must already
// be declared.
func (d *Domain) AddFluent(sig FluentSig) error {
	if sig.Name == "" {
		return fmt.Errorf("fluent name must be non-empty")
	}
	if sig.Kind != KindBool && sig.Kind != KindInt {
		return fmt.Errorf("fluent %s: invalid value kind", sig.Name)
	}
	for i, typ := range sig.Params {
		if !d.types[typ] {
			return fmt.Errorf("fluent %s: parameter %d has unknown type %s", sig.Name, i, typ)
		}
	}
	if _, dup := d.fluents[sig.Name]; dup {
		return fmt.Errorf("duplicate fluent %s", sig.Name)
	}
	d.fluents[sig.Name] = sig
	return nil
}

// Fluent resolves a fluent name to its signature.
func (d *Domain) Fluent(name string) (FluentSig, bool) {
	sig, ok := d.fluents[name]
	return sig, ok
}

// Template resolves a template name.
func (d *Domain) Template(name string) (*Template, bool) {
	t, ok := d.templates[name]
	return t, ok
}

// AddTemplate validates and registers an action template. Violations are
// reported as MalformedTemplateError (structure) or TypeMismatchError
// (schema). Registration is the single load-time checkpoint: once a
// template is in the domain, instantiation only has to bind and schedule.
func (d *Domain) AddTemplate(t *Template) error {
	if t.Name == "" {
		return &MalformedTemplateError{Template: t.Name, Reason: "template name must be non-empty"}
	}
	if _, dup := d.templates[t.Name]; dup {
		return fmt.Errorf("duplicate template %s", t.Name)
	}
	if t.Duration == nil {
		return &MalformedTemplateError{Template: t.Name, Reason: "missing duration"}
	}
	seen := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		if !d.types[p.Type] {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("parameter %s has unknown type %s", p.Name, p.Type)}
		}
		if seen[p.Name] {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("duplicate parameter %s", p.Name)}
		}
		seen[p.Name] = true
	}

	for i := range t.Clauses {
		if err := d.checkClause(t, &t.Clauses[i]); err != nil {
			return err
		}
	}

	// Offsets and same-time contradictions can only be bounded against a
	// known duration. Constant durations are checked here; templates with
	// binding-dependent durations get the same checks at instantiation.
	if cd, ok := t.Duration.(ConstDuration); ok {
		dur, err := cd.Eval(nil)
		if err != nil {
			return &MalformedTemplateError{Template: t.Name, Reason: err.Error()}
		}
		if err := CheckSchedule(t, dur); err != nil {
			return err
		}
	}

	d.templates[t.Name] = t
	return nil
}

// checkClause validates one clause against the fluent schema.
func (d *Domain) checkClause(t *Template, c *Clause) error {
	sig, ok := d.fluents[c.Fluent.Name]
	if !ok {
		return &MalformedTemplateError{Template: t.Name,
			Reason: fmt.Sprintf("clause references unknown fluent %s", c.Fluent.Name)}
	}
	if len(c.Fluent.Args) != len(sig.Params) {
		return &MalformedTemplateError{Template: t.Name,
			Reason: fmt.Sprintf("%s applies %s with %d arguments, signature wants %d",
				c.Fluent, sig.Name, len(c.Fluent.Args), len(sig.Params))}
	}
	for i, term := range c.Fluent.Args {
		want := sig.Params[i]
		switch tm := term.(type) {
		case ParamTerm:
			p, ok := t.param(string(tm))
			if !ok {
				return &MalformedTemplateError{Template: t.Name,
					Reason: fmt.Sprintf("%s references undeclared parameter %s", c.Fluent, tm)}
			}
			if p.Type != want {
				return &TypeMismatchError{Template: t.Name, Param: p.Name,
					Want: want, Got: p.Type, Object: tm.String()}
			}
		case ObjectTerm:
			obj, ok := d.objects[string(tm)]
			if !ok {
				return &MalformedTemplateError{Template: t.Name,
					Reason: fmt.Sprintf("%s references unknown object %s", c.Fluent, tm)}
			}
			if obj.Type != want {
				return &TypeMismatchError{Template: t.Name, Param: sig.Name,
					Want: want, Got: obj.Type, Object: obj.Name}
			}
		default:
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("%s has unsupported term %T", c.Fluent, term)}
		}
	}

	switch c.Kind {
	case ClauseCondition:
		if c.Want == nil {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("condition on %s has no expected value", c.Fluent)}
		}
		if c.Want.Kind() != sig.Kind {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("condition on %s expects %s value, fluent is %s",
					c.Fluent, c.Want.Kind(), sig.Kind)}
		}
	case ClauseEffect:
		switch e := c.Expr.(type) {
		case Lit:
			if e.Value == nil || e.Value.Kind() != sig.Kind {
				return &MalformedTemplateError{Template: t.Name,
					Reason: fmt.Sprintf("effect on %s assigns wrong value kind, fluent is %s",
						c.Fluent, sig.Kind)}
			}
		case Delta:
			if sig.Kind != KindInt {
				return &MalformedTemplateError{Template: t.Name,
					Reason: fmt.Sprintf("relative effect on %s requires an int fluent", c.Fluent)}
			}
		default:
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("effect on %s has no value expression", c.Fluent)}
		}
	default:
		return &MalformedTemplateError{Template: t.Name,
			Reason: fmt.Sprintf("clause on %s has unknown kind", c.Fluent)}
	}
	return nil
}

// CheckSchedule validates a template's clause schedule against an
// evaluated duration: every offset must lie in [0, duration], and two
// effects on the identical fluent reference at the identical offset are
// legal only if both assign the same literal value.
func CheckSchedule(t *Template, duration int64) error {
	if duration < 0 {
		return &MalformedTemplateError{Template: t.Name,
			Reason: fmt.Sprintf("negative duration %d", duration)}
	}
	type slot struct {
		time int64
		ref  string
	}
	effects := make(map[slot]Expr)
	for i := range t.Clauses {
		c := &t.Clauses[i]
		at := c.Offset.Resolve(0, duration)
		if at < 0 || at > duration {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("clause %s at %s is outside [0,%d]", c.Fluent, c.Offset, duration)}
		}
		if c.Kind != ClauseEffect {
			continue
		}
		s := slot{time: at, ref: c.Fluent.String()}
		prev, dup := effects[s]
		if !dup {
			effects[s] = c.Expr
			continue
		}
		// Idempotent rewrites (identical literal values) are allowed;
		// anything else would make the resulting state ambiguous.
		pl, pok := prev.(Lit)
		cl, cok := c.Expr.(Lit)
		if !pok || !cok || !Equal(pl.Value, cl.Value) {
			return &MalformedTemplateError{Template: t.Name,
				Reason: fmt.Sprintf("contradictory effects on %s at offset %d", c.Fluent, at)}
		}
	}
	return nil
}
