package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"golang.org/x/text/unicode/norm"

	"github.com/roiken/tempoval/internal/model"
)

// ident canonicalizes an identifier at the load boundary. NFC
// normalization makes visually identical names compare equal regardless
// of how the source document composed them.
func ident(s string) string {
	return norm.NFC.String(s)
}

func idents(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = ident(s)
	}
	return out
}

// Document field shapes for CUE decoding. Values are kept as explicit
// optional fields per kind (is/eq, to/to_int/add) so that decoding never
// has to guess a scalar's type.

type domainDoc struct {
	Name    string               `json:"name"`
	Types   []string             `json:"types"`
	Objects map[string]string    `json:"objects"`
	Fluents map[string]fluentDoc `json:"fluents"`
	Actions map[string]actionDoc `json:"actions"`
}

type fluentDoc struct {
	Params []string `json:"params"`
	Kind   string   `json:"kind"`
}

type actionDoc struct {
	Params   []paramDoc  `json:"params"`
	Duration int64       `json:"duration"`
	Clauses  []clauseDoc `json:"clauses"`
}

type paramDoc struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type clauseDoc struct {
	At      string     `json:"at"`
	Require *condDoc   `json:"require,omitempty"`
	Set     *effectDoc `json:"set,omitempty"`
}

type condDoc struct {
	Fluent string   `json:"fluent"`
	Args   []string `json:"args"`
	Is     *bool    `json:"is,omitempty"` // bool fluents
	Eq     *int64   `json:"eq,omitempty"` // int fluents
	Not    bool     `json:"not,omitempty"`
}

type effectDoc struct {
	Fluent string   `json:"fluent"`
	Args   []string `json:"args"`
	To     *bool    `json:"to,omitempty"`     // bool fluents
	ToInt  *int64   `json:"to_int,omitempty"` // int fluents, absolute
	Add    *int64   `json:"add,omitempty"`    // int fluents, relative
}

// LoadDomain reads a CUE domain document and builds the immutable domain
// registry, running every load-time check the model enforces.
func LoadDomain(path string) (*model.Domain, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(path)}
	instances := load.Instances([]string{filepath.Base(path)}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("load domain %s: no CUE instance", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load domain %s: %w", path, inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("build domain %s: %w", path, err)
	}

	docVal := value.LookupPath(cue.ParsePath("domain"))
	if !docVal.Exists() {
		return nil, fmt.Errorf("load domain %s: no top-level \"domain\" field", path)
	}
	var doc domainDoc
	if err := docVal.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode domain %s: %w", path, err)
	}
	return buildDomain(&doc)
}

// buildDomain converts a decoded document into a model.Domain. Map fields
// are visited in sorted order so that the first reported error is stable.
func buildDomain(doc *domainDoc) (*model.Domain, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("domain name is required")
	}
	d := model.NewDomain(ident(doc.Name))

	for _, typ := range doc.Types {
		if err := d.AddType(ident(typ)); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(doc.Objects) {
		if err := d.AddObject(ident(name), ident(doc.Objects[name])); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(doc.Fluents) {
		fd := doc.Fluents[name]
		kind, err := parseKind(fd.Kind)
		if err != nil {
			return nil, fmt.Errorf("fluent %s: %w", name, err)
		}
		sig := model.FluentSig{Name: ident(name), Kind: kind}
		for _, p := range fd.Params {
			sig.Params = append(sig.Params, ident(p))
		}
		if err := d.AddFluent(sig); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(doc.Actions) {
		t, err := buildTemplate(name, doc.Actions[name])
		if err != nil {
			return nil, err
		}
		if err := d.AddTemplate(t); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// buildTemplate converts one action document into a model.Template.
func buildTemplate(name string, ad actionDoc) (*model.Template, error) {
	t := &model.Template{
		Name:     ident(name),
		Duration: model.ConstDuration(ad.Duration),
	}
	params := make(map[string]bool, len(ad.Params))
	for _, p := range ad.Params {
		pname := ident(p.Name)
		t.Params = append(t.Params, model.Param{Name: pname, Type: ident(p.Type)})
		params[pname] = true
	}

	for i, cd := range ad.Clauses {
		off, err := parseOffset(cd.At)
		if err != nil {
			return nil, fmt.Errorf("action %s clause %d: %w", name, i, err)
		}
		switch {
		case cd.Require != nil && cd.Set == nil:
			ref := makeRef(cd.Require.Fluent, cd.Require.Args, params)
			want, err := condValue(cd.Require)
			if err != nil {
				return nil, fmt.Errorf("action %s clause %d: %w", name, i, err)
			}
			c := model.Condition(off, ref, want)
			c.Negate = cd.Require.Not
			t.Clauses = append(t.Clauses, c)
		case cd.Set != nil && cd.Require == nil:
			ref := makeRef(cd.Set.Fluent, cd.Set.Args, params)
			expr, err := effectExpr(cd.Set)
			if err != nil {
				return nil, fmt.Errorf("action %s clause %d: %w", name, i, err)
			}
			t.Clauses = append(t.Clauses, model.Effect(off, ref, expr))
		default:
			return nil, fmt.Errorf("action %s clause %d: exactly one of require/set is required", name, i)
		}
	}
	return t, nil
}

// makeRef builds a fluent reference, resolving each argument name to a
// parameter reference when it names a declared formal, else to an object
// literal.
func makeRef(fluent string, args []string, params map[string]bool) model.FluentRef {
	terms := make([]model.Term, len(args))
	for i, a := range args {
		a = ident(a)
		if params[a] {
			terms[i] = model.ParamTerm(a)
		} else {
			terms[i] = model.ObjectTerm(a)
		}
	}
	return model.FluentRef{Name: ident(fluent), Args: terms}
}

// condValue extracts the expected value from a condition document.
func condValue(c *condDoc) (model.Value, error) {
	switch {
	case c.Is != nil && c.Eq == nil:
		return model.Bool(*c.Is), nil
	case c.Eq != nil && c.Is == nil:
		return model.Int(*c.Eq), nil
	default:
		return nil, fmt.Errorf("condition on %s: exactly one of is/eq is required", c.Fluent)
	}
}

// effectExpr extracts the value expression from an effect document.
func effectExpr(e *effectDoc) (model.Expr, error) {
	set := 0
	for _, present := range []bool{e.To != nil, e.ToInt != nil, e.Add != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("effect on %s: exactly one of to/to_int/add is required", e.Fluent)
	}
	switch {
	case e.To != nil:
		return model.Lit{Value: model.Bool(*e.To)}, nil
	case e.ToInt != nil:
		return model.Lit{Value: model.Int(*e.ToInt)}, nil
	default:
		return model.Delta{Amount: *e.Add}, nil
	}
}

// parseOffset parses the "at" field: "start", "end", or "start+K".
func parseOffset(s string) (model.Offset, error) {
	switch {
	case s == "start":
		return model.StartOffset(), nil
	case s == "end":
		return model.EndOffset(), nil
	case strings.HasPrefix(s, "start+"):
		ticks, err := strconv.ParseInt(strings.TrimPrefix(s, "start+"), 10, 64)
		if err != nil {
			return model.Offset{}, fmt.Errorf("invalid offset %q", s)
		}
		return model.OffsetAt(ticks), nil
	default:
		return model.Offset{}, fmt.Errorf("invalid offset %q (want start, end, or start+K)", s)
	}
}

// parseKind parses a fluent value kind name.
func parseKind(s string) (model.Kind, error) {
	switch s {
	case "bool":
		return model.KindBool, nil
	case "int":
		return model.KindInt, nil
	default:
		return 0, fmt.Errorf("invalid value kind %q (want bool or int)", s)
	}
}

// sortedKeys returns a map's keys in sorted order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
