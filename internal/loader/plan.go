package loader

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roiken/tempoval/internal/model"
)

type planDoc struct {
	Name      string          `yaml:"name"`
	Instances []instanceDoc   `yaml:"instances"`
	Init      []assignmentDoc `yaml:"init"`
	Goal      []goalDoc       `yaml:"goal"`
}

type instanceDoc struct {
	ID     string   `yaml:"id,omitempty"`
	Action string   `yaml:"action"`
	Args   []string `yaml:"args"`
	Start  int64    `yaml:"start"`
}

type assignmentDoc struct {
	Fluent string   `yaml:"fluent"`
	Args   []string `yaml:"args"`
	Value  any      `yaml:"value"`
}

type goalDoc struct {
	Fluent string   `yaml:"fluent"`
	Args   []string `yaml:"args"`
	Value  any      `yaml:"value"`
	Negate bool     `yaml:"negate,omitempty"`
}

// LoadPlan reads a candidate plan from a strict YAML document. Unknown
// fields are rejected so that typos fail loudly instead of silently
// dropping an instance or a goal clause.
func LoadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a plan from YAML bytes.
func ParsePlan(data []byte) (*model.Plan, error) {
	var doc planDoc
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	p := &model.Plan{}
	for i, in := range doc.Instances {
		if in.Action == "" {
			return nil, fmt.Errorf("plan instance %d: action is required", i)
		}
		if in.Start < 0 {
			return nil, fmt.Errorf("plan instance %d: start must be non-negative", i)
		}
		p.Instances = append(p.Instances, model.Instance{
			ID:       in.ID,
			Template: ident(in.Action),
			Args:     idents(in.Args),
			Start:    in.Start,
		})
	}
	for i, a := range doc.Init {
		v, ok := model.ParseValue(a.Value)
		if !ok {
			return nil, fmt.Errorf("init %d (%s): value must be bool or int, got %T", i, a.Fluent, a.Value)
		}
		p.Init = append(p.Init, model.Assignment{Fluent: ident(a.Fluent), Args: idents(a.Args), Value: v})
	}
	for i, g := range doc.Goal {
		v, ok := model.ParseValue(g.Value)
		if !ok {
			return nil, fmt.Errorf("goal %d (%s): value must be bool or int, got %T", i, g.Fluent, g.Value)
		}
		p.Goal = append(p.Goal, model.GoalClause{Fluent: ident(g.Fluent), Args: idents(g.Args), Want: v, Negate: g.Negate})
	}
	return p, nil
}
