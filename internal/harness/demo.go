package harness

import (
	"fmt"

	"github.com/roiken/tempoval/internal/model"
)

// Logistics builds the demo domain used by the conformance scenarios:
// a robot shuttling pallets between positions, loading at the depot and
// applying treatments. Durations are in ticks.
//
// Actions:
//   - move(r, from, to), duration 1: robot leaves from and arrives at to,
//     draining one unit of battery at the end.
//   - load_at_depot(r, b, p), duration 1: legal only at a depot position.
//   - unload(r, b, p), duration 1: drops a carried pallet at a position.
//   - make_treatment(r, b, p, t), duration 20: the pallet becomes ready
//     halfway through (start+10) and treated at the end.
func Logistics() (*model.Domain, error) {
	d := model.NewDomain("logistics")

	for _, typ := range []string{"robot", "pallet", "position", "treatment"} {
		if err := d.AddType(typ); err != nil {
			return nil, err
		}
	}

	objects := []model.Object{
		{Name: "r0", Type: "robot"},
		{Name: "p0", Type: "position"},
		{Name: "p1", Type: "position"},
		{Name: "b0", Type: "pallet"},
		{Name: "b1", Type: "pallet"},
		{Name: "t0", Type: "treatment"},
	}
	for _, o := range objects {
		if err := d.AddObject(o.Name, o.Type); err != nil {
			return nil, err
		}
	}

	fluents := []model.FluentSig{
		{Name: "robot_at", Params: []string{"robot", "position"}, Kind: model.KindBool},
		{Name: "battery_level", Params: []string{"robot"}, Kind: model.KindInt},
		{Name: "is_depot", Params: []string{"position"}, Kind: model.KindBool},
		{Name: "loaded", Params: []string{"robot", "pallet"}, Kind: model.KindBool},
		{Name: "pallet_at", Params: []string{"pallet", "position"}, Kind: model.KindBool},
		{Name: "ready", Params: []string{"pallet", "position", "treatment"}, Kind: model.KindBool},
		{Name: "treated", Params: []string{"pallet", "treatment"}, Kind: model.KindBool},
	}
	for _, f := range fluents {
		if err := d.AddFluent(f); err != nil {
			return nil, err
		}
	}

	for _, build := range []func() *model.Template{
		moveTemplate, loadAtDepotTemplate, unloadTemplate, makeTreatmentTemplate,
	} {
		if err := d.AddTemplate(build()); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustLogistics is Logistics for test setup, where a build error is a bug.
func MustLogistics() *model.Domain {
	d, err := Logistics()
	if err != nil {
		panic(fmt.Sprintf("build logistics domain: %v", err))
	}
	return d
}

func moveTemplate() *model.Template {
	r := model.ParamTerm("r")
	from := model.ParamTerm("from")
	to := model.ParamTerm("to")
	return &model.Template{
		Name: "move",
		Params: []model.Param{
			{Name: "r", Type: "robot"},
			{Name: "from", Type: "position"},
			{Name: "to", Type: "position"},
		},
		Duration: model.ConstDuration(1),
		Clauses: []model.Clause{
			model.Condition(model.StartOffset(), model.Ref("robot_at", r, from), model.Bool(true)),
			model.Assign(model.EndOffset(), model.Ref("robot_at", r, from), model.Bool(false)),
			model.Assign(model.EndOffset(), model.Ref("robot_at", r, to), model.Bool(true)),
			model.Effect(model.EndOffset(), model.Ref("battery_level", r), model.Delta{Amount: -1}),
		},
	}
}

func loadAtDepotTemplate() *model.Template {
	r := model.ParamTerm("r")
	b := model.ParamTerm("b")
	p := model.ParamTerm("p")
	return &model.Template{
		Name: "load_at_depot",
		Params: []model.Param{
			{Name: "r", Type: "robot"},
			{Name: "b", Type: "pallet"},
			{Name: "p", Type: "position"},
		},
		Duration: model.ConstDuration(1),
		Clauses: []model.Clause{
			model.Condition(model.StartOffset(), model.Ref("is_depot", p), model.Bool(true)),
			model.Condition(model.StartOffset(), model.Ref("robot_at", r, p), model.Bool(true)),
			model.Condition(model.StartOffset(), model.Ref("pallet_at", b, p), model.Bool(true)),
			model.Assign(model.EndOffset(), model.Ref("pallet_at", b, p), model.Bool(false)),
			model.Assign(model.EndOffset(), model.Ref("loaded", r, b), model.Bool(true)),
		},
	}
}

func unloadTemplate() *model.Template {
	r := model.ParamTerm("r")
	b := model.ParamTerm("b")
	p := model.ParamTerm("p")
	return &model.Template{
		Name: "unload",
		Params: []model.Param{
			{Name: "r", Type: "robot"},
			{Name: "b", Type: "pallet"},
			{Name: "p", Type: "position"},
		},
		Duration: model.ConstDuration(1),
		Clauses: []model.Clause{
			model.Condition(model.StartOffset(), model.Ref("loaded", r, b), model.Bool(true)),
			model.Condition(model.StartOffset(), model.Ref("robot_at", r, p), model.Bool(true)),
			model.Assign(model.EndOffset(), model.Ref("loaded", r, b), model.Bool(false)),
			model.Assign(model.EndOffset(), model.Ref("pallet_at", b, p), model.Bool(true)),
		},
	}
}

func makeTreatmentTemplate() *model.Template {
	r := model.ParamTerm("r")
	b := model.ParamTerm("b")
	p := model.ParamTerm("p")
	t := model.ParamTerm("t")
	return &model.Template{
		Name: "make_treatment",
		Params: []model.Param{
			{Name: "r", Type: "robot"},
			{Name: "b", Type: "pallet"},
			{Name: "p", Type: "position"},
			{Name: "t", Type: "treatment"},
		},
		Duration: model.ConstDuration(20),
		Clauses: []model.Clause{
			model.Condition(model.StartOffset(), model.Ref("robot_at", r, p), model.Bool(true)),
			model.Condition(model.StartOffset(), model.Ref("pallet_at", b, p), model.Bool(true)),
			model.Assign(model.OffsetAt(10), model.Ref("ready", b, p, t), model.Bool(true)),
			model.Assign(model.EndOffset(), model.Ref("treated", b, t), model.Bool(true)),
		},
	}
}

// BaseInit is the demo domain's conventional time-0 state: the robot at
// p1 with a full battery, both pallets at the depot p1, nothing loaded,
// ready, or treated.
func BaseInit() []model.Assignment {
	init := []model.Assignment{
		{Fluent: "robot_at", Args: []string{"r0", "p0"}, Value: model.Bool(false)},
		{Fluent: "robot_at", Args: []string{"r0", "p1"}, Value: model.Bool(true)},
		{Fluent: "battery_level", Args: []string{"r0"}, Value: model.Int(8)},
		{Fluent: "is_depot", Args: []string{"p0"}, Value: model.Bool(false)},
		{Fluent: "is_depot", Args: []string{"p1"}, Value: model.Bool(true)},
	}
	for _, b := range []string{"b0", "b1"} {
		init = append(init,
			model.Assignment{Fluent: "pallet_at", Args: []string{b, "p0"}, Value: model.Bool(false)},
			model.Assignment{Fluent: "pallet_at", Args: []string{b, "p1"}, Value: model.Bool(true)},
			model.Assignment{Fluent: "loaded", Args: []string{"r0", b}, Value: model.Bool(false)},
			model.Assignment{Fluent: "treated", Args: []string{b, "t0"}, Value: model.Bool(false)},
		)
		for _, p := range []string{"p0", "p1"} {
			init = append(init, model.Assignment{
				Fluent: "ready", Args: []string{b, p, "t0"}, Value: model.Bool(false),
			})
		}
	}
	return init
}
