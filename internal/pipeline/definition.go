package pipeline

import (
	"context"

	"go-tennis-pipeline/internal/dag"
	"go-tennis-pipeline/internal/model"
)

// Task is the side-effecting call behind a stage. Execution blocks for the
// duration of the collaborator call.
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

// StageSpec pairs a declarative stage with the task that performs it.
type StageSpec struct {
	model.Stage
	Task Task
}

// Definition is a validated, immutable pipeline: stages, their dependency
// graph and the resolved execution order.
type Definition struct {
	name   string
	graph  *dag.Graph
	order  []string
	stages map[string]StageSpec
}

// Define chains the stages in the given order. Each stage depends on exactly
// the one before it. Duplicate ids, an empty sequence or a stage without a
// task fail with a ConfigurationError.
func Define(name string, specs ...StageSpec) (*Definition, error) {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	g, err := dag.Chain(ids...)
	if err != nil {
		return nil, err
	}
	if err := g.ValidatePath(); err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	d := &Definition{
		name:   name,
		graph:  g,
		order:  order,
		stages: make(map[string]StageSpec, len(specs)),
	}
	for _, s := range specs {
		if s.Task == nil {
			return nil, model.NewConfigurationError(s.ID, "stage has no task")
		}
		s.DependsOn = g.DependsOn(s.ID)
		d.stages[s.ID] = s
	}
	return d, nil
}

// Name returns the pipeline name.
func (d *Definition) Name() string { return d.name }

// Order returns the stage ids in execution order.
func (d *Definition) Order() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Graph returns the dependency graph.
func (d *Definition) Graph() *dag.Graph { return d.graph }

// Stage returns the declarative stage with the given id.
func (d *Definition) Stage(id string) (model.Stage, bool) {
	s, ok := d.stages[id]
	return s.Stage, ok
}

// Stages returns the declarative stages in execution order.
func (d *Definition) Stages() []model.Stage {
	out := make([]model.Stage, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.stages[id].Stage)
	}
	return out
}

func (d *Definition) task(id string) Task {
	return d.stages[id].Task
}
