package application

import (
	"context"
	"fmt"
	"sort"
)

// GenerateCoverageReport is the name of the built-in report task.
const GenerateCoverageReport = "generate-coverage-report"

// TaskEnv carries invocation context from the runner to a task. Tasks take no arguments of their own.
type TaskEnv struct {
	Root       string
	ConfigPath string
}

// Task is a named unit of work exposed to the command-line runner.
type Task struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env TaskEnv) (GenerateResult, error)
}

// TaskRegistry maps task names to tasks.
type TaskRegistry struct {
	tasks map[string]Task
}

// NewTaskRegistry creates a registry. Task names must be unique and non-empty.
func NewTaskRegistry(tasks ...Task) (*TaskRegistry, error) {
	r := &TaskRegistry{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		if t.Name == "" || t.Run == nil {
			return nil, fmt.Errorf("task must have a name and a run function")
		}
		if _, ok := r.tasks[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name)
		}
		r.tasks[t.Name] = t
	}
	return r, nil
}

// Get returns the task registered under name.
func (r *TaskRegistry) Get(name string) (Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return t, nil
}

// List returns all tasks sorted by name.
func (r *TaskRegistry) List() []Task {
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tasks returns the registry of tasks backed by this service.
func (s *Service) Tasks() *TaskRegistry {
	// The only task is static, so construction cannot fail.
	r, _ := NewTaskRegistry(Task{
		Name:        GenerateCoverageReport,
		Description: "Render test/**/coverage.info lcov files as HTML into .coverage",
		Run: func(ctx context.Context, env TaskEnv) (GenerateResult, error) {
			return s.Generate(ctx, GenerateOptions{Root: env.Root, ConfigPath: env.ConfigPath})
		},
	})
	return r
}
