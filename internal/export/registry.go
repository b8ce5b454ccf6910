package export

import (
	"fmt"
	"sync"

	"focuslens/internal/services"
)

// Registry owns every export task. The per-project conflict scan and the
// insert happen under one lock hold so two concurrent requests cannot both
// pass the check. Terminal tasks are kept for status polling.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Insert admits a task unless the project already has an active one.
func (r *Registry) Insert(task *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.ProjectID == task.ProjectID && existing.State().Active() {
			return services.Wrap(
				services.ErrConflict,
				"EXPORT_ALREADY_ACTIVE",
				fmt.Sprintf("project %s already has an export in flight", task.ProjectID),
				"wait for the current export to finish or fail",
				nil,
			)
		}
	}
	r.tasks[task.ID] = task
	return nil
}

// Get finds a task by id.
func (r *Registry) Get(taskID string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, services.Wrap(
			services.ErrPrecondition,
			"EXPORT_TASK_NOT_FOUND",
			fmt.Sprintf("no export task %s", taskID),
			"",
			nil,
		)
	}
	return task, nil
}

// ActiveForProject returns the in-flight task for a project, if any.
func (r *Registry) ActiveForProject(projectID string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.ProjectID == projectID && task.State().Active() {
			return task, true
		}
	}
	return nil, false
}

// List returns every known task, terminal ones included.
func (r *Registry) List() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]*Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}
