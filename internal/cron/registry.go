package cron

import "context"

// Job is one unit of invoice maintenance run each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps maintenance jobs in the order they run. A job name may
// appear once; later registrations under the same name are dropped.
type Registry struct {
	ordered []Job
	byName  map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register reports whether job was added.
func (r *Registry) Register(job Job) bool {
	if job == nil {
		return false
	}
	name := job.Name()
	if _, taken := r.byName[name]; taken {
		return false
	}
	if r.byName == nil {
		r.byName = map[string]Job{}
	}
	r.byName[name] = job
	r.ordered = append(r.ordered, job)
	return true
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[name]
	return job, ok
}

// Jobs returns the jobs in run order. Callers may modify the slice.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.ordered...)
}

// Names lists job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, job := range r.ordered {
		names = append(names, job.Name())
	}
	return names
}
