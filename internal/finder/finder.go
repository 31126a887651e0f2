package finder

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
	"job-applier-go/internal/model"
)

// Finder returns the postings of one job board matching a query
type Finder interface {
	Name() string
	Find(ctx context.Context, title, location string) ([]*model.Job, error)
}

// FinderFunc adapts a plain function to the Finder interface
type FinderFunc struct {
	name string
	fn   func(ctx context.Context, title, location string) ([]*model.Job, error)
}

// Func wraps fn as a Finder called name
func Func(name string, fn func(ctx context.Context, title, location string) ([]*model.Job, error)) *FinderFunc {
	return &FinderFunc{name: name, fn: fn}
}

func (f *FinderFunc) Name() string { return f.name }

func (f *FinderFunc) Find(ctx context.Context, title, location string) ([]*model.Job, error) {
	return f.fn(ctx, title, location)
}

// Registry is an ordered list of finders
type Registry struct {
	finders []Finder
}

// NewRegistry creates a registry holding finders in the given order
func NewRegistry(finders ...Finder) *Registry {
	return &Registry{finders: finders}
}

// FromConfig builds a registry from the finder names listed in job.finders
func FromConfig(cfg *config.Config) (*Registry, error) {
	r := NewRegistry()
	for _, name := range cfg.Job.Finders {
		switch name {
		case SourceJobBank:
			r.Register(NewJobBank(cfg.JobBank))
		default:
			return nil, fmt.Errorf("unknown job finder %q", name)
		}
	}
	return r, nil
}

// Register appends f to the registry
func (r *Registry) Register(f Finder) {
	r.finders = append(r.finders, f)
}

// Names returns the registered finder names in order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.finders))
	for _, f := range r.finders {
		names = append(names, f.Name())
	}
	return names
}

// FindAll concatenates the results of every finder in registration order.
// Results are not deduplicated across finders. A failing finder is logged
// and skipped; its error is joined into the returned error while the jobs
// of the other finders are still returned.
func (r *Registry) FindAll(ctx context.Context, title, location string) ([]*model.Job, error) {
	var (
		jobs []*model.Job
		errs []error
	)

	for _, f := range r.finders {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		found, err := f.Find(ctx, title, location)
		if err != nil {
			logrus.WithError(err).WithField("job_source", f.Name()).Error("Job finder failed")
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}

		logrus.WithFields(logrus.Fields{
			"job_source": f.Name(),
			"count":      len(found),
		}).Info("Jobs found")
		jobs = append(jobs, found...)
	}

	return jobs, errors.Join(errs...)
}
