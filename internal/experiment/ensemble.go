package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/san-kum/contactdyn/internal/config"
)

// Job is one scenario solved by one method.
type Job struct {
	Scenario *config.Scenario
	Method   string
}

// Ensemble solves independent jobs concurrently. Every job gets its own
// Experiment, so jobs may share a Model but never a constraint set.
type Ensemble struct {
	jobs []Job
	log  logr.Logger
}

func NewEnsemble(jobs []Job, log logr.Logger) *Ensemble {
	return &Ensemble{jobs: jobs, log: log}
}

// Run returns one result per job, in job order. A failed job leaves a nil
// result and its error in the matching slot of the error slice.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, []error) {
	results := make([]*Result, len(e.jobs))
	errs := make([]error, len(e.jobs))

	var wg sync.WaitGroup
	for i, job := range e.jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()

			log := e.log.WithValues("job", idx, "scenario", job.Scenario.Name)
			res, err := New(job.Scenario, log).Run(ctx, job.Method)
			if err != nil {
				errs[idx] = fmt.Errorf("job %d: %w", idx, err)
				return
			}
			results[idx] = res
		}(i, job)
	}

	wg.Wait()
	return results, errs
}
