package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one project in a batch. Exactly one of Result and
// Err is set.
type Outcome struct {
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// RunBatch simulates every project concurrently, at most concurrency at a
// time, and returns the outcomes in input order. A project that fails
// validation records its error in its outcome without stopping the others;
// only context cancellation aborts the batch.
func (e *Engine) RunBatch(ctx context.Context, projects []validation.RawInput, reference time.Time, concurrency int) ([]Outcome, error) {
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	outcomes := make([]Outcome, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range projects {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw := projects[i]
			outcomes[i].Name = raw.Name
			if outcomes[i].Name == "" {
				outcomes[i].Name = fmt.Sprintf("project-%d", i+1)
			}

			result, err := e.Run(raw, reference)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = &result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Warn("batch simulation aborted",
			zap.String("op", "simulation.RunBatch"),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Debug(fmt.Sprintf("simulated %d projects", len(projects)),
		zap.String("op", "simulation.RunBatch"),
		zap.Int("concurrency", concurrency),
	)
	return outcomes, nil
}
