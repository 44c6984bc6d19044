package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/uhyunpark/ridematcher/pkg/node"
)

// Evaluator runs a transaction body against a dApp without broadcasting it.
type Evaluator interface {
	Evaluate(ctx context.Context, dApp string, body any) (*node.EvaluateResult, error)
}

var _ Evaluator = (*node.Client)(nil)

type CaseResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Passed      bool          `json:"passed"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type Report struct {
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Results []CaseResult `json:"results"`
}

// OK is false when any case failed.
func (r *Report) OK() bool { return r.Failed == 0 }

func (r *Report) Summary() string {
	return fmt.Sprintf("Total tests: %d, Passed: %d, Failed: %d", r.Total, r.Passed, r.Failed)
}

// Runner evaluates cases with at most MaxConcurrent requests in flight and at
// least MinInterval between request starts.
type Runner struct {
	eval          Evaluator
	maxConcurrent int
	limiter       *rate.Limiter
	log           *zap.SugaredLogger
}

func NewRunner(eval Evaluator, maxConcurrent int, minInterval time.Duration, log *zap.SugaredLogger) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		eval:          eval,
		maxConcurrent: maxConcurrent,
		limiter:       rate.NewLimiter(limit, 1),
		log:           log,
	}
}

// Run evaluates every case. Case failures are reported, not returned; the
// error is non-nil only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	results := make([]CaseResult, len(cases))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for i := range cases {
		i := i
		c := cases[i]
		g.Go(func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
			start := time.Now()
			res, err := r.eval.Evaluate(ctx, c.DApp, c.Tx)
			msg := Check(c.Expect, res, err)
			results[i] = CaseResult{
				Name:        c.Name,
				Description: c.Description,
				Passed:      msg == "",
				Message:     msg,
				Duration:    time.Since(start),
			}
			if msg != "" {
				r.log.Warnw("case_failed", "case", c.Name, "description", c.Description, "reason", msg)
			} else {
				r.log.Infow("case_passed", "case", c.Name, "description", c.Description)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Total: len(results), Results: results}
	for _, res := range results {
		if res.Passed {
			rep.Passed++
		} else {
			rep.Failed++
		}
	}
	return rep, nil
}

// Check compares one evaluation with its expectation and returns "" on pass
// or the failure reason. Successful evaluations are matched on stateChanges.
func Check(exp Expect, res *node.EvaluateResult, err error) string {
	if err != nil {
		return "evaluate: " + err.Error()
	}
	if exp.WantsError() {
		if !res.Failed() {
			return "expected error, got result"
		}
		if !strings.Contains(res.Error, exp.Error) {
			return fmt.Sprintf("expected error containing %q, got %q", exp.Error, res.Error)
		}
		return ""
	}
	if res.Failed() {
		return "expected result, got error: " + res.Error
	}
	if exp.Result == nil {
		return ""
	}
	if err := MatchObject(res.Raw["stateChanges"], exp.Result); err != nil {
		return err.Error()
	}
	return ""
}
