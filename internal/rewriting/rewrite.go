// Package rewriting orchestrates the per-block rewrite loop. Each rewritable
// block moves through a small state machine: a candidate is requested from the
// rewrite service, checked by the constraint enforcer, retried with a
// tightened instruction when rejected, and replaced by the original text once
// the attempt ceiling is reached. A block never fails the run; the worst
// outcome for any block is its own original text.
package rewriting

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/constraints"
	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Request carries everything the rewrite service needs for one attempt
type Request struct {
	BlockID        string
	Text           string
	Role           types.BlockRole
	JobDescription string

	// Character budget derived from the enforcer's tolerance
	MinChars int
	MaxChars int

	// Tightening is an extra instruction restating the constraint the
	// previous attempt violated. Empty on the first attempt.
	Tightening string
}

// Rewriter produces a candidate replacement for one block
type Rewriter interface {
	Rewrite(ctx context.Context, req *Request) (string, error)
}

// State is a block's position in the rewrite loop
type State int

// Rewrite loop states
const (
	StatePending State = iota
	StateRequested
	StateRetryRequested
	StateAccepted
	StateFallback
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRequested:
		return "requested"
	case StateRetryRequested:
		return "retry_requested"
	case StateAccepted:
		return "accepted"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Defaults for the orchestrator knobs
const (
	// DefaultMaxAttempts is the total number of rewrite attempts per block:
	// the first request plus one tightened retry
	DefaultMaxAttempts = 2
	// DefaultTimeout bounds a single rewrite attempt
	DefaultTimeout = 30 * time.Second
	// DefaultWorkers is the number of blocks rewritten concurrently
	DefaultWorkers = 4
)

// ProgressFunc is called after every state change of a block
type ProgressFunc func(blockID string, attempt int, state State)

// Options tunes the orchestrator. Zero values use the defaults.
type Options struct {
	Workers     int
	Timeout     time.Duration
	MaxAttempts int
	OnProgress  ProgressFunc
}

// Orchestrator drives the rewrite loop for a whole document
type Orchestrator struct {
	rewriter       Rewriter
	enforcer       *constraints.Enforcer
	jobDescription string
	workers        int
	timeout        time.Duration
	maxAttempts    int
	onProgress     ProgressFunc
}

// NewOrchestrator creates an orchestrator for one document. The enforcer must
// be built from the same document the blocks were extracted from.
func NewOrchestrator(rewriter Rewriter, enforcer *constraints.Enforcer, jobDescription string, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		rewriter:       rewriter,
		enforcer:       enforcer,
		jobDescription: jobDescription,
		workers:        opts.Workers,
		timeout:        opts.Timeout,
		maxAttempts:    opts.MaxAttempts,
		onProgress:     opts.OnProgress,
	}
}

// RewriteBlocks rewrites every rewritable block concurrently and returns the
// per-block outcomes keyed by block ID. Non-rewritable blocks are skipped.
// The only error returned is cancellation of the parent context; individual
// block failures degrade to fallback results instead.
func (o *Orchestrator) RewriteBlocks(ctx context.Context, blocks []types.Block) (map[string]types.RewriteResult, error) {
	results := make(map[string]types.RewriteResult)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := range blocks {
		block := blocks[i]
		if !block.Role.Rewritable() {
			continue
		}
		g.Go(func() error {
			result := o.rewriteBlock(ctx, &block)
			if err := ctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			results[block.ID] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// rewriteBlock runs the state machine for one block
func (o *Orchestrator) rewriteBlock(ctx context.Context, block *types.Block) types.RewriteResult {
	budget := float64(block.CharCount) * o.enforcer.Tolerance()
	req := &Request{
		BlockID:        block.ID,
		Text:           block.OriginalText,
		Role:           block.Role,
		JobDescription: o.jobDescription,
		MinChars:       block.CharCount - int(budget),
		MaxChars:       block.CharCount + int(budget),
	}

	o.emit(block.ID, 0, StatePending)

	attempts := 0
	for attempts < o.maxAttempts {
		attempts++
		if req.Tightening == "" {
			o.emit(block.ID, attempts, StateRequested)
		} else {
			o.emit(block.ID, attempts, StateRetryRequested)
		}

		candidate, err := o.attempt(ctx, req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				// A timed-out attempt will not get faster on retry
				break
			}
			var svcErr *types.ServiceError
			if errors.As(err, &svcErr) {
				// Transient service failure: retry the same request
				continue
			}
			break
		}

		verdict := o.enforcer.Check(block.OriginalText, candidate, block.Role)
		if verdict.Accepted {
			o.emit(block.ID, attempts, StateAccepted)
			return types.RewriteResult{
				BlockID:   block.ID,
				FinalText: candidate,
				Source:    types.SourceRewritten,
				Attempts:  attempts,
			}
		}
		req.Tightening = tighteningFor(verdict, req.MinChars, req.MaxChars)
	}

	o.emit(block.ID, attempts, StateFallback)
	return types.RewriteResult{
		BlockID:   block.ID,
		FinalText: block.OriginalText,
		Source:    types.SourceFallbackOriginal,
		Attempts:  attempts,
	}
}

// attempt performs one bounded call to the rewrite service
func (o *Orchestrator) attempt(ctx context.Context, req *Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	candidate, err := o.rewriter.Rewrite(attemptCtx, req)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded {
		return "", context.DeadlineExceeded
	}
	return candidate, err
}

func (o *Orchestrator) emit(blockID string, attempt int, state State) {
	if o.onProgress != nil {
		o.onProgress(blockID, attempt, state)
	}
}

// tighteningFor renders the retry instruction for a rejected verdict,
// restating the violated constraint in concrete terms.
func tighteningFor(verdict constraints.Result, minChars, maxChars int) string {
	template, err := prompts.Get("rewriting.json", "retry-"+string(verdict.Reason))
	if err != nil {
		return verdict.Detail
	}
	return prompts.Format(template, map[string]string{
		"MinChars": strconv.Itoa(minChars),
		"MaxChars": strconv.Itoa(maxChars),
		"Detail":   verdict.Detail,
	})
}
