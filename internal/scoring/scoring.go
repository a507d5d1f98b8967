// Package scoring talks to the external vision scoring service and turns its
// semi-structured responses into typed technique analyses.
package scoring

import (
	"context"
	"errors"

	"github.com/dojotrack/technique-analyzer/internal/frames"
)

var (
	// ErrUnavailable means the scoring service is unconfigured (missing API
	// key or endpoint). Submissions must fail fast on it.
	ErrUnavailable = errors.New("scoring service unavailable")
	// ErrTimeout means the scoring call exceeded its configured deadline.
	ErrTimeout = errors.New("scoring request timed out")
)

// Client scores an ordered sequence of frames against a prompt and returns
// the service's raw text response. Implementations must honor ctx deadlines.
type Client interface {
	Score(ctx context.Context, prompt string, imgs []frames.Frame) (string, error)
	Model() string
}
