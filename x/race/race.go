// Package race runs competing waits where the first one to finish wins.
package race

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// errWon cancels the group once any branch returns.
var errWon = errors.New("race: won")

// First runs every branch concurrently and returns as soon as one of them
// returns. The others see their context cancelled and are waited for before
// First returns, so no branch outlives the call.
//
// The result is the index of the winning branch and the error it returned.
// If ctx itself is cancelled, First returns -1 and ctx.Err().
func First(ctx context.Context, branches ...func(ctx context.Context) error) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	var (
		once   sync.Once
		winner = -1
		werr   error
	)
	for i, br := range branches {
		g.Go(func() error {
			err := br(gctx)
			once.Do(func() { winner, werr = i, err })
			return errWon
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil || winner < 0 {
		return -1, ctx.Err()
	}
	return winner, werr
}
