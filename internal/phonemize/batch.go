package phonemize

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch phonemizes each input independently with at most workers calls in
// flight, returning results in input order. The first failure cancels the
// remaining work.
func (p *Phonemizer) Batch(ctx context.Context, inputs []string, code string, normalize bool, workers int) ([]string, error) {
	lang, err := ParseLanguage(code)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]string, len(inputs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, in := range inputs {
		eg.Go(func() error {
			ps, err := p.PhonemizeLanguage(egCtx, in, lang, normalize)
			if err != nil {
				return fmt.Errorf("input %d: %w", i+1, err)
			}
			out[i] = ps
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
