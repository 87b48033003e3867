package services

import (
	"context"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	"golang.org/x/sync/errgroup"
)

const defaultBulkConcurrency = 4

// runBulk applies fn to every ID with at most limit calls in flight. Items
// fail independently: a failure neither cancels the others nor undoes the
// ones that already succeeded. Duplicate IDs are processed once.
func runBulk(ctx context.Context, limit int, action, noun string, ids []string, fn func(ctx context.Context, id string) error) domain.BulkResult {
	if limit <= 0 {
		limit = defaultBulkConcurrency
	}
	unique := dedupe(ids)
	errs := make([]error, len(unique))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(gateways.ItemIdempotencyKey(ctx, id), id)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BulkResult{
		Action:    action,
		Noun:      noun,
		Requested: len(unique),
		Succeeded: []string{},
		Failed:    map[string]error{},
	}
	for i, id := range unique {
		if errs[i] != nil {
			result.Failed[id] = errs[i]
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
