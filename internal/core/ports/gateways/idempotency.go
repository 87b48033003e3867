package gateways

import "context"

type idempotencyKeyCtx struct{}

// WithIdempotencyKey returns a context whose mutations carry key, so the
// billing backend can drop a replayed request.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKey returns the key attached by WithIdempotencyKey.
func IdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKeyCtx{}).(string)
	return key, ok && key != ""
}

// ItemIdempotencyKey derives the context for one item of a bulk mutation.
// Each item gets its own key so retrying the batch replays every item once.
func ItemIdempotencyKey(ctx context.Context, itemID string) context.Context {
	key, ok := IdempotencyKey(ctx)
	if !ok {
		return ctx
	}
	return WithIdempotencyKey(ctx, key+":"+itemID)
}
