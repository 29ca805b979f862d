//go:build !trace

package tracing

import "context"

// Tracing is compiled out unless the trace build tag is set; these
// stubs keep call sites unconditional.

func Start() error { return nil }

func Stop() {}

func StartTask(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

func StartRegion(ctx context.Context, name string) func() {
	return func() {}
}

func Log(ctx context.Context, category, message string) {}
