package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Run("empty context yields zero values", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, Subject(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("injected values round-trip", func(t *testing.T) {
		fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := WithTime(context.Background(), fixed)
		ctx = WithSubject(ctx, "depositor@example.org")
		ctx = WithRequestID(ctx, "req-1")

		assert.Equal(t, fixed, Now(ctx))
		assert.Equal(t, "depositor@example.org", Subject(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
	})
}
