package retry

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkBackoff_ImmediateSuccess(b *testing.B) {
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return nil }) //nolint:errcheck
	}
}

func BenchmarkBackoff_Unretryable(b *testing.B) {
	bo := DefaultBackoff()
	bo.Retryable = func(error) bool { return false }
	ctx := context.Background()
	fatal := fmt.Errorf("fatal")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return fatal }) //nolint:errcheck
	}
}

// BenchmarkBreaker_Closed is the per-Accept overhead in normal operation.
func BenchmarkBreaker_Closed(b *testing.B) {
	br := NewBreaker(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		br.Execute(passing) //nolint:errcheck
	}
}

func BenchmarkBreaker_Open(b *testing.B) {
	br := NewBreaker(&BreakerConfig{MaxFailures: 1, CoolDown: time.Hour})
	br.Execute(failing) //nolint:errcheck

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		br.Execute(passing) //nolint:errcheck
	}
}
