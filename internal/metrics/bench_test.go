package metrics

import "testing"

// BenchmarkCollector_SessionOpen measures the overhead of recording
// a session open event (atomic operations).
func BenchmarkCollector_SessionOpen(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SessionOpened()
	}
}

// BenchmarkCollector_Letters measures the per-write counter overhead
// on the cipher path.
func BenchmarkCollector_Letters(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.LettersEnciphered(512)
		c.BytesSent(512)
	}
}

// BenchmarkCollector_Gather measures one Prometheus scrape.
func BenchmarkCollector_Gather(b *testing.B) {
	c := New()
	c.SessionOpened()
	c.LettersEnciphered(1024)
	reg := c.Registry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Gather(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SessionOpened()
		c.BytesSent(32768)
		c.RecordError("test")
	}
}
