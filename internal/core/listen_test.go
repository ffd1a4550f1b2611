package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"enigma/internal/capability"
	"enigma/internal/metrics"
	"enigma/util"
)

func startService(t *testing.T, keepOpen bool, collector *metrics.Collector) (addr string, done <-chan error, cancel context.CancelFunc) {
	t.Helper()
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mode := &ListenMode{
		Address:     fmt.Sprintf("127.0.0.1:%d", port),
		KeepOpen:    keepOpen,
		Timeout:     2 * time.Second,
		Factory:     defaultFactory(t),
		Capability:  &capability.Cipher{Metrics: collector},
		Metrics:     collector,
		GracePeriod: time.Second,
		Logger:      util.NewLogger(0),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- mode.Run(ctx) }()

	// Give the server a moment to start listening.
	time.Sleep(100 * time.Millisecond)
	return mode.Address, errCh, cancel
}

// encipherRemote sends text, half-closes and reads the reply until the
// service hangs up.
func encipherRemote(t *testing.T, addr, text string) string {
	t.Helper()
	reply, err := dialCipher(addr, text)
	if err != nil {
		t.Fatal(err)
	}
	return reply
}

func dialCipher(addr, text string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, text); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	conn.(*net.TCPConn).CloseWrite() //nolint:errcheck

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return string(reply), nil
}

// ── single session ───────────────────────────────────────────────────

func TestListenMode_SingleSession(t *testing.T) {
	addr, done, cancel := startService(t, false, metrics.New())
	defer cancel()

	if got := encipherRemote(t, addr, "HELLOWORLD"); got != "MFNCZBBFZM" {
		t.Errorf("reply = %q, want MFNCZBBFZM", got)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service without -k should return after one session")
	}
}

// ── keep open ────────────────────────────────────────────────────────

func TestListenMode_KeepOpen_FreshMachinePerSession(t *testing.T) {
	collector := metrics.New()
	addr, done, cancel := startService(t, true, collector)

	for i := 0; i < 3; i++ {
		if got := encipherRemote(t, addr, "HELLOWORLD"); got != "MFNCZBBFZM" {
			t.Errorf("session %d reply = %q, want MFNCZBBFZM", i, got)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after cancel: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	if got := collector.TotalSessions(); got != 3 {
		t.Errorf("sessions = %d, want 3", got)
	}
	if got := collector.TotalLetters(); got != 30 {
		t.Errorf("letters = %d, want 30", got)
	}
	if got := collector.ActiveSessions(); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}

func TestListenMode_ConcurrentSessions(t *testing.T) {
	addr, _, cancel := startService(t, true, metrics.New())
	defer cancel()

	plain := strings.Repeat("ATTACKATDAWN", 50)
	var wg sync.WaitGroup
	replies := make([]string, 8)
	errs := make([]error, len(replies))
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], errs[i] = dialCipher(addr, plain)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
	}
	if len(replies[0]) != len(plain) {
		t.Fatalf("reply length = %d, want %d", len(replies[0]), len(plain))
	}
	for i, r := range replies {
		if r != replies[0] {
			t.Errorf("session %d diverged; sessions must not share a machine", i)
		}
	}
}

func TestListenMode_BadAddress(t *testing.T) {
	mode := &ListenMode{Address: "256.0.0.1:bad", Factory: defaultFactory(t), Logger: util.NewLogger(0)}
	if err := mode.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

// ── metrics endpoint ─────────────────────────────────────────────────

func TestListenMode_MetricsEndpoint(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	metricsPort, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collector := metrics.New()
	mode := &ListenMode{
		Address:     fmt.Sprintf("127.0.0.1:%d", port),
		KeepOpen:    true,
		Factory:     defaultFactory(t),
		Capability:  &capability.Cipher{Metrics: collector},
		Metrics:     collector,
		MetricsAddr: fmt.Sprintf("127.0.0.1:%d", metricsPort),
		Logger:      util.NewLogger(0),
	}
	go mode.Run(ctx) //nolint:errcheck
	time.Sleep(100 * time.Millisecond)

	encipherRemote(t, mode.Address, "HELLO")

	resp, err := http.Get("http://" + mode.MetricsAddr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"enigma_letters_enciphered_total 5",
		"enigma_sessions_total 1",
		`enigma_bytes_total{direction="in"} 5`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
