package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "with custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
		{
			name:            "with zero timeout uses default",
			timeout:         0,
			expectedTimeout: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(ErrorLevel, io.Discard)
			sm := NewShutdownManager(logger, nil, tt.timeout)

			if sm == nil {
				t.Fatal("NewShutdownManager returned nil")
			}
			if sm.shutdownTimeout != tt.expectedTimeout {
				t.Errorf("shutdownTimeout = %v, want %v", sm.shutdownTimeout, tt.expectedTimeout)
			}
			if len(sm.shutdownFuncs) != 0 {
				t.Errorf("Expected empty shutdown funcs, got %d", len(sm.shutdownFuncs))
			}
		})
	}
}

func TestRegisterShutdownFunc(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	sm := NewShutdownManager(logger, nil, time.Second)

	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })

	if len(sm.shutdownFuncs) != 2 {
		t.Errorf("Expected 2 shutdown funcs, got %d", len(sm.shutdownFuncs))
	}
}

func TestRegisterShutdownFuncConcurrent(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	sm := NewShutdownManager(logger, nil, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	if len(sm.shutdownFuncs) != 20 {
		t.Errorf("Expected 20 shutdown funcs, got %d", len(sm.shutdownFuncs))
	}
}

func TestWaitForShutdownRunsRegisteredFuncs(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	sm := NewShutdownManager(logger, nil, 5*time.Second)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.WaitForShutdown()
	}()

	// Give WaitForShutdown time to install its signal handler.
	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send SIGTERM: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("WaitForShutdown returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if ran != 3 {
		t.Errorf("Expected 3 shutdown funcs to run, got %d", ran)
	}
}

func TestWaitForShutdownCollectsErrors(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	sm := NewShutdownManager(logger, nil, 5*time.Second)

	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return errors.New("redis close failed") })

	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.WaitForShutdown()
	}()

	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send SIGTERM: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Expected error from failing shutdown func")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
}

func TestWaitForShutdownStopsHTTPServer(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	server := &http.Server{Addr: "127.0.0.1:0"}
	sm := NewShutdownManager(logger, server, 5*time.Second)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sm.WaitForShutdown()
	}()

	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send SIGTERM: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("WaitForShutdown returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}

	// A shut-down server rejects new connections.
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}
}

func TestRecoverPanicSwallowsPanic(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)

	func() {
		defer RecoverPanic(logger, "test operation")
		panic("boom")
	}()
}

func TestMustRecover(t *testing.T) {
	if err := MustRecover(nil); err != nil {
		t.Errorf("MustRecover(nil) = %v, want nil", err)
	}

	err := MustRecover("boom")
	if err == nil {
		t.Fatal("MustRecover(non-nil) = nil, want error")
	}
	if err.Error() != "panic: boom" {
		t.Errorf("MustRecover error = %q, want %q", err.Error(), "panic: boom")
	}
}
