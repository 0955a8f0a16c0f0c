package render

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"ssr-render-host/pkg/serverless"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestInvoker_SuccessfulRender(t *testing.T) {
	renderer := newTestRenderer(t, seededStore())
	invoker := NewInvoker(renderer, quietLogger())

	resp := invoker.Invoke(context.Background(), &serverless.Request{
		Method: "GET",
		Path:   "/",
	})

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if len(resp.Body) == 0 {
		t.Error("rendered body is empty")
	}
	if resp.Header("X-Correlation-Id") == "" {
		t.Error("response is missing a correlation ID")
	}
}

func TestInvoker_PanicBecomesServerError(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("simulated rendering failure")
	})
	invoker := NewInvoker(panicking, quietLogger())

	// Must not crash the process, and must produce a diagnostic 500
	resp := invoker.Invoke(context.Background(), &serverless.Request{
		Method:    "GET",
		Path:      "/",
		RequestID: "req-panic-1",
	})

	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		t.Fatal("500 response must carry a non-empty diagnostic body")
	}
	body := string(resp.Body)
	if strings.Contains(body, "simulated rendering failure") {
		t.Errorf("diagnostic body leaks internals: %q", body)
	}
	if !strings.Contains(body, "req-panic-1") {
		t.Errorf("diagnostic body missing correlation reference: %q", body)
	}
}

func TestInvoker_RequestHeadersReachHandler(t *testing.T) {
	var seen string
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Custom")
		w.WriteHeader(204)
	})
	invoker := NewInvoker(echo, quietLogger())

	resp := invoker.Invoke(context.Background(), &serverless.Request{
		Method:  "GET",
		Path:    "/",
		Headers: map[string][]string{"X-Custom": {"present"}},
	})

	if resp.StatusCode != 204 {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if seen != "present" {
		t.Errorf("handler saw X-Custom = %q, want %q", seen, "present")
	}
}

func TestInvoker_ContextCancellationReachesHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var cancelled bool
	observer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			cancelled = true
		default:
		}
		w.WriteHeader(200)
	})
	invoker := NewInvoker(observer, quietLogger())

	invoker.Invoke(ctx, &serverless.Request{Method: "GET", Path: "/"})

	if !cancelled {
		t.Error("host cancellation did not propagate into the handler")
	}
}

func TestInvoker_InvokeStream(t *testing.T) {
	renderer := newTestRenderer(t, seededStore())
	invoker := NewInvoker(renderer, quietLogger())

	resp := invoker.InvokeStream(context.Background(), &serverless.Request{
		Method: "GET",
		Path:   "/",
	})

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Stream == nil {
		t.Fatal("streamed response has no stream")
	}

	body, err := io.ReadAll(resp.Stream)
	if err != nil {
		t.Fatalf("reading stream failed: %v", err)
	}
	if !strings.Contains(string(body), "Test Site") {
		t.Errorf("streamed body missing rendered markup: %s", body)
	}
}
