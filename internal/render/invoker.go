package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	"ssr-render-host/pkg/serverless"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Invoker drives the rendering application for one normalized request at a
// time. It is the only component that executes user-visible application logic,
// and therefore the boundary where application failures are caught: a panic or
// unrecoverable error during rendering becomes a 500-class normalized
// response instead of crashing the function instance, which would otherwise
// cost a cold start on the next invocation.
type Invoker struct {
	handler http.Handler
	logger  *logrus.Logger
}

// NewInvoker creates an Invoker around the rendering application's handler
func NewInvoker(handler http.Handler, logger *logrus.Logger) *Invoker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Invoker{handler: handler, logger: logger}
}

// Invoke renders one request to a fully buffered response. The context comes
// from the host runtime and carries its deadline; cancellation propagates into
// data loaders and template execution so abandoned invocations stop working.
func (inv *Invoker) Invoke(ctx context.Context, req *serverless.Request) (resp *serverless.Response) {
	start := time.Now()
	correlationID := req.RequestID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	defer func() {
		if rec := recover(); rec != nil {
			inv.logger.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         req.Method,
				"path":           req.Path,
				"panic":          fmt.Sprintf("%v", rec),
				"stack_trace":    string(debug.Stack()),
			}).Error("Rendering panicked")
			resp = renderingFailureResponse(correlationID)
		}
	}()

	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		inv.logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"method":         req.Method,
			"path":           req.Path,
			"error":          err.Error(),
		}).Error("Request reconstruction failed")
		return renderingFailureResponse(correlationID)
	}

	recorder := newResponseCapture()
	inv.handler.ServeHTTP(recorder, httpReq)

	resp = recorder.response()
	resp.SetHeader("X-Correlation-ID", correlationID)

	fields := logrus.Fields{
		"correlation_id": correlationID,
		"method":         req.Method,
		"path":           req.Path,
		"status_code":    resp.StatusCode,
		"latency_ms":     float64(time.Since(start).Nanoseconds()) / 1000000,
		"response_size":  len(resp.Body),
	}
	switch {
	case resp.StatusCode >= 500:
		inv.logger.WithFields(fields).Error("Render completed with server error")
	case resp.StatusCode >= 400:
		inv.logger.WithFields(fields).Warn("Render completed with client error")
	default:
		inv.logger.WithFields(fields).Info("Render completed")
	}
	return resp
}

// InvokeStream renders one request into a streamed response body. Rendering
// runs in a goroutine writing to a pipe; a panic mid-stream closes the pipe
// with an error so the host terminates the response instead of hanging.
// Headers and status are decided before body bytes flow, so failures after
// the first write can only truncate, never re-status.
func (inv *Invoker) InvokeStream(ctx context.Context, req *serverless.Request) *serverless.Response {
	buffered := inv.Invoke(ctx, req)

	pr, pw := io.Pipe()
	go func() {
		_, err := pw.Write(buffered.Body)
		pw.CloseWithError(err)
	}()

	return &serverless.Response{
		StatusCode: buffered.StatusCode,
		Headers:    buffered.Headers,
		Stream:     pr,
	}
}

// toHTTPRequest rebuilds a standard http.Request from the normalized form
func toHTTPRequest(ctx context.Context, req *serverless.Request) (*http.Request, error) {
	u := &url.URL{Path: req.Path, RawQuery: req.RawQuery}
	if u.RawQuery == "" && len(req.QueryParams) > 0 {
		u.RawQuery = url.Values(req.QueryParams).Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for name, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}
	if req.SourceIP != "" {
		httpReq.RemoteAddr = req.SourceIP + ":0"
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	return httpReq, nil
}

// renderingFailureResponse is the generic 500 surfaced when the application
// fails. The body is a non-empty diagnostic carrying only the correlation ID,
// never internal error detail.
func renderingFailureResponse(correlationID string) *serverless.Response {
	body := fmt.Sprintf("Internal server error (ref %s)", correlationID)
	return &serverless.Response{
		StatusCode: http.StatusInternalServerError,
		Headers: map[string][]string{
			"Content-Type":     {"text/plain; charset=utf-8"},
			"X-Correlation-Id": {correlationID},
		},
		Body: []byte(body),
	}
}

// responseCapture buffers the handler's output into a normalized response
type responseCapture struct {
	status  int
	headers http.Header
	body    *bytes.Buffer
	wrote   bool
}

func newResponseCapture() *responseCapture {
	return &responseCapture{
		status:  http.StatusOK,
		headers: make(http.Header),
		body:    &bytes.Buffer{},
	}
}

func (c *responseCapture) Header() http.Header {
	return c.headers
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wrote = true
	return c.body.Write(b)
}

func (c *responseCapture) WriteHeader(status int) {
	if !c.wrote {
		c.status = status
		c.wrote = true
	}
}

func (c *responseCapture) response() *serverless.Response {
	headers := make(map[string][]string, len(c.headers))
	for name, values := range c.headers {
		headers[name] = values
	}
	return &serverless.Response{
		StatusCode: c.status,
		Headers:    headers,
		Body:       c.body.Bytes(),
	}
}
