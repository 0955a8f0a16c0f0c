package serverless

import (
	"io"
	"net/textproto"
)

// Request is the normalized HTTP request handed to the rendering pipeline.
// It is derived exactly once from a platform invocation event; header names
// are canonicalized so lookups are case-insensitive.
type Request struct {
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	Headers     map[string][]string `json:"headers"`
	QueryParams map[string][]string `json:"query_params"`
	RawQuery    string              `json:"raw_query"`
	Body        []byte              `json:"body"`
	SourceIP    string              `json:"source_ip,omitempty"`
	RequestID   string              `json:"request_id,omitempty"`
}

// Response is the normalized HTTP response produced by the rendering pipeline,
// exactly one per request. When Stream is non-nil the response body is
// delivered incrementally and Body is ignored; streaming is only honored when
// the host integration supports it.
type Response struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
	Stream     io.Reader           `json:"-"`
}

// HandlerFunc is a platform-agnostic handler interface: one normalized request
// in, one normalized response out.
type HandlerFunc func(req *Request) (*Response, error)

// Header returns the first value for the named request header, or "" when the
// header is absent. Name matching is case-insensitive.
func (r *Request) Header(name string) string {
	vals := r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// SetHeader replaces the named response header with a single value.
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string][]string)
	}
	r.Headers[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
}

// Header returns the first value for the named response header, or "".
func (r *Response) Header(name string) string {
	vals := r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
