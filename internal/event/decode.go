package event

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/textproto"
	"net/url"
	"strings"

	"ssr-render-host/pkg/serverless"

	"github.com/aws/aws-lambda-go/events"
)

// Decoder parses platform invocation envelopes into normalized requests.
// It holds no state and performs no side effects beyond parsing.
type Decoder struct{}

// NewDecoder creates a new Decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode detects the envelope variant carried by raw and normalizes it.
// Fails with a malformed-event error when required fields (method, path) are
// absent, when a header name is not a valid HTTP token, or when a body flagged
// as base64 does not decode.
func (d *Decoder) Decode(raw []byte) (*serverless.Request, Kind, error) {
	kind := DetectKind(raw)

	switch kind {
	case KindFunctionURL:
		var ev events.LambdaFunctionURLRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, kind, NewAdapterError("Decode", kind, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
		}
		req, err := d.decodeFunctionURL(&ev)
		return req, kind, err
	case KindAPIGateway:
		var ev events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, kind, NewAdapterError("Decode", kind, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
		}
		req, err := d.decodeAPIGateway(&ev)
		return req, kind, err
	case KindALB:
		var ev events.ALBTargetGroupRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, kind, NewAdapterError("Decode", kind, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
		}
		req, err := d.decodeALB(&ev)
		return req, kind, err
	default:
		return nil, kind, NewAdapterError("Decode", kind, ErrUnknownEnvelope)
	}
}

// decodeFunctionURL normalizes a Function URL / HTTP API payload v2 event.
// Payload v2 joins repeated header values with commas; cookies arrive in a
// separate field and are folded back into a Cookie header.
func (d *Decoder) decodeFunctionURL(ev *events.LambdaFunctionURLRequest) (*serverless.Request, error) {
	method := ev.RequestContext.HTTP.Method
	path := ev.RawPath
	if path == "" {
		path = ev.RequestContext.HTTP.Path
	}

	if err := requireMethodAndPath(method, path); err != nil {
		return nil, NewAdapterError("Decode", KindFunctionURL, err)
	}

	headers, err := normalizeSingleHeaders(ev.Headers)
	if err != nil {
		return nil, NewAdapterError("Decode", KindFunctionURL, err)
	}
	if len(ev.Cookies) > 0 {
		headers["Cookie"] = []string{strings.Join(ev.Cookies, "; ")}
	}

	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, NewAdapterError("Decode", KindFunctionURL, err)
	}

	query := make(map[string][]string, len(ev.QueryStringParameters))
	if ev.RawQueryString != "" {
		if parsed, perr := url.ParseQuery(ev.RawQueryString); perr == nil {
			query = parsed
		}
	}
	if len(query) == 0 {
		for k, v := range ev.QueryStringParameters {
			query[k] = []string{v}
		}
	}

	return &serverless.Request{
		Method:      method,
		Path:        path,
		Headers:     headers,
		QueryParams: query,
		RawQuery:    ev.RawQueryString,
		Body:        body,
		SourceIP:    ev.RequestContext.HTTP.SourceIP,
		RequestID:   ev.RequestContext.RequestID,
	}, nil
}

// decodeAPIGateway normalizes an API Gateway REST proxy (payload v1) event.
func (d *Decoder) decodeAPIGateway(ev *events.APIGatewayProxyRequest) (*serverless.Request, error) {
	if err := requireMethodAndPath(ev.HTTPMethod, ev.Path); err != nil {
		return nil, NewAdapterError("Decode", KindAPIGateway, err)
	}

	headers, err := normalizeHeaders(ev.Headers, ev.MultiValueHeaders)
	if err != nil {
		return nil, NewAdapterError("Decode", KindAPIGateway, err)
	}

	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, NewAdapterError("Decode", KindAPIGateway, err)
	}

	query := mergeQuery(ev.QueryStringParameters, ev.MultiValueQueryStringParameters)

	return &serverless.Request{
		Method:      ev.HTTPMethod,
		Path:        ev.Path,
		Headers:     headers,
		QueryParams: query,
		RawQuery:    url.Values(query).Encode(),
		Body:        body,
		SourceIP:    ev.RequestContext.Identity.SourceIP,
		RequestID:   ev.RequestContext.RequestID,
	}, nil
}

// decodeALB normalizes an ALB target group event. ALB sends either the
// single-value or multi-value maps depending on target group configuration,
// never both.
func (d *Decoder) decodeALB(ev *events.ALBTargetGroupRequest) (*serverless.Request, error) {
	if err := requireMethodAndPath(ev.HTTPMethod, ev.Path); err != nil {
		return nil, NewAdapterError("Decode", KindALB, err)
	}

	headers, err := normalizeHeaders(ev.Headers, ev.MultiValueHeaders)
	if err != nil {
		return nil, NewAdapterError("Decode", KindALB, err)
	}

	body, err := decodeBody(ev.Body, ev.IsBase64Encoded)
	if err != nil {
		return nil, NewAdapterError("Decode", KindALB, err)
	}

	query := mergeQuery(ev.QueryStringParameters, ev.MultiValueQueryStringParameters)

	return &serverless.Request{
		Method:      ev.HTTPMethod,
		Path:        ev.Path,
		Headers:     headers,
		QueryParams: query,
		RawQuery:    url.Values(query).Encode(),
		Body:        body,
	}, nil
}

// requireMethodAndPath enforces the required-field contract shared by all
// envelope variants.
func requireMethodAndPath(method, path string) error {
	if method == "" {
		return ErrMissingMethod
	}
	if path == "" {
		return ErrMissingPath
	}
	return nil
}

// decodeBody returns the raw body bytes, reversing base64 transport encoding
// when the envelope flags it.
func decodeBody(body string, isBase64 bool) ([]byte, error) {
	if body == "" {
		return nil, nil
	}
	if !isBase64 {
		return []byte(body), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return decoded, nil
}

// normalizeSingleHeaders canonicalizes a single-value header map.
func normalizeSingleHeaders(in map[string]string) (map[string][]string, error) {
	out := make(map[string][]string, len(in))
	for name, value := range in {
		if !validHeaderName(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, name)
		}
		out[textproto.CanonicalMIMEHeaderKey(name)] = []string{value}
	}
	return out, nil
}

// normalizeHeaders canonicalizes headers, preferring the multi-value map when
// present so repeated headers keep their order.
func normalizeHeaders(single map[string]string, multi map[string][]string) (map[string][]string, error) {
	if len(multi) > 0 {
		out := make(map[string][]string, len(multi))
		for name, values := range multi {
			if !validHeaderName(name) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, name)
			}
			canonical := textproto.CanonicalMIMEHeaderKey(name)
			out[canonical] = append(out[canonical], values...)
		}
		return out, nil
	}
	return normalizeSingleHeaders(single)
}

// mergeQuery prefers the multi-value query map when present.
func mergeQuery(single map[string]string, multi map[string][]string) map[string][]string {
	if len(multi) > 0 {
		out := make(map[string][]string, len(multi))
		for k, v := range multi {
			out[k] = append(out[k], v...)
		}
		return out
	}
	out := make(map[string][]string, len(single))
	for k, v := range single {
		out[k] = []string{v}
	}
	return out
}

// validHeaderName reports whether name is a valid HTTP header field name
// (RFC 7230 token).
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune("!#$%&'*+-.^_`|~", rune(c)):
		default:
			return false
		}
	}
	return true
}
