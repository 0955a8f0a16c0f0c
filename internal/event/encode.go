package event

import (
	"encoding/base64"
	"fmt"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"ssr-render-host/pkg/serverless"

	"github.com/aws/aws-lambda-go/events"
)

// DefaultMaxPayloadBytes is the buffered response payload limit shared by
// Function URL and API Gateway integrations (6 MB, host-defined).
const DefaultMaxPayloadBytes = 6 * 1024 * 1024

// Encoder serializes normalized responses back into platform envelopes.
// Size and encoding failures are terminal for the invocation; nothing at this
// layer retries or truncates.
type Encoder struct {
	maxPayloadBytes int
}

// NewEncoder creates an Encoder enforcing the given payload limit.
// A non-positive limit falls back to DefaultMaxPayloadBytes.
func NewEncoder(maxPayloadBytes int) *Encoder {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Encoder{maxPayloadBytes: maxPayloadBytes}
}

// Encode serializes resp into the envelope matching the kind the request
// arrived in. Fails with a payload-too-large error when the encoded body
// exceeds the host limit.
func (e *Encoder) Encode(resp *serverless.Response, kind Kind) (interface{}, error) {
	switch kind {
	case KindFunctionURL:
		return e.EncodeFunctionURL(resp)
	case KindAPIGateway:
		return e.EncodeAPIGateway(resp)
	case KindALB:
		return e.EncodeALB(resp)
	default:
		return nil, NewAdapterError("Encode", kind, ErrUnknownEnvelope)
	}
}

// EncodeFunctionURL serializes resp as a Function URL (payload v2) response.
// Payload v2 carries cookies in a dedicated field and joins repeated header
// values with commas.
func (e *Encoder) EncodeFunctionURL(resp *serverless.Response) (events.LambdaFunctionURLResponse, error) {
	body, isBase64, err := e.encodeBody(resp.Body, KindFunctionURL)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}

	headers := make(map[string]string, len(resp.Headers))
	var cookies []string
	for name, values := range resp.Headers {
		if textproto.CanonicalMIMEHeaderKey(name) == "Set-Cookie" {
			cookies = append(cookies, values...)
			continue
		}
		headers[name] = strings.Join(values, ",")
	}

	return events.LambdaFunctionURLResponse{
		StatusCode:      resp.StatusCode,
		Headers:         headers,
		Body:            body,
		IsBase64Encoded: isBase64,
		Cookies:         cookies,
	}, nil
}

// EncodeAPIGateway serializes resp as an API Gateway proxy (payload v1)
// response, with headers copied verbatim into the multi-value map.
func (e *Encoder) EncodeAPIGateway(resp *serverless.Response) (events.APIGatewayProxyResponse, error) {
	body, isBase64, err := e.encodeBody(resp.Body, KindAPIGateway)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode:        resp.StatusCode,
		Headers:           firstValueHeaders(resp.Headers),
		MultiValueHeaders: resp.Headers,
		Body:              body,
		IsBase64Encoded:   isBase64,
	}, nil
}

// EncodeALB serializes resp as an ALB target group response. ALB requires a
// status description alongside the code.
func (e *Encoder) EncodeALB(resp *serverless.Response) (events.ALBTargetGroupResponse, error) {
	body, isBase64, err := e.encodeBody(resp.Body, KindALB)
	if err != nil {
		return events.ALBTargetGroupResponse{}, err
	}

	return events.ALBTargetGroupResponse{
		StatusCode:        resp.StatusCode,
		StatusDescription: fmt.Sprintf("%d", resp.StatusCode),
		Headers:           firstValueHeaders(resp.Headers),
		MultiValueHeaders: resp.Headers,
		Body:              body,
		IsBase64Encoded:   isBase64,
	}, nil
}

// EncodeStream wraps a streaming response for a Function URL configured with
// response streaming. The host enforces its own (larger) streaming limit, so
// no size check happens here. Streaming is negotiated at startup, never
// assumed.
func (e *Encoder) EncodeStream(resp *serverless.Response) (*events.LambdaFunctionURLStreamingResponse, error) {
	if resp.Stream == nil {
		return nil, NewAdapterError("EncodeStream", KindFunctionURL,
			fmt.Errorf("%w: response has no stream", ErrRendering))
	}

	headers := make(map[string]string, len(resp.Headers))
	var cookies []string
	for name, values := range resp.Headers {
		if textproto.CanonicalMIMEHeaderKey(name) == "Set-Cookie" {
			cookies = append(cookies, values...)
			continue
		}
		headers[name] = strings.Join(values, ",")
	}

	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       resp.Stream,
		Cookies:    cookies,
	}, nil
}

// ErrorEnvelope builds a well-formed envelope for an adapter failure so the
// host always receives a response instead of a crashed invocation. The body is
// a minimal diagnostic and never carries internal error detail.
func (e *Encoder) ErrorEnvelope(status int, message string, kind Kind) interface{} {
	resp := &serverless.Response{
		StatusCode: status,
		Headers: map[string][]string{
			"Content-Type": {"text/plain; charset=utf-8"},
		},
		Body: []byte(message),
	}

	// The diagnostic body is small by construction; Encode cannot fail on it.
	envelope, err := e.Encode(resp, kind)
	if err != nil {
		envelope, _ = e.Encode(resp, KindAPIGateway)
	}
	return envelope
}

// encodeBody applies base64 transport encoding for bodies that are not valid
// UTF-8 text and enforces the host payload limit on the final encoded form.
func (e *Encoder) encodeBody(body []byte, kind Kind) (string, bool, error) {
	if len(body) == 0 {
		return "", false, nil
	}

	encoded := string(body)
	isBase64 := false
	if !utf8.Valid(body) {
		encoded = base64.StdEncoding.EncodeToString(body)
		isBase64 = true
	}

	if len(encoded) > e.maxPayloadBytes {
		return "", false, NewAdapterError("Encode", kind,
			fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, len(encoded), e.maxPayloadBytes))
	}
	return encoded, isBase64, nil
}

// firstValueHeaders flattens a multi-value header map to its first values for
// envelopes that carry both forms.
func firstValueHeaders(in map[string][]string) map[string]string {
	out := make(map[string]string, len(in))
	for name, values := range in {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
