package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"
)

func functionURLEvent(method, path string, headers map[string]string, body string, isBase64 bool) []byte {
	ev := map[string]interface{}{
		"version":  "2.0",
		"rawPath":  path,
		"headers":  headers,
		"body":     body,
		"isBase64Encoded": isBase64,
		"requestContext": map[string]interface{}{
			"requestId": "req-1",
			"http": map[string]interface{}{
				"method":   method,
				"path":     path,
				"sourceIp": "203.0.113.10",
			},
		},
	}
	raw, _ := json.Marshal(ev)
	return raw
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want Kind
	}{
		{
			name: "function URL payload v2",
			raw:  functionURLEvent("GET", "/", nil, "", false),
			want: KindFunctionURL,
		},
		{
			name: "API Gateway proxy v1",
			raw:  []byte(`{"httpMethod":"GET","path":"/","requestContext":{}}`),
			want: KindAPIGateway,
		},
		{
			name: "ALB target group",
			raw:  []byte(`{"httpMethod":"GET","path":"/","requestContext":{"elb":{"targetGroupArn":"arn:aws:x"}}}`),
			want: KindALB,
		},
		{
			name: "unrecognized payload",
			raw:  []byte(`{"records":[]}`),
			want: KindUnknown,
		},
		{
			name: "not JSON",
			raw:  []byte(`not json`),
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.raw); got != tt.want {
				t.Errorf("DetectKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecoder_Decode(t *testing.T) {
	decoder := NewDecoder()

	tests := []struct {
		name    string
		raw     []byte
		wantErr bool
	}{
		{
			name: "valid GET with empty headers",
			raw:  functionURLEvent("GET", "/", map[string]string{}, "", false),
		},
		{
			name:    "missing method",
			raw:     functionURLEvent("", "/", nil, "", false),
			wantErr: true,
		},
		{
			name:    "missing path",
			raw:     []byte(`{"httpMethod":"GET","path":"","requestContext":{}}`),
			wantErr: true,
		},
		{
			name:    "unknown envelope",
			raw:     []byte(`{"records":[]}`),
			wantErr: true,
		},
		{
			name:    "invalid base64 body",
			raw:     functionURLEvent("POST", "/submit", nil, "%%%not-base64%%%", true),
			wantErr: true,
		},
		{
			name:    "invalid header name",
			raw:     functionURLEvent("GET", "/", map[string]string{"bad header": "v"}, "", false),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _, err := decoder.Decode(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !IsMalformed(err) {
					t.Errorf("Decode() error %v is not a malformed-event error", err)
				}
				return
			}
			if req.Method == "" || req.Path == "" {
				t.Errorf("Decode() returned incomplete request: %+v", req)
			}
		})
	}
}

func TestDecoder_HeaderCaseNormalization(t *testing.T) {
	decoder := NewDecoder()
	raw := functionURLEvent("GET", "/", map[string]string{
		"content-TYPE":    "application/json",
		"x-custom-header": "value",
	}, "", false)

	req, kind, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if kind != KindFunctionURL {
		t.Fatalf("Decode() kind = %v, want %v", kind, KindFunctionURL)
	}

	// Lookups must succeed regardless of the spelling the client sent
	if got := req.Header("Content-Type"); got != "application/json" {
		t.Errorf("Header(Content-Type) = %q, want %q", got, "application/json")
	}
	if got := req.Header("X-CUSTOM-HEADER"); got != "value" {
		t.Errorf("Header(X-CUSTOM-HEADER) = %q, want %q", got, "value")
	}
}

func TestDecoder_Base64Body(t *testing.T) {
	decoder := NewDecoder()
	binary := []byte{0xFF, 0xFE}
	raw := functionURLEvent("POST", "/upload", nil, base64.StdEncoding.EncodeToString(binary), true)

	req, _, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !bytes.Equal(req.Body, binary) {
		t.Errorf("Decode() body = %v, want %v", req.Body, binary)
	}
}

func TestDecoder_APIGatewayMultiValueHeaders(t *testing.T) {
	decoder := NewDecoder()
	raw := []byte(`{
		"httpMethod": "GET",
		"path": "/",
		"multiValueHeaders": {"accept": ["text/html", "application/json"]},
		"multiValueQueryStringParameters": {"tag": ["a", "b"]},
		"requestContext": {"requestId": "req-2", "identity": {"sourceIp": "198.51.100.7"}}
	}`)

	req, kind, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if kind != KindAPIGateway {
		t.Fatalf("Decode() kind = %v, want %v", kind, KindAPIGateway)
	}
	if got := len(req.Headers["Accept"]); got != 2 {
		t.Errorf("Accept header has %d values, want 2", got)
	}
	if got := len(req.QueryParams["tag"]); got != 2 {
		t.Errorf("tag query param has %d values, want 2", got)
	}
	if req.SourceIP != "198.51.100.7" {
		t.Errorf("SourceIP = %q, want %q", req.SourceIP, "198.51.100.7")
	}
}

func TestDecoder_FunctionURLCookies(t *testing.T) {
	decoder := NewDecoder()
	raw := []byte(`{
		"version": "2.0",
		"rawPath": "/",
		"cookies": ["session=abc", "theme=dark"],
		"requestContext": {"http": {"method": "GET", "path": "/"}}
	}`)

	req, _, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got := req.Header("Cookie"); got != "session=abc; theme=dark" {
		t.Errorf("Cookie header = %q", got)
	}
}
