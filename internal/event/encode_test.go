package event

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"ssr-render-host/pkg/serverless"
)

func TestEncoder_TextBodyStaysPlain(t *testing.T) {
	encoder := NewEncoder(0)
	resp := &serverless.Response{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte("<html><body>hello</body></html>"),
	}

	out, err := encoder.EncodeFunctionURL(resp)
	if err != nil {
		t.Fatalf("EncodeFunctionURL() failed: %v", err)
	}
	if out.IsBase64Encoded {
		t.Error("text body should not be base64 encoded")
	}
	if out.Body != string(resp.Body) {
		t.Errorf("body = %q, want %q", out.Body, resp.Body)
	}
	if out.StatusCode != 200 {
		t.Errorf("status = %d, want 200", out.StatusCode)
	}
}

func TestEncoder_BinaryBodyRoundTrip(t *testing.T) {
	encoder := NewEncoder(0)
	binary := []byte{0xFF, 0xFE, 0x00, 0x01, 0x89, 0x50}
	resp := &serverless.Response{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"image/png"}},
		Body:       binary,
	}

	out, err := encoder.EncodeAPIGateway(resp)
	if err != nil {
		t.Fatalf("EncodeAPIGateway() failed: %v", err)
	}
	if !out.IsBase64Encoded {
		t.Fatal("binary body must be base64 encoded")
	}

	decoded, err := base64.StdEncoding.DecodeString(out.Body)
	if err != nil {
		t.Fatalf("body is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, binary) {
		t.Errorf("round-trip body = %v, want %v", decoded, binary)
	}
}

func TestEncoder_PayloadLimit(t *testing.T) {
	const limit = 1024
	encoder := NewEncoder(limit)

	tests := []struct {
		name    string
		body    []byte
		wantErr bool
	}{
		{
			name: "body below limit",
			body: bytes.Repeat([]byte("a"), limit-1),
		},
		{
			name: "body exactly at limit",
			body: bytes.Repeat([]byte("a"), limit),
		},
		{
			name:    "body above limit",
			body:    bytes.Repeat([]byte("a"), limit+1),
			wantErr: true,
		},
		{
			name: "binary body whose base64 form fits",
			body: bytes.Repeat([]byte{0xFF}, 512),
		},
		{
			name:    "binary body whose base64 form exceeds limit",
			body:    bytes.Repeat([]byte{0xFF}, limit-1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &serverless.Response{StatusCode: 200, Body: tt.body}
			out, err := encoder.EncodeFunctionURL(resp)
			if (err != nil) != tt.wantErr {
				t.Errorf("EncodeFunctionURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !IsPayloadTooLarge(err) {
					t.Errorf("error %v is not a payload-too-large error", err)
				}
				return
			}
			// Never partially truncate
			want := len(tt.body)
			got := len(out.Body)
			if out.IsBase64Encoded {
				decoded, derr := base64.StdEncoding.DecodeString(out.Body)
				if derr != nil {
					t.Fatalf("body is not valid base64: %v", derr)
				}
				got = len(decoded)
			}
			if got != want {
				t.Errorf("encoded body carries %d bytes, want %d", got, want)
			}
		})
	}
}

func TestEncoder_HeadersCopiedVerbatim(t *testing.T) {
	encoder := NewEncoder(0)
	resp := &serverless.Response{
		StatusCode: 302,
		Headers: map[string][]string{
			"Location":   {"/next"},
			"Set-Cookie": {"a=1", "b=2"},
		},
	}

	out, err := encoder.EncodeAPIGateway(resp)
	if err != nil {
		t.Fatalf("EncodeAPIGateway() failed: %v", err)
	}
	if out.MultiValueHeaders["Location"][0] != "/next" {
		t.Errorf("Location header not copied: %+v", out.MultiValueHeaders)
	}
	if len(out.MultiValueHeaders["Set-Cookie"]) != 2 {
		t.Errorf("Set-Cookie values = %v, want 2 entries", out.MultiValueHeaders["Set-Cookie"])
	}
}

func TestEncoder_FunctionURLCookies(t *testing.T) {
	encoder := NewEncoder(0)
	resp := &serverless.Response{
		StatusCode: 200,
		Headers: map[string][]string{
			"Set-Cookie":   {"session=abc", "theme=dark"},
			"Content-Type": {"text/html"},
		},
		Body: []byte("ok"),
	}

	out, err := encoder.EncodeFunctionURL(resp)
	if err != nil {
		t.Fatalf("EncodeFunctionURL() failed: %v", err)
	}
	if len(out.Cookies) != 2 {
		t.Errorf("Cookies = %v, want 2 entries", out.Cookies)
	}
	if _, present := out.Headers["Set-Cookie"]; present {
		t.Error("Set-Cookie must move to the cookies field, not stay a header")
	}
}

func TestEncoder_EncodeDispatch(t *testing.T) {
	encoder := NewEncoder(0)
	resp := &serverless.Response{StatusCode: 204}

	for _, kind := range []Kind{KindFunctionURL, KindAPIGateway, KindALB} {
		if _, err := encoder.Encode(resp, kind); err != nil {
			t.Errorf("Encode(%v) failed: %v", kind, err)
		}
	}
	if _, err := encoder.Encode(resp, KindUnknown); err == nil {
		t.Error("Encode(unknown) should fail")
	}
}

func TestEncoder_ErrorEnvelope(t *testing.T) {
	encoder := NewEncoder(0)

	envelope := encoder.ErrorEnvelope(500, "Internal server error", KindFunctionURL)
	if envelope == nil {
		t.Fatal("ErrorEnvelope() returned nil")
	}
}

func TestEncoder_EncodeStream(t *testing.T) {
	encoder := NewEncoder(0)

	resp := &serverless.Response{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"text/html"}},
		Stream:     strings.NewReader("<html></html>"),
	}
	out, err := encoder.EncodeStream(resp)
	if err != nil {
		t.Fatalf("EncodeStream() failed: %v", err)
	}
	if out.StatusCode != 200 || out.Body == nil {
		t.Errorf("EncodeStream() = %+v", out)
	}

	if _, err := encoder.EncodeStream(&serverless.Response{StatusCode: 200}); err == nil {
		t.Error("EncodeStream() without a stream should fail")
	}
}
