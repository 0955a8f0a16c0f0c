package event

import (
	"encoding/json"
)

// Kind identifies the platform envelope shape of an invocation event.
// The decode step is the only place envelope variants are visible; the rest of
// the pipeline only ever sees the normalized request/response types.
type Kind string

const (
	KindUnknown     Kind = "unknown"
	KindFunctionURL Kind = "function_url" // Lambda Function URL / HTTP API payload v2
	KindAPIGateway  Kind = "api_gateway"  // API Gateway REST proxy payload v1
	KindALB         Kind = "alb"          // ALB target group integration
)

func (k Kind) String() string {
	return string(k)
}

// probe holds just enough of the envelope to tell the variants apart.
type probe struct {
	Version        string `json:"version"`
	HTTPMethod     string `json:"httpMethod"`
	RequestContext struct {
		HTTP *struct {
			Method string `json:"method"`
		} `json:"http"`
		ELB *struct {
			TargetGroupArn string `json:"targetGroupArn"`
		} `json:"elb"`
	} `json:"requestContext"`
}

// DetectKind inspects a raw invocation payload and reports which envelope
// variant it carries. Returns KindUnknown for payloads that match none; the
// caller surfaces that as a malformed event.
func DetectKind(raw []byte) Kind {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return KindUnknown
	}

	switch {
	case p.RequestContext.HTTP != nil || p.Version == "2.0":
		return KindFunctionURL
	case p.RequestContext.ELB != nil:
		return KindALB
	case p.HTTPMethod != "":
		return KindAPIGateway
	default:
		return KindUnknown
	}
}
