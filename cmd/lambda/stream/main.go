// Streaming entrypoint for Function URLs configured with response streaming.
// Streaming is a startup-time capability of the deployment, not a per-request
// negotiation: deploy this binary only behind a Function URL with
// InvokeMode=RESPONSE_STREAM, and set RESPONSE_STREAMING=true.
package main

import (
	"context"
	"encoding/json"
	"strings"

	"ssr-render-host/internal/config"
	"ssr-render-host/internal/event"
	"ssr-render-host/pkg/server"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

var (
	container *server.Container
	decoder   *event.Decoder
	encoder   *event.Encoder
)

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	cfg.Host.ResponseStreaming = true

	rm := server.GetRuntimeManager()
	if err := rm.Initialize(cfg); err != nil {
		panic("Failed to initialize runtime: " + err.Error())
	}

	container, err = rm.GetContainer(context.Background())
	if err != nil {
		panic("Failed to get container: " + err.Error())
	}

	decoder = event.NewDecoder()
	encoder = event.NewEncoder(cfg.Host.MaxResponseBytes)
}

func handler(ctx context.Context, raw json.RawMessage) (*events.LambdaFunctionURLStreamingResponse, error) {
	req, _, err := decoder.Decode(raw)
	if err != nil {
		container.Logger.WithError(err).Warn("Invocation event rejected")
		status := 500
		message := "Internal server error"
		if event.IsMalformed(err) {
			status = 400
			message = "Bad request"
		}
		return errorStream(status, message), nil
	}

	if req.RequestID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			req.RequestID = lc.AwsRequestID
		}
	}

	resp := container.Invoker.InvokeStream(ctx, req)

	envelope, err := encoder.EncodeStream(resp)
	if err != nil {
		container.Logger.WithError(err).Error("Stream encoding failed")
		return errorStream(500, "Internal server error"), nil
	}
	return envelope, nil
}

func main() {
	awslambda.Start(handler)
}

func errorStream(status int, message string) *events.LambdaFunctionURLStreamingResponse {
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       strings.NewReader(message),
	}
}
