package main

import (
	"context"
	"encoding/json"
	"net/http"

	"ssr-render-host/internal/config"
	"ssr-render-host/internal/event"
	"ssr-render-host/pkg/server"

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

// handler translates one invocation event through the render pipeline:
// decode, invoke, encode. Every failure path returns a well-formed envelope;
// nothing here lets an application error crash the instance.
func handler(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	req, kind, err := decoder.Decode(raw)
	if err != nil {
		container.Logger.WithError(err).Warn("Invocation event rejected")
		if event.IsMalformed(err) {
			return encoder.ErrorEnvelope(http.StatusBadRequest, "Bad request", kind), nil
		}
		return encoder.ErrorEnvelope(http.StatusInternalServerError, "Internal server error", kind), nil
	}

	if req.RequestID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			req.RequestID = lc.AwsRequestID
		}
	}

	resp := container.Invoker.Invoke(ctx, req)

	envelope, err := encoder.Encode(resp, kind)
	if err != nil {
		container.Logger.WithError(err).Error("Response encoding failed")
		return encoder.ErrorEnvelope(http.StatusInternalServerError, "Internal server error", kind), nil
	}
	return envelope, nil
}

func main() {
	awslambda.Start(handler)
}
