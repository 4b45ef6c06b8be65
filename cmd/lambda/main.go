package main

import (
	"context"
	"log"
	"time"

	"questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/di"
	"questionnaire-builder/infrastructure/observability"
	"questionnaire-builder/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container
	tracer    *observability.XRayTracer

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start. Sessions live in memory, so they survive
// only as long as the warm execution environment.
func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	tracer = observability.NewXRayTracer(cfg.ServiceName)

	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.IDs,
		rest.Options{
			EnableCORS:     cfg.EnableCORS,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxImportBytes: cfg.MaxImportBytes,
			Ready:          container.Ready,
		},
		container.Logger,
	)

	chiRouter, ok := router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	tracer.AddAnnotation(ctx, "route", req.RouteKey)

	var resp events.APIGatewayV2HTTPResponse
	err := tracer.TraceFunction(ctx, "router", func(ctx context.Context) error {
		var proxyErr error
		resp, proxyErr = chiLambda.ProxyWithContextV2(ctx, req)
		tracer.AddMetadata(ctx, "response", map[string]interface{}{
			"status_code": resp.StatusCode,
			"cold_start":  coldStart,
		})
		return proxyErr
	})

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID
	}

	fields := []zap.Field{
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
	}
	if err != nil || resp.StatusCode >= 500 {
		container.Logger.Error("Lambda request failed", append(fields, zap.Error(err))...)
	} else {
		container.Logger.Info("Lambda request", fields...)
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
