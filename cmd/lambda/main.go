package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/config"
	"github.com/UkralStul/graphql-blog-service/internal/server"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	app       *server.App
)

// init выполняется при холодном старте.
func init() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatal(err)
	}
	// Playground и подписки через API Gateway не нужны.
	cfg.Server.Playground = false

	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	app, err = server.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}
	chiLambda = chiadapter.NewV2(app.Router)
	logger.Info("lambda cold start completed", zap.Duration("duration", time.Since(start)))
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}
