package main

import (
	"context"
	"os"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/app"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/config"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/obs"
)

func main() {
	cfg, err := config.Load()
	log := obs.NewLogger(os.Stdout, cfg.LogLevel, "json", cfg.ServiceName)
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	// clients live for the container, not the invocation
	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup", "error", err)
		os.Exit(1)
	}

	p := newProxy(a.Handler())
	p.flush = a.Flush
	p.log = log
	lambda.Start(p.Handle)
}
