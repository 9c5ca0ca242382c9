// Package main is the entry point for the translation dispatcher Lambda function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/capability"
	"github.com/pricofy/translation-dispatcher/internal/config"
	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/handler"
	"github.com/pricofy/translation-dispatcher/internal/logger"
	"github.com/pricofy/translation-dispatcher/internal/translator"
)

// Response wraps the translation result with runtime metadata.
type Response struct {
	RuntimeVersion string         `json:"runtime-version"`
	FuncName       string         `json:"func-name"`
	FuncVersion    string         `json:"func-version"`
	Translation    handler.Result `json:"translation"`
}

// app holds the per-process state reused across invocations.
type app struct {
	translator *translator.Translator
	warmer     *warmer
	log        *logrus.Logger
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.WithError(err).Fatal("Failed to load AWS configuration")
	}

	a, err := newApp(context.Background(), cfg, awsCfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize dispatcher")
	}

	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"engine":      cfg.Translation.Engine,
	}).Info("Translation dispatcher started")

	lambda.Start(a.handleRequest)
}

func newApp(ctx context.Context, cfg *config.Config, awsCfg aws.Config, log *logrus.Logger) (*app, error) {
	engine, err := capability.ParseEngine(cfg.Translation.Engine)
	if err != nil {
		return nil, err
	}

	var defaultTarget domain.Language
	if cfg.Translation.DefaultTarget != "" {
		defaultTarget = domain.ParseLanguage(cfg.Translation.DefaultTarget)
		if !defaultTarget.Supported() {
			return nil, fmt.Errorf("unsupported default target language: %s", cfg.Translation.DefaultTarget)
		}
	}

	capCfg := capability.Config{
		Engine:                engine,
		FunctionPrefix:        cfg.Translation.FunctionPrefix,
		LibreTranslateURL:     cfg.Translation.LibreTranslateURL,
		LibreTranslateTimeout: cfg.Translation.LibreTranslateTimeout,
		CacheTTL:              cfg.Cache.TTL,
		Logger:                log,
	}
	if cfg.Cache.Enabled() {
		capCfg.Cache = capability.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	}

	capab, err := capability.New(ctx, capCfg, awsCfg)
	if err != nil {
		return nil, err
	}

	return &app{
		translator: translator.New(capab, translator.Config{
			DefaultTarget:  defaultTarget,
			Workers:        cfg.Translation.Workers,
			MaxChunkTokens: cfg.Translation.MaxChunkTokens,
			Logger:         log,
		}),
		warmer: &warmer{
			invoker:      lambdasdk.NewFromConfig(awsCfg),
			functionName: lambdacontext.FunctionName,
			delay:        WarmupDelay,
			log:          log,
		},
		log: log,
	}, nil
}

func (a *app) handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	// Warmup detection (MUST be first - before any other processing)
	if warmup, ok := IsWarmupEvent(event); ok {
		return a.warmer.HandleWarmup(ctx, warmup)
	}

	result, err := handler.Handle(ctx, event, a.translator, a.log)
	if err != nil {
		return nil, err
	}

	return Response{
		RuntimeVersion: runtime.Version(),
		FuncName:       lambdacontext.FunctionName,
		FuncVersion:    lambdacontext.FunctionVersion,
		Translation:    result,
	}, nil
}
