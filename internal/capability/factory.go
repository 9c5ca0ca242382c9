package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/logger"
	"github.com/pricofy/translation-dispatcher/internal/router"
	"github.com/pricofy/translation-dispatcher/internal/translator"
)

// Engine names a translation backend.
type Engine string

const (
	// EngineAWS uses Amazon Translate with Comprehend detection.
	EngineAWS Engine = "aws"
	// EngineLambda uses the translator Lambda fleet with Comprehend detection.
	EngineLambda Engine = "lambda"
	// EngineLibreTranslate uses a LibreTranslate server for both.
	EngineLibreTranslate Engine = "libretranslate"
)

// ParseEngine parses an engine name, case-insensitively.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(s)); e {
	case EngineAWS, EngineLambda, EngineLibreTranslate:
		return e, nil
	default:
		return "", fmt.Errorf("unknown translation engine: %s (supported: aws, lambda, libretranslate)", s)
	}
}

// Config holds configuration for creating a capability.
type Config struct {
	Engine Engine
	// FunctionPrefix names the translator Lambdas for EngineLambda.
	FunctionPrefix string
	// LibreTranslateURL and LibreTranslateTimeout apply to EngineLibreTranslate.
	LibreTranslateURL     string
	LibreTranslateTimeout time.Duration
	// Cache, when set, memoises results for CacheTTL.
	Cache    Cache
	CacheTTL time.Duration
	Logger   *logrus.Logger
}

// New creates the capability selected by cfg.Engine. awsCfg is used by the
// AWS backed engines. A LibreTranslate server that fails its health check is
// logged; translations against it fail per item until it comes up.
func New(ctx context.Context, cfg Config, awsCfg aws.Config) (translator.Capability, error) {
	log := logger.OrDefault(cfg.Logger)

	log.WithFields(logrus.Fields{
		"engine": cfg.Engine,
		"cached": cfg.Cache != nil,
	}).Info("Creating translation capability")

	var capability translator.Capability
	switch cfg.Engine {
	case EngineAWS:
		capability = Compose(
			NewComprehendDetector(comprehend.NewFromConfig(awsCfg), log),
			NewAWSTranslator(translate.NewFromConfig(awsCfg), log),
		)
	case EngineLambda:
		capability = Compose(
			NewComprehendDetector(comprehend.NewFromConfig(awsCfg), log),
			router.NewFromConfig(awsCfg, cfg.FunctionPrefix, log),
		)
	case EngineLibreTranslate:
		client := NewLibreTranslateClient(cfg.LibreTranslateURL, cfg.LibreTranslateTimeout, log)
		if err := client.CheckHealth(ctx); err != nil {
			log.WithError(err).WithField("url", client.baseURL).Warn("LibreTranslate is not ready")
		}
		capability = Compose(client, client)
	default:
		log.WithField("engine", cfg.Engine).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}

	if cfg.Cache != nil {
		capability = WithCache(capability, cfg.Cache, cfg.CacheTTL, log)
	}
	return capability, nil
}
