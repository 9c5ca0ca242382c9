package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

// ComprehendAPI is the part of the Comprehend client used for detection.
type ComprehendAPI interface {
	DetectDominantLanguage(ctx context.Context, params *comprehend.DetectDominantLanguageInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectDominantLanguageOutput, error)
}

// ComprehendDetector detects languages with Amazon Comprehend.
type ComprehendDetector struct {
	client ComprehendAPI
	log    *logrus.Entry
}

// NewComprehendDetector creates a ComprehendDetector.
func NewComprehendDetector(client ComprehendAPI, log *logrus.Logger) *ComprehendDetector {
	return &ComprehendDetector{
		client: client,
		log:    logger.OrDefault(log).WithField("component", "comprehend"),
	}
}

// DetectLanguage returns the highest scoring language. Blank texts and
// languages outside the supported set are domain.OTHER.
func (d *ComprehendDetector) DetectLanguage(ctx context.Context, text string) (domain.Language, error) {
	if strings.TrimSpace(text) == "" {
		return domain.OTHER, nil
	}

	out, err := d.client.DetectDominantLanguage(ctx, &comprehend.DetectDominantLanguageInput{
		Text: aws.String(text),
	})
	if err != nil {
		return 0, fmt.Errorf("detect dominant language: %w", err)
	}

	var best string
	var bestScore float32 = -1
	for _, l := range out.Languages {
		score := aws.ToFloat32(l.Score)
		if score > bestScore {
			best, bestScore = aws.ToString(l.LanguageCode), score
		}
	}

	d.log.WithFields(logrus.Fields{
		"language": best,
		"score":    bestScore,
	}).Debug("Detected language")

	if best == "" {
		return domain.OTHER, nil
	}
	return languageFromCode(best), nil
}
