package capability

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

// TranslateAPI is the part of the AWS Translate client used here.
type TranslateAPI interface {
	TranslateText(ctx context.Context, params *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

// AWSTranslator translates with Amazon Translate.
type AWSTranslator struct {
	client TranslateAPI
	log    *logrus.Entry
}

// NewAWSTranslator creates an AWSTranslator.
func NewAWSTranslator(client TranslateAPI, log *logrus.Logger) *AWSTranslator {
	return &AWSTranslator{
		client: client,
		log:    logger.OrDefault(log).WithField("component", "aws-translate"),
	}
}

// Translate translates text from one supported language to another.
func (a *AWSTranslator) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	if !from.Supported() || !to.Supported() {
		return "", fmt.Errorf("unsupported language pair: %s-%s", from, to)
	}

	out, err := a.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(from.Code()),
		TargetLanguageCode: aws.String(to.Code()),
	})
	if err != nil {
		return "", fmt.Errorf("translate text: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"source_lang": from.Code(),
		"target_lang": to.Code(),
		"text_length": len(text),
	}).Debug("Translated text")

	return aws.ToString(out.TranslatedText), nil
}
