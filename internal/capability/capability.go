// Package capability provides the translation backends behind the batch
// translator: AWS Translate, the translator Lambda fleet and LibreTranslate,
// with Amazon Comprehend or LibreTranslate for language detection.
package capability

import (
	"context"
	"strings"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/translator"
)

// Detector detects the language of a text.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (domain.Language, error)
}

// TextTranslator translates a text between two supported languages.
type TextTranslator interface {
	Translate(ctx context.Context, text string, from, to domain.Language) (string, error)
}

// BatchTextTranslator also translates several texts of one pair per call.
type BatchTextTranslator interface {
	TextTranslator
	TranslateBatch(ctx context.Context, texts []string, from, to domain.Language) ([]string, error)
}

type composite struct {
	Detector
	TextTranslator
}

type batchComposite struct {
	Detector
	BatchTextTranslator
}

// Compose joins a detector and a translator into one capability. The result
// implements translator.BatchCapability when t supports batches.
func Compose(d Detector, t TextTranslator) translator.Capability {
	if bt, ok := t.(BatchTextTranslator); ok {
		return batchComposite{Detector: d, BatchTextTranslator: bt}
	}
	return composite{Detector: d, TextTranslator: t}
}

// languageFromCode maps a backend language tag such as "fr" or "zh-TW" to a
// Language. Only the base subtag is considered.
func languageFromCode(code string) domain.Language {
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	return domain.ParseLanguage(code)
}
