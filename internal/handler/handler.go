// Package handler provides the dispatcher behind the Lambda entry point: it
// classifies an incoming event, extracts its texts and translates them.
package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/event"
	"github.com/pricofy/translation-dispatcher/internal/logger"
	"github.com/pricofy/translation-dispatcher/internal/translator"
)

// Result maps each original text body to its translation. Failed items map
// to nil, which encodes as JSON null.
type Result map[string]*string

// Handle translates every text carried by the raw event. Per-item failures
// become nil entries; only an event that cannot be decoded returns an error.
// When the same body appears more than once, the last outcome wins.
func Handle(ctx context.Context, raw json.RawMessage, t *translator.Translator, log *logrus.Logger) (Result, error) {
	log = logger.OrDefault(log)

	texts, kind, err := event.NewExtractor(log).Texts(raw)
	if err != nil {
		log.WithError(err).Error("Failed to extract texts from event")
		return nil, fmt.Errorf("extract %s event: %w", kind, err)
	}

	log.WithFields(logrus.Fields{
		"event_type": kind.String(),
		"items":      len(texts),
	}).Info("Processing event")

	outcomes := t.TranslateMany(ctx, texts)

	result := make(Result, len(texts))
	for i, text := range texts {
		o := outcomes[i]
		entry := log.WithFields(logrus.Fields{
			"item":     i,
			"original": text.Body,
		})
		if !o.OK() {
			result[text.Body] = nil
			entry.WithField("translation", nil).Info("Item processed")
			continue
		}
		translated := o.Text
		result[text.Body] = &translated
		entry.WithField("translation", translated).Info("Item processed")
	}

	return result, nil
}
