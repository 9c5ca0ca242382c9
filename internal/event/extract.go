package event

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

const (
	fieldText         = "text"
	fieldFromLanguage = "from_language"
	fieldToLanguage   = "to_language"
)

// attributeValueKeys are the keys a message attribute may hold its value
// under. "Value" is what the producers send; "stringValue" is the spelling
// SQS itself uses.
var attributeValueKeys = []string{"Value", "stringValue"}

type notificationRecord struct {
	SNS *events.SNSEntity `json:"Sns"`
}

type queueRecord struct {
	Body              *string                `json:"body"`
	MessageAttributes map[string]interface{} `json:"messageAttributes"`
}

type streamRecord struct {
	Kinesis *struct {
		Data *string `json:"data"`
	} `json:"kinesis"`
}

type extractFunc func(x *Extractor, raw json.RawMessage) ([]domain.Text, error)

var extractors = map[Type]extractFunc{
	SNS:     (*Extractor).fromNotification,
	SQS:     (*Extractor).fromQueue,
	Kinesis: (*Extractor).fromStream,
	Custom:  (*Extractor).fromCustom,
}

// Extractor pulls Texts out of classified envelopes.
type Extractor struct {
	log *logrus.Entry
}

// NewExtractor creates an Extractor. A nil logger gets a default one.
func NewExtractor(log *logrus.Logger) *Extractor {
	return &Extractor{
		log: logger.OrDefault(log).WithField("component", "extractor"),
	}
}

// Texts classifies raw and extracts its texts.
func (x *Extractor) Texts(raw json.RawMessage) ([]domain.Text, Type, error) {
	t := Classify(raw)
	texts, err := x.Extract(raw, t)
	return texts, t, err
}

// Extract returns the texts of an event already classified as t, in record
// order. Multi-record types yield one Text per record, the others exactly one.
func (x *Extractor) Extract(raw json.RawMessage, t Type) ([]domain.Text, error) {
	extract, ok := extractors[t]
	if !ok {
		extract = (*Extractor).fromCustom
	}
	return extract(x, raw)
}

func (x *Extractor) fromNotification(raw json.RawMessage) ([]domain.Text, error) {
	records, err := recordsOf(raw)
	if err != nil {
		return nil, err
	}

	var record notificationRecord
	if err := json.Unmarshal(records[0], &record); err != nil {
		return nil, fmt.Errorf("decode notification record: %w", err)
	}
	if record.SNS == nil {
		return nil, fmt.Errorf("%w: notification record has no Sns entity", ErrMalformedRecord)
	}

	attrs := record.SNS.MessageAttributes
	return []domain.Text{{
		Body:         record.SNS.Message,
		FromLanguage: languageAttribute(fieldFromLanguage, attrs),
		ToLanguage:   languageAttribute(fieldToLanguage, attrs),
	}}, nil
}

func (x *Extractor) fromQueue(raw json.RawMessage) ([]domain.Text, error) {
	records, err := recordsOf(raw)
	if err != nil {
		return nil, err
	}

	texts := make([]domain.Text, 0, len(records))
	for i, r := range records {
		var record queueRecord
		if err := json.Unmarshal(r, &record); err != nil {
			return nil, fmt.Errorf("decode queue record %d: %w", i, err)
		}
		if record.Body == nil {
			return nil, fmt.Errorf("%w: queue record %d has no body", ErrMalformedRecord, i)
		}
		texts = append(texts, domain.Text{
			Body:         *record.Body,
			FromLanguage: languageAttribute(fieldFromLanguage, record.MessageAttributes),
			ToLanguage:   languageAttribute(fieldToLanguage, record.MessageAttributes),
		})
	}
	return texts, nil
}

func (x *Extractor) fromStream(raw json.RawMessage) ([]domain.Text, error) {
	records, err := recordsOf(raw)
	if err != nil {
		return nil, err
	}

	texts := make([]domain.Text, 0, len(records))
	for i, r := range records {
		var record streamRecord
		if err := json.Unmarshal(r, &record); err != nil {
			return nil, fmt.Errorf("decode stream record %d: %w", i, err)
		}
		if record.Kinesis == nil || record.Kinesis.Data == nil {
			return nil, fmt.Errorf("%w: stream record %d has no kinesis data", ErrMalformedRecord, i)
		}
		fields := x.decodePayload(*record.Kinesis.Data)
		texts = append(texts, textFromFields(fields))
	}
	return texts, nil
}

// fromCustom applies the direct invocation rule. An envelope with an empty
// Records list carries no texts.
func (x *Extractor) fromCustom(raw json.RawMessage) ([]domain.Text, error) {
	if records, ok := decodeRecords(raw); ok && len(records) == 0 {
		return []domain.Text{}, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		x.log.WithError(err).Debug("Event is not an object, using an empty text")
	}
	return []domain.Text{textFromFields(fields)}, nil
}

func recordsOf(raw json.RawMessage) ([]json.RawMessage, error) {
	records, ok := decodeRecords(raw)
	if !ok || len(records) == 0 {
		return nil, fmt.Errorf("%w: envelope has no records", ErrMalformedRecord)
	}
	return records, nil
}

// textFromFields applies the direct invocation rule to a field map: body from
// "text" (empty when absent), hints from "from_language" and "to_language".
func textFromFields(fields map[string]interface{}) domain.Text {
	body, _ := fields[fieldText].(string)
	return domain.Text{
		Body:         body,
		FromLanguage: languageField(fieldFromLanguage, fields),
		ToLanguage:   languageField(fieldToLanguage, fields),
	}
}

func languageField(name string, fields map[string]interface{}) domain.Language {
	code, ok := fields[name].(string)
	if !ok {
		return 0
	}
	return domain.ParseLanguage(code)
}

// languageAttribute reads the hint stored as {"Value": code} under name.
// A missing attribute or value leaves the hint unset.
func languageAttribute(name string, attrs map[string]interface{}) domain.Language {
	attr, ok := attrs[name].(map[string]interface{})
	if !ok {
		return 0
	}
	for _, key := range attributeValueKeys {
		if code, ok := attr[key].(string); ok {
			return domain.ParseLanguage(code)
		}
	}
	return 0
}
