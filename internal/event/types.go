// Package event classifies inbound Lambda event envelopes and extracts the
// translatable texts they carry.
package event

import (
	"errors"
	"strings"
)

// Type identifies the shape of an event envelope.
type Type uint8

const (
	// Custom is a direct invocation payload. It is also the fallback for
	// anything unrecognized.
	Custom Type = iota
	// SNS is a single pub/sub notification.
	SNS
	// SQS is a batch of queue messages.
	SQS
	// Kinesis is a batch of stream records with base64 payloads.
	Kinesis
)

var typeNames = map[Type]string{
	Custom:  "CUSTOM",
	SNS:     "SNS",
	SQS:     "SQS",
	Kinesis: "KINESIS",
}

var typesByName = map[string]Type{
	"CUSTOM":  Custom,
	"SNS":     SNS,
	"SQS":     SQS,
	"KINESIS": Kinesis,
}

// ParseType maps an event source name such as "sqs" to a Type.
// Unknown names map to Custom.
func ParseType(name string) Type {
	if t, ok := typesByName[strings.ToUpper(name)]; ok {
		return t
	}
	return Custom
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[Custom]
}

// ErrMalformedRecord is returned when a record of an already classified
// envelope lacks a field its type requires.
var ErrMalformedRecord = errors.New("malformed event record")
