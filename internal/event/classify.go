package event

import "encoding/json"

// sourceKeys are the spellings of the event source marker, in lookup order.
var sourceKeys = []string{"EventSource", "eventSource"}

// sourcePrefixLen is the length of the provider prefix, e.g. "aws:".
const sourcePrefixLen = 4

// Classify determines the Type of a raw event. It never fails: anything that
// does not look like a multi-record envelope with a source marker on its
// first record is Custom.
func Classify(raw json.RawMessage) Type {
	records, ok := decodeRecords(raw)
	if !ok || len(records) == 0 {
		return Custom
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(records[0], &first); err != nil {
		return Custom
	}

	for _, key := range sourceKeys {
		value, ok := first[key]
		if !ok || isNull(value) {
			continue
		}
		var source string
		if err := json.Unmarshal(value, &source); err != nil {
			return Custom
		}
		return typeFromSource(source)
	}

	return Custom
}

func typeFromSource(source string) Type {
	if len(source) < sourcePrefixLen {
		return Custom
	}
	return ParseType(source[sourcePrefixLen:])
}

// decodeRecords returns the raw "Records" list of an envelope. ok is false
// when the event is not an object or has no such list.
func decodeRecords(raw json.RawMessage) ([]json.RawMessage, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}
	value, ok := envelope["Records"]
	if !ok {
		return nil, false
	}
	var records []json.RawMessage
	if err := json.Unmarshal(value, &records); err != nil {
		return nil, false
	}
	return records, true
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
