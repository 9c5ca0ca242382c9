package event

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// decodePayload turns a stream record's base64 data into a field map.
//
// Map-shaped payloads are parsed as JSON, then as a map literal such as the
// single-quoted ones some producers emit. Anything else, including brace
// wrapped prose and undecodable data, becomes {"text": payload}.
func (x *Extractor) decodePayload(data string) map[string]interface{} {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		x.log.WithError(err).Debug("Stream payload is not base64, using it as plain text")
		return plainText(data)
	}
	if !utf8.Valid(decoded) {
		x.log.Debug("Stream payload is not UTF-8, using it as plain text")
		return plainText(data)
	}

	payload := strings.TrimSpace(string(decoded))
	if !strings.HasPrefix(payload, "{") || !strings.HasSuffix(payload, "}") {
		return plainText(payload)
	}

	fields, err := parseFields(payload)
	if err != nil {
		x.log.WithError(err).WithField("payload_length", len(payload)).
			Debug("Map-shaped stream payload did not parse, using it as plain text")
		return plainText(payload)
	}
	return fields
}

// parseFields parses a map-shaped payload as a JSON object or, failing that,
// as a map literal: a flow mapping with quoted keys whose values are quoted
// strings, numbers, None, True, False or nested literals.
func parseFields(payload string) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &fields); err == nil {
		return fields, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errNotMapLiteral
	}
	v, err := literalValue(doc.Content[0])
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errNotMapLiteral
	}
	return m, nil
}

var errNotMapLiteral = errors.New("payload is not a map literal")

func isQuoted(n *yaml.Node) bool {
	return n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0
}

func literalValue(n *yaml.Node) (interface{}, error) {
	if n.Style&yaml.TaggedStyle != 0 || n.Anchor != "" {
		return nil, errNotMapLiteral
	}

	switch n.Kind {
	case yaml.MappingNode:
		if n.Style&yaml.FlowStyle == 0 {
			return nil, errNotMapLiteral
		}
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode || !isQuoted(key) {
				return nil, fmt.Errorf("%w: unquoted key %q", errNotMapLiteral, key.Value)
			}
			v, err := literalValue(value)
			if err != nil {
				return nil, err
			}
			m[key.Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		if n.Style&yaml.FlowStyle == 0 {
			return nil, errNotMapLiteral
		}
		list := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := literalValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return nil, errNotMapLiteral
	}
}

func scalarValue(n *yaml.Node) (interface{}, error) {
	if isQuoted(n) {
		return n.Value, nil
	}
	switch n.Value {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: bare word %q", errNotMapLiteral, n.Value)
}

func plainText(s string) map[string]interface{} {
	return map[string]interface{}{fieldText: strings.TrimSpace(s)}
}
