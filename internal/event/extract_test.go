package event

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/translation-dispatcher/internal/domain"
)

func TestExtract_SNS(t *testing.T) {
	x := NewExtractor(nil)

	texts, typ, err := x.Texts(loadEvent(t, "sns.json"))
	require.NoError(t, err)

	assert.Equal(t, SNS, typ)
	assert.Equal(t, []domain.Text{
		{Body: "Hello, I am SNS", FromLanguage: domain.EN, ToLanguage: domain.FR},
	}, texts)
}

func TestExtract_SQS(t *testing.T) {
	x := NewExtractor(nil)

	texts, typ, err := x.Texts(loadEvent(t, "sqs.json"))
	require.NoError(t, err)

	assert.Equal(t, SQS, typ)
	assert.Equal(t, []domain.Text{
		{Body: "Hello, this is SQS 1", FromLanguage: domain.EN, ToLanguage: domain.FR},
		{Body: "Hello, this is SQS 2", FromLanguage: domain.EN},
	}, texts)
}

func TestExtract_Kinesis(t *testing.T) {
	x := NewExtractor(nil)

	texts, typ, err := x.Texts(loadEvent(t, "kinesis.json"))
	require.NoError(t, err)

	assert.Equal(t, Kinesis, typ)
	assert.Equal(t, []domain.Text{
		{Body: "Hallo zusammen", FromLanguage: domain.DE, ToLanguage: domain.EN},
		{Body: "Le chat est grand"},
		{Body: "Buenos dias", ToLanguage: domain.BG},
		{Body: "{not: [a map}"},
	}, texts)
}

func TestExtract_Custom(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		expected domain.Text
	}{
		{
			name:     "all fields",
			event:    `{"text": "bonjour", "from_language": "FR", "to_language": "DE"}`,
			expected: domain.Text{Body: "bonjour", FromLanguage: domain.FR, ToLanguage: domain.DE},
		},
		{
			name:     "no hints",
			event:    `{"text": "hello"}`,
			expected: domain.Text{Body: "hello"},
		},
		{
			name:     "unsupported hint",
			event:    `{"text": "hello", "to_language": "pl"}`,
			expected: domain.Text{Body: "hello", ToLanguage: domain.OTHER},
		},
		{
			name:     "missing text",
			event:    `{"from_language": "en"}`,
			expected: domain.Text{FromLanguage: domain.EN},
		},
		{
			name:     "non-string values are ignored",
			event:    `{"text": 12, "from_language": null, "to_language": ["EN"]}`,
			expected: domain.Text{},
		},
		{
			name:     "malformed records envelope",
			event:    `{"Records": [{"key": "value"}]}`,
			expected: domain.Text{},
		},
		{
			name:     "not an object",
			event:    `"hello"`,
			expected: domain.Text{},
		},
	}

	x := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, typ, err := x.Texts(json.RawMessage(tt.event))
			require.NoError(t, err)
			assert.Equal(t, Custom, typ)
			assert.Equal(t, []domain.Text{tt.expected}, texts)
		})
	}
}

func TestExtract_MalformedClassifiedRecords(t *testing.T) {
	tests := []struct {
		name  string
		event string
	}{
		{"sns without entity", `{"Records": [{"EventSource": "aws:sns"}]}`},
		{"sqs without body", `{"Records": [{"eventSource": "aws:sqs", "messageAttributes": {}}]}`},
		{"kinesis without data", `{"Records": [{"eventSource": "aws:kinesis", "kinesis": {}}]}`},
		{"kinesis without kinesis", `{"Records": [{"eventSource": "aws:kinesis"}]}`},
	}

	x := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := x.Texts(json.RawMessage(tt.event))
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestExtract_SQSWithoutAttributes(t *testing.T) {
	x := NewExtractor(nil)
	event := `{"Records": [{"eventSource": "aws:sqs", "body": "one"}, {"eventSource": "aws:sqs", "body": "two"}]}`

	texts, err := x.Extract(json.RawMessage(event), SQS)
	require.NoError(t, err)
	assert.Equal(t, []domain.Text{{Body: "one"}, {Body: "two"}}, texts)
}

func TestExtract_ZeroRecords(t *testing.T) {
	x := NewExtractor(nil)

	_, err := x.Extract(json.RawMessage(`{"Records": []}`), SQS)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	texts, typ, err := x.Texts(json.RawMessage(`{"Records": []}`))
	require.NoError(t, err)
	assert.Equal(t, Custom, typ)
	assert.Empty(t, texts)
}

func TestLanguageAttribute(t *testing.T) {
	tests := []struct {
		name     string
		attrs    map[string]interface{}
		expected domain.Language
	}{
		{"missing attribute", map[string]interface{}{}, 0},
		{"nil attributes", nil, 0},
		{"value present", map[string]interface{}{"from_language": map[string]interface{}{"Value": "DE"}}, domain.DE},
		{"sqs spelling", map[string]interface{}{"from_language": map[string]interface{}{"stringValue": "es"}}, domain.ES},
		{"value absent", map[string]interface{}{"from_language": map[string]interface{}{"Type": "String"}}, 0},
		{"unsupported", map[string]interface{}{"from_language": map[string]interface{}{"Value": "ZZ"}}, domain.OTHER},
		{"attribute not an object", map[string]interface{}{"from_language": "DE"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, languageAttribute("from_language", tt.attrs))
		})
	}
}

func TestDecodePayload(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name     string
		data     string
		expected map[string]interface{}
	}{
		{
			name:     "json map",
			data:     encode(`{"text": "Hallo", "from_language": "DE"}`),
			expected: map[string]interface{}{"text": "Hallo", "from_language": "DE"},
		},
		{
			name:     "single-quoted map literal",
			data:     encode(`{'text': 'Hallo', 'to_language': 'EN'}`),
			expected: map[string]interface{}{"text": "Hallo", "to_language": "EN"},
		},
		{
			name:     "map literal with None hint",
			data:     encode(`{'text': 'Bonjour', 'from_language': None}`),
			expected: map[string]interface{}{"text": "Bonjour", "from_language": nil},
		},
		{
			name:     "map literal with numbers and flags",
			data:     encode(`{'text': 'Hallo', 'priority': 2, 'urgent': True, 'score': 0.5}`),
			expected: map[string]interface{}{"text": "Hallo", "priority": int64(2), "urgent": true, "score": 0.5},
		},
		{
			name:     "brace wrapped prose",
			data:     encode("{Bonjour le monde}"),
			expected: map[string]interface{}{"text": "{Bonjour le monde}"},
		},
		{
			name:     "brace wrapped word",
			data:     encode("{Hallo}"),
			expected: map[string]interface{}{"text": "{Hallo}"},
		},
		{
			name:     "unquoted keys",
			data:     encode("{text: Hallo}"),
			expected: map[string]interface{}{"text": "{text: Hallo}"},
		},
		{
			name:     "bare word value",
			data:     encode("{'text': Hallo}"),
			expected: map[string]interface{}{"text": "{'text': Hallo}"},
		},
		{
			name:     "plain text is trimmed",
			data:     encode("\t Le chat est grand \n"),
			expected: map[string]interface{}{"text": "Le chat est grand"},
		},
		{
			name:     "brace text that is not a map",
			data:     encode("{unbalanced: [}"),
			expected: map[string]interface{}{"text": "{unbalanced: [}"},
		},
		{
			name:     "only leading brace",
			data:     encode("{ hello"),
			expected: map[string]interface{}{"text": "{ hello"},
		},
		{
			name:     "not base64",
			data:     "not base64!",
			expected: map[string]interface{}{"text": "not base64!"},
		},
		{
			name:     "not utf-8",
			data:     base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}),
			expected: map[string]interface{}{"text": base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd})},
		},
	}

	x := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, x.decodePayload(tt.data))
		})
	}
}

func TestExtract_StreamPayloadHints(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	event := fmt.Sprintf(`{"Records": [
		{"eventSource": "aws:kinesis", "kinesis": {"data": %q}},
		{"eventSource": "aws:kinesis", "kinesis": {"data": %q}}
	]}`, encode("{Bonjour le monde}"), encode(`{'text': 'Bonjour', 'from_language': None, 'to_language': 'DE'}`))

	texts, typ, err := NewExtractor(nil).Texts(json.RawMessage(event))
	require.NoError(t, err)
	assert.Equal(t, Kinesis, typ)
	assert.Equal(t, []domain.Text{
		{Body: "{Bonjour le monde}"},
		{Body: "Bonjour", ToLanguage: domain.DE},
	}, texts)
	assert.False(t, texts[1].FromLanguage.IsSet())
}

func TestExtract_StreamOrderPreserved(t *testing.T) {
	records := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		data := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("text %02d", i)))
		records = append(records, fmt.Sprintf(`{"eventSource": "aws:kinesis", "kinesis": {"data": %q}}`, data))
	}
	event := `{"Records": [` + strings.Join(records, ",") + `]}`

	texts, typ, err := NewExtractor(nil).Texts(json.RawMessage(event))
	require.NoError(t, err)
	require.Equal(t, Kinesis, typ)
	require.Len(t, texts, 20)
	for i, text := range texts {
		assert.Equal(t, fmt.Sprintf("text %02d", i), text.Body)
	}
}
