package event

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEvent(t *testing.T, name string) json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name     string
		expected Type
	}{
		{"sns", SNS},
		{"SQS", SQS},
		{"kinesis", Kinesis},
		{"custom", Custom},
		{"dynamodb", Custom},
		{"", Custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseType(tt.name))
		})
	}
}

func TestClassify_Fixtures(t *testing.T) {
	assert.Equal(t, SNS, Classify(loadEvent(t, "sns.json")))
	assert.Equal(t, SQS, Classify(loadEvent(t, "sqs.json")))
	assert.Equal(t, Kinesis, Classify(loadEvent(t, "kinesis.json")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		expected Type
	}{
		{"direct invocation", `{"text": "Custom text", "from_language": "EN", "to_language": "DE"}`, Custom},
		{"first record without marker", `{"Records": [{"key": "value"}]}`, Custom},
		{"upper-case marker", `{"Records": [{"EventSource": "aws:sns"}]}`, SNS},
		{"lower-case marker", `{"Records": [{"eventSource": "aws:sqs"}]}`, SQS},
		{"null upper-case marker falls through", `{"Records": [{"EventSource": null, "eventSource": "aws:kinesis"}]}`, Kinesis},
		{"only first record counts", `{"Records": [{"key": "value"}, {"eventSource": "aws:sqs"}]}`, Custom},
		{"unknown source", `{"Records": [{"eventSource": "aws:dynamodb"}]}`, Custom},
		{"short marker", `{"Records": [{"eventSource": "aws"}]}`, Custom},
		{"non-string marker", `{"Records": [{"eventSource": 42}]}`, Custom},
		{"empty records", `{"Records": []}`, Custom},
		{"null records", `{"Records": null}`, Custom},
		{"records not a list", `{"Records": {"eventSource": "aws:sqs"}}`, Custom},
		{"record not an object", `{"Records": ["aws:sqs"]}`, Custom},
		{"not an object", `["Records"]`, Custom},
		{"not json", `Records`, Custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(json.RawMessage(tt.event)))
		})
	}
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "SNS", SNS.String())
	assert.Equal(t, "KINESIS", Kinesis.String())
	assert.Equal(t, "CUSTOM", Type(99).String())
}
