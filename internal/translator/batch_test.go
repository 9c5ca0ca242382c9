package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/translation-dispatcher/internal/domain"
)

type batchCall struct {
	from  domain.Language
	to    domain.Language
	texts []string
}

// fakeBatchCapability upper-cases texts and records every batch call.
type fakeBatchCapability struct {
	*fakeCapability
	mu      sync.Mutex
	batches []batchCall
	failOn  string
	short   bool
}

func (f *fakeBatchCapability) TranslateBatch(_ context.Context, texts []string, from, to domain.Language) ([]string, error) {
	f.mu.Lock()
	f.batches = append(f.batches, batchCall{from: from, to: to, texts: texts})
	f.mu.Unlock()

	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if text == f.failOn {
			return nil, errors.New("translator lambda failed")
		}
		out = append(out, strings.ToUpper(text))
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func TestTranslateMany_BatchGroupsByPair(t *testing.T) {
	capability := &fakeBatchCapability{fakeCapability: newFakeCapability()}
	tr := New(capability, Config{Workers: 3})

	texts := []domain.Text{
		{Body: "a", FromLanguage: domain.EN, ToLanguage: domain.FR},
		{Body: "b", FromLanguage: domain.DE, ToLanguage: domain.FR},
		{Body: "c", FromLanguage: domain.EN, ToLanguage: domain.FR},
		{Body: "d", FromLanguage: domain.OTHER, ToLanguage: domain.FR},
		{Body: "e", FromLanguage: domain.FR, ToLanguage: domain.FR},
		{Body: "f", FromLanguage: domain.DE, ToLanguage: domain.FR},
	}

	outcomes := tr.TranslateMany(context.Background(), texts)

	require.Len(t, outcomes, 6)
	assert.Equal(t, Outcome{Text: "A"}, outcomes[0])
	assert.Equal(t, Outcome{Text: "B"}, outcomes[1])
	assert.Equal(t, Outcome{Text: "C"}, outcomes[2])
	assert.ErrorIs(t, outcomes[3].Err, ErrUnsupportedLanguage)
	assert.Equal(t, Outcome{Text: "e"}, outcomes[4])
	assert.Equal(t, Outcome{Text: "F"}, outcomes[5])

	assert.ElementsMatch(t, []batchCall{
		{from: domain.EN, to: domain.FR, texts: []string{"a", "c"}},
		{from: domain.DE, to: domain.FR, texts: []string{"b", "f"}},
	}, capability.batches)
	assert.Zero(t, capability.calls)
}

func TestTranslateMany_BatchChunkFailureIsIsolated(t *testing.T) {
	capability := &fakeBatchCapability{fakeCapability: newFakeCapability(), failOn: "boom"}
	tr := New(capability, Config{MaxChunkTokens: 1})

	texts := []domain.Text{
		{Body: "ok one", FromLanguage: domain.EN, ToLanguage: domain.DE},
		{Body: "boom", FromLanguage: domain.EN, ToLanguage: domain.DE},
		{Body: "ok two", FromLanguage: domain.EN, ToLanguage: domain.DE},
	}

	outcomes := tr.TranslateMany(context.Background(), texts)

	assert.Equal(t, Outcome{Text: "OK ONE"}, outcomes[0])
	assert.ErrorContains(t, outcomes[1].Err, "translator lambda failed")
	assert.Equal(t, Outcome{Text: "OK TWO"}, outcomes[2])
	assert.Len(t, capability.batches, 3)
}

func TestTranslateMany_BatchLengthMismatch(t *testing.T) {
	capability := &fakeBatchCapability{fakeCapability: newFakeCapability(), short: true}
	tr := New(capability, Config{})

	outcomes := tr.TranslateMany(context.Background(), []domain.Text{
		{Body: "one", FromLanguage: domain.EN, ToLanguage: domain.DE},
		{Body: "two", FromLanguage: domain.EN, ToLanguage: domain.DE},
	})

	for _, o := range outcomes {
		assert.ErrorContains(t, o.Err, "got 1 translations for 2 texts")
	}
}

func TestTranslateMany_BatchRespectsChunkSize(t *testing.T) {
	capability := &fakeBatchCapability{fakeCapability: newFakeCapability()}
	tr := New(capability, Config{MaxChunkTokens: 10, Workers: 4})

	texts := make([]domain.Text, 0, 12)
	for i := 0; i < 12; i++ {
		texts = append(texts, domain.Text{Body: fmt.Sprintf("%020d", i), FromLanguage: domain.ES, ToLanguage: domain.EN})
	}

	outcomes := tr.TranslateMany(context.Background(), texts)

	for i, o := range outcomes {
		assert.Equal(t, fmt.Sprintf("%020d", i), o.Text)
	}
	assert.Len(t, capability.batches, 6)
	for _, b := range capability.batches {
		assert.Len(t, b.texts, 2)
	}
}
