// Package translator resolves language hints and translates batches of texts
// through a Capability, isolating per-item failures.
package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pricofy/translation-dispatcher/internal/chunker"
	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

// Capability is the translation backend.
type Capability interface {
	// DetectLanguage returns the language of text, or domain.OTHER when it
	// is outside the supported set.
	DetectLanguage(ctx context.Context, text string) (domain.Language, error)
	// Translate translates text. Both languages must be supported.
	Translate(ctx context.Context, text string, from, to domain.Language) (string, error)
}

// BatchCapability is a Capability that can also translate several texts of
// one language pair in a single call. Results are positional.
type BatchCapability interface {
	Capability
	TranslateBatch(ctx context.Context, texts []string, from, to domain.Language) ([]string, error)
}

// ErrUnsupportedLanguage matches every *UnsupportedLanguageError.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// UnsupportedLanguageError reports a text whose resolved source or target
// language is not supported.
type UnsupportedLanguageError struct {
	Body string
	From domain.Language
	To   domain.Language
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("can't translate %q: unsupported language pair %s->%s", e.Body, e.From, e.To)
}

// Is makes errors.Is(err, ErrUnsupportedLanguage) hold.
func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// Outcome is the result of translating one item of a batch.
type Outcome struct {
	Text string
	Err  error
}

// OK reports whether the item was translated.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Config configures a Translator.
type Config struct {
	// DefaultTarget is used for texts without a target hint. Defaults to EN.
	DefaultTarget domain.Language
	// Workers bounds concurrent capability calls within a batch. Defaults to 1.
	Workers int
	// MaxChunkTokens bounds a single TranslateBatch call.
	MaxChunkTokens int
	Logger         *logrus.Logger
}

// noCopy lets go vet's copylocks check flag value copies of Translator.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Translator wraps a live Capability. It is safe for concurrent use and must
// only be shared by pointer; New is the only way to obtain one.
type Translator struct {
	noCopy noCopy

	capability     Capability
	defaultTarget  domain.Language
	workers        int
	maxChunkTokens int
	log            *logrus.Entry
}

// New creates a Translator. The default target is fixed for its lifetime.
func New(capability Capability, cfg Config) *Translator {
	if !cfg.DefaultTarget.IsSet() {
		cfg.DefaultTarget = domain.EN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxChunkTokens <= 0 {
		cfg.MaxChunkTokens = chunker.DefaultMaxTokens
	}

	return &Translator{
		capability:     capability,
		defaultTarget:  cfg.DefaultTarget,
		workers:        cfg.Workers,
		maxChunkTokens: cfg.MaxChunkTokens,
		log:            logger.OrDefault(cfg.Logger).WithField("component", "translator"),
	}
}

// DefaultTarget returns the language used when a text has no target hint.
func (t *Translator) DefaultTarget() domain.Language {
	return t.defaultTarget
}

// DetectLanguage asks the capability for the language of text.
func (t *Translator) DetectLanguage(ctx context.Context, text string) (domain.Language, error) {
	lang, err := t.capability.DetectLanguage(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("detect language: %w", err)
	}
	if !lang.IsSet() {
		lang = domain.OTHER
	}
	return lang, nil
}

// Resolve fills in missing hints: the source is detected and the target is
// the default. It fails with *UnsupportedLanguageError when either resolved
// language is unsupported. text itself is not modified.
func (t *Translator) Resolve(ctx context.Context, text domain.Text) (domain.Text, error) {
	from, to := text.FromLanguage, text.ToLanguage

	if !from.IsSet() {
		detected, err := t.DetectLanguage(ctx, text.Body)
		if err != nil {
			return text, err
		}
		from = detected
	}
	if !to.IsSet() {
		to = t.defaultTarget
	}

	if !from.Supported() || !to.Supported() {
		return text, &UnsupportedLanguageError{Body: text.Body, From: from, To: to}
	}
	return text.WithLanguages(from, to), nil
}

// TranslateOne resolves and translates a single text. When the resolved
// source and target are the same language the body is returned as is and the
// capability is not called.
func (t *Translator) TranslateOne(ctx context.Context, text domain.Text) (string, error) {
	resolved, err := t.Resolve(ctx, text)
	if err != nil {
		return "", err
	}
	if resolved.FromLanguage == resolved.ToLanguage {
		return resolved.Body, nil
	}

	translated, err := t.capability.Translate(ctx, resolved.Body, resolved.FromLanguage, resolved.ToLanguage)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", resolved.FromLanguage, resolved.ToLanguage, err)
	}
	return translated, nil
}

// TranslateMany translates every text and returns one Outcome per input, in
// input order. A failing item never affects the others.
func (t *Translator) TranslateMany(ctx context.Context, texts []domain.Text) []Outcome {
	outcomes := make([]Outcome, len(texts))
	if len(texts) == 0 {
		return outcomes
	}

	if batch, ok := t.capability.(BatchCapability); ok {
		t.translateBatched(ctx, batch, texts, outcomes)
	} else {
		t.translateEach(ctx, texts, outcomes)
	}

	for i, o := range outcomes {
		if !o.OK() {
			t.log.WithError(o.Err).WithField("item", i).Warn("Translation failed")
		}
	}
	return outcomes
}

func (t *Translator) translateEach(ctx context.Context, texts []domain.Text, outcomes []Outcome) {
	var g errgroup.Group
	g.SetLimit(t.workers)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			translated, err := t.TranslateOne(ctx, text)
			outcomes[i] = Outcome{Text: translated, Err: err}
			return nil
		})
	}
	_ = g.Wait()
}
