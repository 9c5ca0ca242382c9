package translator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pricofy/translation-dispatcher/internal/chunker"
	"github.com/pricofy/translation-dispatcher/internal/domain"
)

type languagePair struct {
	from domain.Language
	to   domain.Language
}

type pendingItem struct {
	index int
	body  string
}

// translateBatched resolves every text, groups the translatable ones by
// language pair and sends each group in token-bounded chunks.
func (t *Translator) translateBatched(ctx context.Context, batch BatchCapability, texts []domain.Text, outcomes []Outcome) {
	resolved := make([]domain.Text, len(texts))
	ready := make([]bool, len(texts))

	var g errgroup.Group
	g.SetLimit(t.workers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			r, err := t.Resolve(ctx, text)
			switch {
			case err != nil:
				outcomes[i] = Outcome{Err: err}
			case r.FromLanguage == r.ToLanguage:
				outcomes[i] = Outcome{Text: r.Body}
			default:
				resolved[i] = r
				ready[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	groups := make(map[languagePair][]pendingItem)
	var order []languagePair
	for i, r := range resolved {
		if !ready[i] {
			continue
		}
		p := languagePair{from: r.FromLanguage, to: r.ToLanguage}
		if _, seen := groups[p]; !seen {
			order = append(order, p)
		}
		groups[p] = append(groups[p], pendingItem{index: i, body: r.Body})
	}

	var sends errgroup.Group
	sends.SetLimit(t.workers)
	for _, p := range order {
		chunks := chunker.Chunk(groups[p], func(it pendingItem) string { return it.body }, t.maxChunkTokens)
		for _, chunk := range chunks {
			p, chunk := p, chunk
			sends.Go(func() error {
				t.translateChunk(ctx, batch, p, chunk, outcomes)
				return nil
			})
		}
	}
	_ = sends.Wait()
}

func (t *Translator) translateChunk(ctx context.Context, batch BatchCapability, p languagePair, chunk []pendingItem, outcomes []Outcome) {
	bodies := make([]string, len(chunk))
	for k, it := range chunk {
		bodies[k] = it.body
	}

	translated, err := batch.TranslateBatch(ctx, bodies, p.from, p.to)
	if err == nil && len(translated) != len(bodies) {
		err = fmt.Errorf("got %d translations for %d texts", len(translated), len(bodies))
	}
	if err != nil {
		err = fmt.Errorf("translate %s->%s: %w", p.from, p.to, err)
	}

	for k, it := range chunk {
		if err != nil {
			outcomes[it.index] = Outcome{Err: err}
			continue
		}
		outcomes[it.index] = Outcome{Text: translated[k]}
	}
}
