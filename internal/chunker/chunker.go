// Package chunker groups batch items into chunks bounded by an estimated
// token count, so one backend call stays within the translator's limits.
package chunker

// DefaultMaxTokens is the default maximum tokens per chunk.
// With 384MB translator Lambdas, ~3000 tokens is safe.
const DefaultMaxTokens = 3000

// EstimateTokens estimates the token count for a text.
// Uses a simple heuristic: ~4 characters per token for Latin languages.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// Chunk splits items into chunks whose summed token estimate, taken from the
// text of each item, doesn't exceed maxTokens. Items are never split and keep
// their order; an item larger than maxTokens gets a chunk of its own.
func Chunk[T any](items []T, text func(T) string, maxTokens int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var chunks [][]T
	var current []T
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			currentTokens = 0
		}
	}

	for _, item := range items {
		tokens := EstimateTokens(text(item))

		if tokens > maxTokens {
			flush()
			chunks = append(chunks, []T{item})
			continue
		}

		if currentTokens+tokens > maxTokens {
			flush()
		}

		current = append(current, item)
		currentTokens += tokens
	}
	flush()

	return chunks
}

// ChunkByTokens is Chunk for plain strings.
func ChunkByTokens(texts []string, maxTokens int) [][]string {
	return Chunk(texts, func(s string) string { return s }, maxTokens)
}
