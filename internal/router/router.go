// Package router routes translation requests to the translator Lambda fleet.
//
// Each translator Lambda serves one model family in one direction through
// English, e.g. "<prefix>-romance-en" or "<prefix>-en-de". Pairs that don't
// involve English are chained through it.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/chunker"
	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

// modelFamilies maps each non-English language to the model family whose
// Lambdas translate it. Romance models need the target language on the way
// out of English.
var modelFamilies = map[domain.Language]string{
	domain.FR: "romance",
	domain.ES: "romance",
	domain.DE: "de",
	domain.BG: "bg",
}

const romanceFamily = "romance"

// Invoker is the part of the Lambda client the router needs.
type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Router routes translation requests to the appropriate Lambda function.
type Router struct {
	client Invoker
	prefix string
	log    *logrus.Entry
}

// TranslatorRequest is the request format for translator Lambdas (chunked mode).
type TranslatorRequest struct {
	Chunks     [][]string `json:"chunks"`
	TargetLang string     `json:"target_lang,omitempty"` // Required for en-romance
}

// TranslatorResponse is the response format from translator Lambdas (chunked mode).
type TranslatorResponse struct {
	Translations [][]string `json:"translations"`
	Error        string     `json:"error,omitempty"`
}

type step struct {
	functionName string
	targetLang   string
}

// New creates a Router over client. prefix names the translator Lambdas.
func New(client Invoker, prefix string, log *logrus.Logger) *Router {
	return &Router{
		client: client,
		prefix: prefix,
		log:    logger.OrDefault(log).WithField("component", "router"),
	}
}

// NewFromConfig creates a Router with a Lambda client built from cfg.
func NewFromConfig(cfg aws.Config, prefix string, log *logrus.Logger) *Router {
	return New(lambda.NewFromConfig(cfg), prefix, log)
}

// IsValidPair checks if a language pair can be translated.
func (r *Router) IsValidPair(source, target domain.Language) bool {
	return r.getRoute(source, target) != nil
}

// getRoute returns the Lambda calls that translate source to target, in order.
func (r *Router) getRoute(source, target domain.Language) []step {
	if !source.Supported() || !target.Supported() || source == target {
		return nil
	}

	switch {
	case target == domain.EN:
		return []step{r.toEnglish(source)}
	case source == domain.EN:
		return []step{r.fromEnglish(target)}
	default:
		return []step{r.toEnglish(source), r.fromEnglish(target)}
	}
}

func (r *Router) toEnglish(source domain.Language) step {
	return step{functionName: fmt.Sprintf("%s-%s-en", r.prefix, modelFamilies[source])}
}

func (r *Router) fromEnglish(target domain.Language) step {
	family := modelFamilies[target]
	s := step{functionName: fmt.Sprintf("%s-en-%s", r.prefix, family)}
	if family == romanceFamily {
		s.targetLang = target.Code()
	}
	return s
}

// TranslateChunks translates all chunks using the appropriate Lambda(s).
// For pairs that don't involve English, chains two Lambda calls.
func (r *Router) TranslateChunks(ctx context.Context, source, target domain.Language, chunks [][]string) ([][]string, error) {
	if len(chunks) == 0 {
		return [][]string{}, nil
	}

	route := r.getRoute(source, target)
	if route == nil {
		return nil, fmt.Errorf("unsupported language pair: %s-%s", source, target)
	}

	currentChunks := chunks
	for i, s := range route {
		result, err := r.invokeLambda(ctx, s, currentChunks)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s) failed: %w", i+1, s.functionName, err)
		}
		currentChunks = result
	}

	return currentChunks, nil
}

func (r *Router) invokeLambda(ctx context.Context, s step, chunks [][]string) ([][]string, error) {
	payload, err := json.Marshal(TranslatorRequest{
		Chunks:     chunks,
		TargetLang: s.targetLang,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"function": s.functionName,
		"chunks":   len(chunks),
	}).Debug("Invoking translator")

	result, err := r.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(s.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", s.functionName, err)
	}

	if result.FunctionError != nil {
		return nil, fmt.Errorf("lambda error: %s", *result.FunctionError)
	}

	var resp TranslatorResponse
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("translator error: %s", resp.Error)
	}

	if len(resp.Translations) != len(chunks) {
		return nil, fmt.Errorf("translator returned %d chunks, sent %d", len(resp.Translations), len(chunks))
	}

	return resp.Translations, nil
}

// TranslateBatch chunks texts by token count and sends all chunks in one
// invocation per route step. The translator Lambda processes them
// sequentially.
func (r *Router) TranslateBatch(ctx context.Context, texts []string, source, target domain.Language) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if !r.IsValidPair(source, target) {
		return nil, fmt.Errorf("unsupported language pair: %s-%s", source, target)
	}

	chunks := chunker.ChunkByTokens(texts, chunker.DefaultMaxTokens)
	results, err := r.TranslateChunks(ctx, source, target, chunks)
	if err != nil {
		return nil, err
	}

	translations := make([]string, 0, len(texts))
	for _, chunk := range results {
		translations = append(translations, chunk...)
	}
	return translations, nil
}

// Translate translates a single text.
func (r *Router) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	results, err := r.TranslateBatch(ctx, []string{text}, source, target)
	if err != nil {
		return "", err
	}
	if len(results) != 1 {
		return "", fmt.Errorf("translator returned %d texts, sent 1", len(results))
	}
	return results[0], nil
}
