package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/domain"
	"github.com/pricofy/translation-dispatcher/internal/logger"
)

const (
	// DefaultLibreTranslateURL is the default base URL for the LibreTranslate API.
	DefaultLibreTranslateURL = "http://localhost:5000"
	// DefaultLibreTranslateTimeout is the default timeout for HTTP requests.
	DefaultLibreTranslateTimeout = 30 * time.Second
)

// LibreTranslateClient detects and translates with a LibreTranslate server.
type LibreTranslateClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewLibreTranslateClient creates a LibreTranslate client.
func NewLibreTranslateClient(baseURL string, timeout time.Duration, log *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if timeout <= 0 {
		timeout = DefaultLibreTranslateTimeout
	}

	return &LibreTranslateClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.OrDefault(log).WithField("component", "libretranslate"),
	}
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreDetectRequest struct {
	Q string `json:"q"`
}

type libreDetection struct {
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// Translate translates text from one supported language to another.
func (c *LibreTranslateClient) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	if !from.Supported() || !to.Supported() {
		return "", fmt.Errorf("unsupported language pair: %s-%s", from, to)
	}

	var resp libreTranslateResponse
	err := c.post(ctx, "/translate", libreTranslateRequest{
		Q:      text,
		Source: from.Code(),
		Target: to.Code(),
		Format: "text",
	}, &resp)
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"source_lang": from.Code(),
		"target_lang": to.Code(),
	}).Debug("Translation completed")

	return resp.TranslatedText, nil
}

// DetectLanguage returns the most confident detection, or domain.OTHER.
func (c *LibreTranslateClient) DetectLanguage(ctx context.Context, text string) (domain.Language, error) {
	var detections []libreDetection
	if err := c.post(ctx, "/detect", libreDetectRequest{Q: text}, &detections); err != nil {
		return 0, err
	}

	best := libreDetection{Confidence: -1}
	for _, d := range detections {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	if best.Language == "" {
		return domain.OTHER, nil
	}
	return languageFromCode(best.Language), nil
}

// CheckHealth verifies that LibreTranslate is ready, using /languages.
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	url := c.baseURL + "/languages"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", url).Error("Health check request failed")
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *LibreTranslateClient) post(ctx context.Context, path string, in, out interface{}) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", url).Error("LibreTranslate request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"path":        path,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("LibreTranslate request completed")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
