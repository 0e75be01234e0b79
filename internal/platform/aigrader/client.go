package aigrader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"classhub/internal/common"
)

// Converter turns a PDF into a single base64-encoded image the grading model
// can look at. The conversion itself runs in a separate service.
type Converter interface {
	Convert(ctx context.Context, pdf []byte) (base64Image string, err error)
}

// Grader scores one homework image. The scoring model is opaque; we only rely
// on the shape of its result.
type Grader interface {
	Grade(ctx context.Context, base64Image string) (*Evaluation, error)
}

type Evaluation struct {
	Score    float64 `json:"score"` // 0-100
	Feedback string  `json:"feedback"`
}

type httpConverter struct {
	url    string
	client *http.Client
}

func NewHTTPConverter(url string) Converter {
	return &httpConverter{url: url, client: &http.Client{Timeout: 60 * time.Second}}
}

func (c *httpConverter) Convert(ctx context.Context, pdf []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(pdf))
	if err != nil {
		return "", fmt.Errorf("httpConverter.Convert: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pdf conversion failed: %v: %w", err, common.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf converter returned status %d: %w", resp.StatusCode, common.ErrUpstream)
	}

	var out struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("pdf converter returned bad payload: %v: %w", err, common.ErrUpstream)
	}
	return out.ImageBase64, nil
}

type httpGrader struct {
	url    string
	client *http.Client
}

func NewHTTPGrader(url string) Grader {
	return &httpGrader{url: url, client: &http.Client{Timeout: 120 * time.Second}}
}

func (g *httpGrader) Grade(ctx context.Context, base64Image string) (*Evaluation, error) {
	payload, err := json.Marshal(map[string]string{"image_base64": base64Image})
	if err != nil {
		return nil, fmt.Errorf("httpGrader.Grade: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("httpGrader.Grade: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai grading failed: %v: %w", err, common.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai grader returned status %d: %w", resp.StatusCode, common.ErrUpstream)
	}

	eval := &Evaluation{}
	if err := json.NewDecoder(resp.Body).Decode(eval); err != nil {
		return nil, fmt.Errorf("ai grader returned bad payload: %v: %w", err, common.ErrUpstream)
	}
	return eval, nil
}
