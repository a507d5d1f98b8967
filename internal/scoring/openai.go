package scoring

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dojotrack/technique-analyzer/internal/config"
	"github.com/dojotrack/technique-analyzer/internal/frames"
	"github.com/pkg/errors"
)

const defaultMaxTokens = 2000

// visionClient implements Client against an OpenAI-compatible
// /v1/chat/completions endpoint with base64 image parts.
type visionClient struct {
	cfg        config.ScoringConfig
	httpClient *http.Client
}

func NewVisionClient(cfg config.ScoringConfig) Client {
	return &visionClient{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

func (c *visionClient) Model() string {
	return c.cfg.Model
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *visionClient) Score(ctx context.Context, prompt string, imgs []frames.Frame) (string, error) {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" {
		return "", ErrUnavailable
	}
	if len(imgs) == 0 {
		return "", errors.New("no frames to score")
	}

	parts := make([]chatContentPart, 0, len(imgs)+1)
	parts = append(parts, chatContentPart{Type: "text", Text: prompt})
	for _, img := range imgs {
		parts = append(parts, chatContentPart{
			Type: "image_url",
			ImageURL: &chatImageURL{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: parts}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal scoring request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build scoring request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", errors.Wrap(err, "scoring request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// The deadline can also expire mid-body after a 200 header.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", errors.Wrap(err, "failed to read scoring response")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to decode scoring response")
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("scoring service error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("scoring service returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
