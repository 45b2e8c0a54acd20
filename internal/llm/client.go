package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message is one chat turn. Content is either a plain string or a slice of
// content parts (for vision requests with image_url entries).
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ImagePart builds an image_url content part for a vision message.
func ImagePart(url string) map[string]interface{} {
	return map[string]interface{}{
		"type":      "image_url",
		"image_url": map[string]string{"url": url},
	}
}

// TextPart builds a text content part.
func TextPart(text string) map[string]interface{} {
	return map[string]interface{}{"type": "text", "text": text}
}

// ChatCompleter is the narrow surface the router, extractor and vision
// classifier consume; tests plug in fakes.
type ChatCompleter interface {
	ChatJSON(ctx context.Context, model string, messages []Message, maxTokens int) (string, error)
}

// Client is a minimal OpenAI chat-completions client. JSON mode only; every
// caller in this codebase wants a machine-parseable object back.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 60 * time.Second}
	}
	return c.HTTP
}

type chatRequest struct {
	Model          string      `json:"model"`
	Messages       []Message   `json:"messages"`
	MaxTokens      int         `json:"max_tokens,omitempty"`
	Temperature    float64     `json:"temperature"`
	ResponseFormat interface{} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ChatJSON runs one chat completion in JSON mode and returns the raw content
// string of the first choice.
func (c *Client) ChatJSON(ctx context.Context, model string, messages []Message, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("llm: OPENAI_API_KEY is not set")
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	reqBody := chatRequest{
		Model:          model,
		Messages:       messages,
		MaxTokens:      maxTokens,
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llm response decode (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices")
	}

	content := parsed.Choices[0].Message.Content
	log.Debug().Str("model", model).Int("content_len", len(content)).Msg("llm completion")
	return content, nil
}
