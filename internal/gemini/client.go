// Package gemini speaks the generateContent wire protocol directly over the
// injectable transport, so the key stays a query parameter and the payload
// shape stays under our control.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/logger"
	"github.com/oukeidos/pressask/internal/transport"
)

// answerStyleInstruction is appended to every question so the plain-text
// renderer never has to strip formatting.
const answerStyleInstruction = "Answer in plain text without Markdown or LaTeX formatting."

// thinkingBudget disables extended reasoning: an interactive press-and-ask
// flow values latency over depth.
const thinkingBudget = 0

// Question is one multimodal ask: an image plus the user's question.
type Question struct {
	Text      string
	ImageData []byte
	MIMEType  string
}

// Generator answers questions about images. Implemented by Client and the
// test mock.
type Generator interface {
	Generate(ctx context.Context, model string, q Question) (string, error)
}

// Client is the production Generator over a resolved endpoint and key.
type Client struct {
	transport transport.Transport
	baseURL   string
	apiKey    string
}

var _ Generator = (*Client)(nil)

// NewClient builds a client for one resolved credential pair. Clients are
// cheap; callers create one per request so mid-session settings changes
// always take effect.
func NewClient(tr transport.Transport, baseURL, apiKey string) *Client {
	return &Client{transport: tr, baseURL: baseURL, apiKey: apiKey}
}

// Generate sends the image and question to the model and returns the answer
// text. Every failure comes back as a kinded error.
func (c *Client) Generate(ctx context.Context, model string, q Question) (string, error) {
	body, err := json.Marshal(buildRequest(q))
	if err != nil {
		return "", apperrors.New(apperrors.KindAPI, "Could not encode the request.", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	logger.Debug("Dispatching generateContent", "model", model, "image_bytes", len(q.ImageData))

	resp, err := c.transport.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		// Transport already classified this as network or canceled.
		return "", err
	}

	if resp.Status != http.StatusOK {
		return "", classifyErrorStatus(resp)
	}

	var parsed GenerateResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", apperrors.New(apperrors.KindNoContent, "The model response could not be parsed.", err)
	}
	text := extractText(parsed)
	if text == "" {
		return "", apperrors.NoContent(nil)
	}
	return text, nil
}

func buildRequest(q Question) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{
			Parts: []Part{
				{Text: strings.TrimSpace(q.Text) + "\n\n" + answerStyleInstruction},
				{InlineData: &InlineData{
					MIMEType: q.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(q.ImageData),
				}},
			},
		}},
		GenerationConfig: GenerationConfig{
			ThinkingConfig: ThinkingConfig{ThinkingBudget: thinkingBudget},
		},
	}
}

func extractText(resp GenerateResponse) string {
	for _, candidate := range resp.Candidates {
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			combined.WriteString(part.Text)
		}
		if s := strings.TrimSpace(combined.String()); s != "" {
			return s
		}
	}
	return ""
}

// classifyErrorStatus maps a non-200 provider response to a kinded error.
// A parseable envelope surfaces the provider's own message; key rejections
// are normalized so the caller can steer the user to the settings.
func classifyErrorStatus(resp transport.Response) error {
	var envelope ErrorResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil || envelope.Error.Message == "" {
		logger.Warn("API returned unparseable error body", "status", resp.Status)
		return apperrors.New(apperrors.KindAPI,
			fmt.Sprintf("The API returned status %d with an unreadable error.", resp.Status), nil)
	}

	msg := envelope.Error.Message
	if isInvalidKeyMessage(msg, resp.Status) {
		return apperrors.New(apperrors.KindInvalidCredential, "", fmt.Errorf("api status %d: %s", resp.Status, msg))
	}
	return apperrors.New(apperrors.KindAPI, msg, fmt.Errorf("api status %d", resp.Status))
}

func isInvalidKeyMessage(msg string, status int) bool {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "api key not valid") || strings.Contains(lower, "api key expired") {
		return true
	}
	return (status == http.StatusUnauthorized || status == http.StatusForbidden) &&
		strings.Contains(lower, "api key")
}
