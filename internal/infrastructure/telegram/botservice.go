package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
)

const defaultAPIBase = "https://api.telegram.org"

// BotService provides the Telegram Bot API calls the alerting path needs.
type BotService struct {
	httpClient *http.Client
	apiBase    string
	token      string
}

type Option func(*BotService)

// WithAPIBase points the service at another Bot API endpoint.
func WithAPIBase(base string) Option {
	return func(s *BotService) { s.apiBase = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(s *BotService) { s.httpClient = c }
}

func NewBotService(config sharedConfig.TelegramConfig, opts ...Option) *BotService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &BotService{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    defaultAPIBase,
		token:      config.BotToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage sends an HTML formatted message to a chat.
func (s *BotService) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	_, err := s.makeRequest(ctx, "sendMessage", body)
	return err
}

// GetMe returns the bot's username, which doubles as a token check.
func (s *BotService) GetMe(ctx context.Context) (string, error) {
	raw, err := s.makeRequest(ctx, "getMe", nil)
	if err != nil {
		return "", err
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(raw, &me); err != nil {
		return "", fmt.Errorf("failed to decode getMe result: %w", err)
	}
	return me.Username, nil
}

// apiResponse represents a Telegram API response
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

func (s *BotService) makeRequest(ctx context.Context, method string, body map[string]any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !result.OK {
		apiErr := &APIError{ErrorCode: result.ErrorCode, Description: result.Description}
		if apiErr.ErrorCode == 0 {
			apiErr.ErrorCode = resp.StatusCode
		}
		if result.Parameters != nil {
			apiErr.RetryAfter = result.Parameters.RetryAfter
		}
		return nil, apiErr
	}

	return result.Result, nil
}
