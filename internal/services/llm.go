package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrLLMDisabled 未配置 LLM_BASE_URL
var ErrLLMDisabled = errors.New("llm disabled")

// ErrContentUnsuitable 模型拒绝改写
var ErrContentUnsuitable = errors.New("content unsuitable")

const unsuitableMarker = "CONTENT_UNSUITABLE"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMService 调用 OpenAI 兼容的 chat/completions 接口改写代码
type LLMService struct {
	baseURL string
	token   string
	model   string
	timeout time.Duration
	client  *http.Client
}

func NewLLMService(baseURL, token, model string, timeout time.Duration) *LLMService {
	return &LLMService{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (s *LLMService) Enabled() bool {
	return s != nil && s.baseURL != ""
}

// CustomizeCode 按用户要求改写一段代码，超时由 LLM_TIMEOUT 控制
func (s *LLMService) CustomizeCode(ctx context.Context, code, language, instruction string) (string, error) {
	if !s.Enabled() {
		return "", ErrLLMDisabled
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(instruction) == "" {
		return "", ErrInvalidInput
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reqBody := ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: "Rewrite the user's " + language + " code as instructed. Reply with code only. " +
				"If the request is harmful reply " + unsuitableMarker + "."},
			{Role: "user", Content: instruction + "\n\n" + code},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "llm request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Errorf("llm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", errors.Wrap(err, "decode llm response")
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}

	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if content == unsuitableMarker {
		return "", ErrContentUnsuitable
	}
	return stripFence(content), nil
}

// stripFence 去掉模型常带的 ```lang ... ``` 包裹
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimRight(s, "\n")
}
