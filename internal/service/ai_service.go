package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/monitoring"
	"smartqa_backend/pkg/tracing"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// LLM 文本生成
type LLM interface {
	Chat(ctx context.Context, system, prompt string) (string, error)
	ChatStream(ctx context.Context, system, prompt string) (<-chan string, <-chan error)
}

// Embedder 文本向量化
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const embedBatchSize = 50

// AIService 调用 OpenAI 兼容接口（默认 Gemini 兼容端点）
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	s := &AIService{}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig 配置热重载
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s.mu.Lock()
	s.config = cfg
	s.client = &http.Client{Timeout: timeout}
	s.mu.Unlock()
}

func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

func (s *AIService) Configured() bool {
	cfg, _ := s.snapshot()
	return cfg.Configured()
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
		Delta   AIChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func buildMessages(system, prompt string) []AIChatMessage {
	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	return append(messages, AIChatMessage{Role: "user", Content: prompt})
}

func (s *AIService) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	cfg, client := s.snapshot()
	if !cfg.Configured() {
		return nil, util.ErrAIUnavailable
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(b))
	}
	return resp, nil
}

func (s *AIService) Chat(ctx context.Context, system, prompt string) (answer string, err error) {
	cfg, _ := s.snapshot()
	ctx, span := tracing.StartSpan(ctx, "ai.chat", attribute.String("ai.model", cfg.Model))
	defer func() {
		monitoring.AIRequests.WithLabelValues("chat", monitoring.StatusLabel(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	resp, err := s.post(ctx, "/chat/completions", ChatCompletionRequest{
		Model:    cfg.Model,
		Messages: buildMessages(system, prompt),
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// ChatStream 逐段返回模型输出，两个 channel 都会被关闭
func (s *AIService) ChatStream(ctx context.Context, system, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)

		var err error
		cfg, _ := s.snapshot()
		ctx, span := tracing.StartSpan(ctx, "ai.chat_stream", attribute.String("ai.model", cfg.Model))
		defer func() {
			monitoring.AIRequests.WithLabelValues("chat_stream", monitoring.StatusLabel(err)).Inc()
			tracing.EndSpan(span, err)
		}()

		resp, err := s.post(ctx, "/chat/completions", ChatCompletionRequest{
			Model:    cfg.Model,
			Messages: buildMessages(system, prompt),
			Stream:   true,
		})
		if err != nil {
			errChan <- err
			return
		}
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			var line string
			line, err = reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					err = nil
				} else {
					errChan <- err
				}
				return
			}

			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data:") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var streamResp ChatCompletionResponse
			if json.Unmarshal([]byte(data), &streamResp) != nil {
				continue
			}

			if len(streamResp.Choices) > 0 {
				if content := streamResp.Choices[0].Delta.Content; content != "" {
					select {
					case out <- content:
					case <-ctx.Done():
						err = ctx.Err()
						return
					}
				}
			}
		}
	}()

	return out, errChan
}

// Embed 分批调用 /embeddings，返回顺序与输入一致
func (s *AIService) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	cfg, _ := s.snapshot()
	ctx, span := tracing.StartSpan(ctx, "ai.embed",
		attribute.String("ai.model", cfg.EmbeddingModel),
		attribute.Int("ai.inputs", len(texts)))
	defer func() {
		monitoring.AIRequests.WithLabelValues("embed", monitoring.StatusLabel(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	vectors = make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		batch := texts[start:min(start+embedBatchSize, len(texts))]

		resp, err := s.post(ctx, "/embeddings", EmbeddingRequest{Model: cfg.EmbeddingModel, Input: batch})
		if err != nil {
			return nil, err
		}

		var result EmbeddingResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(result.Data) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(result.Data), len(batch))
		}

		ordered := make([][]float32, len(batch))
		for _, d := range result.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			ordered[d.Index] = d.Embedding
		}
		vectors = append(vectors, ordered...)
	}
	return vectors, nil
}
