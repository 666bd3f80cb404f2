package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trilha_edu_backend/internal/config"
	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/pkg/logger"

	"go.uber.org/zap"
)

type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat performs a single non-streaming completion against an
// OpenAI-compatible endpoint.
func (s *AIService) Chat(ctx context.Context, prompt string) (string, error) {
	messages := []AIChatMessage{
		{
			Role:    "system",
			Content: "You are a tutoring assistant for a learning platform. Answer concisely and helpfully.",
		},
		{
			Role:    "user",
			Content: prompt,
		},
	}

	reqBody := ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("AI API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// GeneratedQuestion is a parsed question before persistence. The answer
// key stays server-side.
type GeneratedQuestion struct {
	Text          string
	Choices       map[string]string
	CorrectChoice string
	Explanation   string
}

// GenerateQuizQuestions asks the model for count multiple-choice
// questions about topic at the given difficulty. When the provider is
// unconfigured, unreachable, or returns unparseable text, it falls back
// to deterministic mock questions so content authoring never blocks on
// the AI.
func (s *AIService) GenerateQuizQuestions(ctx context.Context, topic string, difficulty model.Difficulty, count int) ([]GeneratedQuestion, error) {
	if count < 1 || count > 20 {
		count = 5
	}

	if s.config.APIKey == "" || s.config.BaseURL == "" {
		return MockQuestions(topic, difficulty, count), nil
	}

	prompt := fmt.Sprintf(
		"Generate %d multiple-choice questions about %q at %s level.\n"+
			"Format each question exactly as:\n"+
			"QUESTION: <question text>\n"+
			"A) <choice>\nB) <choice>\nC) <choice>\nD) <choice>\nE) <choice>\n"+
			"ANSWER: <letter>\n"+
			"EXPLANATION: <one sentence>\n"+
			"Separate questions with a blank line. No other text.",
		count, topic, difficulty)

	raw, err := s.Chat(ctx, prompt)
	if err != nil {
		logger.Log.Warn("AI question generation failed, using mock questions",
			zap.String("topic", topic),
			zap.Error(err))
		return MockQuestions(topic, difficulty, count), nil
	}

	questions := ParseGeneratedQuestions(raw)
	if len(questions) == 0 {
		logger.Log.Warn("AI output unparseable, using mock questions",
			zap.String("topic", topic))
		return MockQuestions(topic, difficulty, count), nil
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// ParseGeneratedQuestions extracts questions from marker-formatted
// model output. Blocks missing any of the five choices or carrying an
// invalid answer letter are skipped rather than failing the batch.
func ParseGeneratedQuestions(raw string) []GeneratedQuestion {
	var questions []GeneratedQuestion

	var current *GeneratedQuestion
	flush := func() {
		if current == nil {
			return
		}
		if current.Text != "" && len(current.Choices) == 5 && validChoice(current.CorrectChoice) {
			if _, ok := current.Choices[current.CorrectChoice]; ok {
				questions = append(questions, *current)
			}
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "QUESTION:"):
			flush()
			current = &GeneratedQuestion{
				Text:    strings.TrimSpace(strings.TrimPrefix(line, "QUESTION:")),
				Choices: make(map[string]string),
			}
		case current == nil:
			continue
		case strings.HasPrefix(line, "ANSWER:"):
			letter := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "ANSWER:")))
			letter = strings.TrimSuffix(letter, ")")
			current.CorrectChoice = letter
		case strings.HasPrefix(line, "EXPLANATION:"):
			current.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "EXPLANATION:"))
		case len(line) >= 2 && line[1] == ')':
			letter := strings.ToLower(line[:1])
			if validChoice(letter) {
				current.Choices[letter] = strings.TrimSpace(line[2:])
			}
		}
	}
	flush()

	return questions
}

// MockQuestions produces placeholder questions when no AI provider is
// available. The first choice is always correct so seeded content stays
// predictable for manual review.
func MockQuestions(topic string, difficulty model.Difficulty, count int) []GeneratedQuestion {
	questions := make([]GeneratedQuestion, 0, count)
	for i := 1; i <= count; i++ {
		questions = append(questions, GeneratedQuestion{
			Text: fmt.Sprintf("(%s) Question %d about %s: which statement is correct?", difficulty, i, topic),
			Choices: map[string]string{
				"a": fmt.Sprintf("The correct statement about %s", topic),
				"b": fmt.Sprintf("A common misconception about %s", topic),
				"c": fmt.Sprintf("An unrelated fact about %s", topic),
				"d": fmt.Sprintf("A partially true statement about %s", topic),
				"e": "None of the above",
			},
			CorrectChoice: "a",
			Explanation:   fmt.Sprintf("Placeholder explanation for %s question %d; replace before publishing.", topic, i),
		})
	}
	return questions
}
