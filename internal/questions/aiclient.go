package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/dedupe"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
)

// questionPromptTemplate can be set at application startup to customize the
// generation prompt. Use the tokens {{count}}, {{difficulty}} and {{topic}}.
var questionPromptTemplate string

// SetQuestionPromptTemplate overrides the built-in generation prompt. Call
// from main after loading configuration.
func SetQuestionPromptTemplate(t string) {
	questionPromptTemplate = strings.TrimSpace(t)
}

// AIProvider generates study questions through the Anthropic Messages API.
type AIProvider struct {
	client *http.Client
}

// NewAIProvider builds a provider with a bounded request timeout so a slow
// upstream can never stall the battle turn machine.
func NewAIProvider(timeout time.Duration) *AIProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIProvider{client: &http.Client{Timeout: timeout}}
}

// FetchQuestion generates a single question. Concurrent requests for the same
// topic and difficulty are deduplicated through singleflight.
func (p *AIProvider) FetchQuestion(ctx context.Context, topic string, difficulty game.Difficulty) (Question, error) {
	qs, err := p.Generate(ctx, topic, difficulty, 1)
	if err != nil {
		return Question{}, err
	}
	if len(qs) == 0 {
		return Question{}, fmt.Errorf("provider returned no questions")
	}
	return qs[0], nil
}

// Generate asks the model for count questions. A response with fewer entries
// than requested is padded with clearly-marked placeholder questions rather
// than failing the whole batch.
func (p *AIProvider) Generate(ctx context.Context, topic string, difficulty game.Difficulty, count int) ([]Question, error) {
	if count < 1 {
		count = 1
	}
	sfKey := strings.ToLower(strings.TrimSpace(topic)) + "|" + string(difficulty) + "|" + fmt.Sprint(count)

	ch := dedupe.QuestionGroup.DoChan(sfKey, func() (interface{}, error) {
		return p.callAnthropic(ctx, topic, difficulty, count)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		qs, ok := r.Val.([]Question)
		if !ok {
			return nil, fmt.Errorf("unexpected result type from singleflight")
		}
		return padBatch(qs, topic, difficulty, count), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *AIProvider) callAnthropic(ctx context.Context, topic string, difficulty game.Difficulty, count int) ([]Question, error) {
	apiKey := os.Getenv(constants.EnvAnthropicAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set", constants.EnvAnthropicAPIKey)
	}

	prompt := questionPromptTemplate
	if prompt == "" {
		prompt = "Generate {{count}} {{difficulty}} difficulty question(s) about {{topic}}.\n\n" +
			"Format as JSON array:\n" +
			`[{"question": "the question text", "answer": "the correct answer", "difficulty": "{{difficulty}}"}]` + "\n\n" +
			"Requirements:\n" +
			"- Questions should be clear and educational\n" +
			"- Answers should be concise (1-3 words when possible)\n" +
			"- Match the difficulty level appropriately\n" +
			"- Return ONLY the JSON array, no other text"
	}
	prompt = strings.ReplaceAll(prompt, "{{count}}", fmt.Sprint(count))
	prompt = strings.ReplaceAll(prompt, "{{difficulty}}", string(difficulty))
	prompt = strings.ReplaceAll(prompt, "{{topic}}", topic)

	payload := map[string]interface{}{
		"model":      constants.AnthropicModel,
		"max_tokens": constants.AnthropicMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, constants.AnthropicBaseURL+constants.AnthropicMessagesPath, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAnthropicAPIKey, apiKey)
	req.Header.Set(constants.HeaderAnthropicVersion, constants.AnthropicVersion)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic error: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode anthropic response: %w", err)
	}
	if len(out.Content) == 0 {
		return nil, fmt.Errorf("empty response from anthropic")
	}

	// The model returns the JSON array as text, sometimes wrapped in
	// markdown code fences.
	text := strings.TrimSpace(out.Content[0].Text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var qs []Question
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}

	valid := qs[:0]
	for _, q := range qs {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			continue
		}
		if q.Difficulty == "" {
			q.Difficulty = difficulty
		}
		valid = append(valid, q)
	}
	logging.Info("question generation succeeded", logging.Fields{constants.LogFieldTopic: topic, constants.LogFieldDifficulty: string(difficulty), "count": len(valid)})
	return valid, nil
}

// padBatch fills a short batch up to count with placeholder entries.
func padBatch(qs []Question, topic string, difficulty game.Difficulty, count int) []Question {
	for len(qs) < count {
		q := genericQuestion(topic, difficulty)
		q.Placeholder = true
		qs = append(qs, q)
	}
	return qs
}
