package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

const fallbackReply = "I'm sorry, I couldn't process that request."

// Generator produces a reply for prompt under the system instruction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	MaxAttempts int
	Backoff     time.Duration
}

type Service struct {
	generator Generator
	config    Config
	logger    *logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewService(generator Generator, config Config, log *logger.Logger) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Backoff <= 0 {
		config.Backoff = time.Second
	}
	return &Service{
		generator: generator,
		config:    config,
		logger:    log,
		sleep:     sleepContext,
	}
}

// Ask answers a pet owner's question, adding the website guide when the
// question mentions a site feature.
func (s *Service) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.BadRequest("message is required", nil)
	}

	system := persona
	if MentionsFeature(message) {
		system += "\n\n" + usageGuide
	}

	delay := s.config.Backoff
	var err error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		var reply string
		reply, err = s.generator.Generate(ctx, system, message)
		if err == nil {
			if reply = strings.TrimSpace(reply); reply == "" {
				reply = fallbackReply
			}
			return reply, nil
		}
		if ctx.Err() != nil || attempt == s.config.MaxAttempts {
			break
		}

		s.logger.Warn("Chat model failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
		if serr := s.sleep(ctx, delay); serr != nil {
			err = serr
			break
		}
		delay *= 2
	}
	return "", apperrors.Unavailable("the assistant is unavailable right now", err)
}

// MentionsFeature reports whether message names a website feature.
func MentionsFeature(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	modelID string
}

func NewGemini(ctx context.Context, apiKey, modelID string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, modelID: modelID}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("chat: gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
