package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
	"github.com/sweetpotato0/roundtable/provider"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey       string
	Model        string
	MaxTokens    int32
	Temperature  float32
	TopP         float32
	TopK         int32
	SystemPrompt string
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-2.0-flash",
		MaxTokens:   256,
		Temperature: 0.7,
		TopP:        0.9,
		TopK:        40,
	}
}

// Provider implements the provider.Provider interface for Google Gemini
type Provider struct {
	name   string
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider using the official SDK. The client is
// built eagerly so that credential problems surface at startup.
func New(ctx context.Context, name string, config *Config) (*Provider, error) {
	if name == "" {
		name = "gemini"
	}
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 256
	}
	if config.Temperature <= 0 {
		config.Temperature = 0.7
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		name:   name,
		config: config,
		client: client,
	}, nil
}

// Name returns the speaker id.
func (p *Provider) Name() string {
	return p.name
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if p.config.Temperature > 0 {
		model.SetTemperature(p.config.Temperature)
	}
	if p.config.TopP > 0 {
		model.SetTopP(p.config.TopP)
	}
	if p.config.TopK > 0 {
		model.SetTopK(p.config.TopK)
	}
	if p.config.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(p.config.SystemPrompt)},
		}
	}

	// Gemini chat sessions want all but the latest entry as history and the
	// latest entry as the outgoing message.
	history, last := splitHistory(req.History, p.name, req.Topic)
	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, p.classify(err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, errors.NewProviderError(errors.KindInvalidResponse, p.name, err.Error())
	}

	reply := message.NewSpeakerMessage(p.name, text)
	return &provider.Response{Message: reply}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func splitHistory(msgs []*message.Message, self, topic string) ([]*genai.Content, string) {
	if len(msgs) == 0 {
		return nil, topic
	}

	history := make([]*genai.Content, 0, len(msgs)-1)
	for _, msg := range msgs[:len(msgs)-1] {
		role := "user"
		if msg.Speaker == self {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history, msgs[len(msgs)-1].Content
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in candidate")
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("candidate contained no text parts")
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *Provider) classify(err error) *errors.ProviderError {
	if perr := provider.ClassifyContext(p.name, err); perr != nil {
		return perr
	}
	var apierr *googleapi.Error
	if stderrors.As(err, &apierr) {
		return provider.ClassifyStatus(p.name, apierr.Code, apierr.Message).WithCause(err)
	}
	return errors.AsProviderError(err, p.name)
}
