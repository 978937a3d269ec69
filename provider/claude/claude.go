package claude

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
	"github.com/sweetpotato0/roundtable/provider"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int64
	Temperature  float64
	SystemPrompt string
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   256,
		Temperature: 0.7,
	}
}

// Provider implements the provider.Provider interface for Claude
type Provider struct {
	name   string
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider answering as the given speaker id.
func New(name string, config *Config) *Provider {
	if name == "" {
		name = "claude"
	}
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 256
	}
	if config.Temperature <= 0 {
		config.Temperature = 0.7
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := anthropic.NewClient(options...)

	return &Provider{
		name:   name,
		config: config,
		client: client,
	}
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

	// Anthropic keeps system text out of the message list.
	var systemPrompts []string
	if p.config.SystemPrompt != "" {
		systemPrompts = append(systemPrompts, p.config.SystemPrompt)
	}

	conversation := make([]anthropic.MessageParam, 0, len(req.History))
	for _, msg := range req.History {
		switch {
		case msg.Role == message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case msg.Speaker == p.name:
			conversation = append(conversation,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: p.config.MaxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}

	var responseText string
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			responseText = content.Text
		}
	}
	if responseText == "" {
		return nil, errors.NewProviderError(errors.KindInvalidResponse, p.name, "no text content in response")
	}

	reply := message.NewSpeakerMessage(p.name, responseText)
	return &provider.Response{Message: reply}, nil
}

func (p *Provider) classify(err error) *errors.ProviderError {
	if perr := provider.ClassifyContext(p.name, err); perr != nil {
		return perr
	}
	var apierr *anthropic.Error
	if stderrors.As(err, &apierr) {
		return provider.ClassifyStatus(p.name, apierr.StatusCode, apierr.Error()).WithCause(err)
	}
	return errors.AsProviderError(err, p.name)
}
