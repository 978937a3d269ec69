package openai

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
	"github.com/sweetpotato0/roundtable/provider"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int64
	Temperature  float64
	SystemPrompt string
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gpt-4.1",
		MaxTokens:   256,
		Temperature: 0.7,
	}
}

// Provider implements the provider.Provider interface for OpenAI
type Provider struct {
	name   string
	config *Config
	client openai.Client
}

// New creates a new OpenAI provider answering as the given speaker id.
func New(name string, config *Config) *Provider {
	if name == "" {
		name = "gpt"
	}
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gpt-4.1"
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
	client := openai.NewClient(options...)

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

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if p.config.SystemPrompt != "" {
		openAIMessages = append(openAIMessages, openai.SystemMessage(p.config.SystemPrompt))
	}
	for _, msg := range req.History {
		switch {
		case msg.Role == message.RoleSystem:
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case msg.Speaker == p.name:
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(p.config.MaxTokens)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.NewProviderError(errors.KindInvalidResponse, p.name, "no choices returned")
	}

	reply := message.NewSpeakerMessage(p.name, completion.Choices[0].Message.Content)
	return &provider.Response{Message: reply}, nil
}

func (p *Provider) classify(err error) *errors.ProviderError {
	if perr := provider.ClassifyContext(p.name, err); perr != nil {
		return perr
	}
	var apierr *openai.Error
	if stderrors.As(err, &apierr) {
		return provider.ClassifyStatus(p.name, apierr.StatusCode, apierr.Error()).WithCause(err)
	}
	return errors.AsProviderError(err, p.name)
}
