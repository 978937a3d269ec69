package deepseek

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

// DeepSeek speaks the OpenAI chat completion protocol, so the adapter reuses
// the OpenAI SDK pointed at the DeepSeek endpoint.
const deepseekBaseURL = "https://api.deepseek.com"

// Config holds DeepSeek provider configuration
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int64
	Temperature  float64
	SystemPrompt string
}

// DefaultConfig returns default DeepSeek configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     deepseekBaseURL,
		Model:       "deepseek-chat",
		MaxTokens:   256,
		Temperature: 0.7,
	}
}

// Provider implements the provider.Provider interface for DeepSeek
type Provider struct {
	name   string
	config *Config
	client openai.Client
}

// New creates a new DeepSeek provider answering as the given speaker id.
func New(name string, config *Config) *Provider {
	if name == "" {
		name = "deepseek"
	}
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "deepseek-chat"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 256
	}
	if config.Temperature <= 0 {
		config.Temperature = 0.7
	}
	if config.BaseURL == "" {
		config.BaseURL = deepseekBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.BaseURL),
	)

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

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if p.config.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(p.config.SystemPrompt))
	}
	for _, msg := range req.History {
		switch {
		case msg.Role == message.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case msg.Speaker == p.name:
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
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
		if perr := provider.ClassifyContext(p.name, err); perr != nil {
			return nil, perr
		}
		var apierr *openai.Error
		if stderrors.As(err, &apierr) {
			return nil, provider.ClassifyStatus(p.name, apierr.StatusCode, apierr.Error()).WithCause(err)
		}
		return nil, errors.AsProviderError(err, p.name)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.NewProviderError(errors.KindInvalidResponse, p.name, "no choices returned")
	}

	reply := message.NewSpeakerMessage(p.name, completion.Choices[0].Message.Content)
	return &provider.Response{Message: reply}, nil
}
