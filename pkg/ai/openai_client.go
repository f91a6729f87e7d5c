// pkg/ai/openai_client.go

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTemperature    = 0.7
)

var ErrNoChoices = errors.New("no completion choices returned")

// OpenAIOptions configures the OpenAI-compatible provider. Endpoint may point at any
// server speaking the OpenAI chat/embeddings API; empty means api.openai.com.
type OpenAIOptions struct {
	APIKey             string
	Endpoint           string
	Model              string
	EmbeddingModel     string
	EmbeddingDimension int

	// Temperature nil means DefaultTemperature; zero is honoured.
	Temperature *float64
}

type openAI struct {
	client      openai.Client
	model       string
	embedModel  string
	embedDim    int
	temperature float64
}

func NewOpenAI(o OpenAIOptions) Client {
	// retry policy belongs to callers, not the transport
	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(0),
	}
	if o.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(o.Endpoint, "/")+"/"))
	}
	c := &openAI{
		client:      openai.NewClient(reqOpts...),
		model:       o.Model,
		embedModel:  o.EmbeddingModel,
		embedDim:    o.EmbeddingDimension,
		temperature: DefaultTemperature,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.embedModel == "" {
		c.embedModel = DefaultEmbeddingModel
	}
	if o.Temperature != nil {
		c.temperature = *o.Temperature
	}
	return c
}

func (c *openAI) params(system string, msgs []Message) openai.ChatCompletionNewParams {
	list := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		list = append(list, openai.SystemMessage(system))
	}
	for _, m := range msgs {
		if m.Role == RoleAssistant {
			list = append(list, openai.AssistantMessage(m.Content))
			continue
		}
		list = append(list, openai.UserMessage(m.Content))
	}
	return openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    list,
		Temperature: openai.Float(c.temperature),
	}
}

func (c *openAI) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.params(system, msgs))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *openAI) Stream(ctx context.Context, system string, msgs []Message) (<-chan Fragment, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(system, msgs))

	// pull the first event here so a request that never started is reported synchronously
	if !stream.Next() {
		err := stream.Err()
		_ = stream.Close()
		if err != nil {
			return nil, fmt.Errorf("chat stream: %w", err)
		}
		out := make(chan Fragment)
		close(out)
		return out, nil
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()
		for ok := true; ok; ok = stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case out <- Fragment{Text: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- Fragment{Err: fmt.Errorf("chat stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (c *openAI) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}
	if c.embedDim > 0 {
		params.Dimensions = openai.Int(int64(c.embedDim))
	}
	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
