package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Message is one role-tagged prompt message. Images are data URIs appended as
// image content parts, which only makes sense on user messages.
type Message struct {
	Role    string
	Content string
	Images  []string
}

// Options tune a single completion call.
type Options struct {
	// JSONOnly asks the endpoint for a strict JSON object response.
	JSONOnly bool
	// Temperature overrides the client default when >= 0.
	Temperature float64
}

// DefaultOptions uses the client's configured temperature.
func DefaultOptions() Options {
	return Options{Temperature: -1}
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
}

const requestTimeout = 120 * time.Second

func NewClient(baseURL, apiKey, model string, temperature float64) *Client {
	return &Client{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(requestTimeout),
		),
		model:       model,
		temperature: temperature,
	}
}

func (c *Client) buildParams(messages []Message, opts Options) openai.ChatCompletionNewParams {
	chatMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch {
		case len(msg.Images) > 0:
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 1+len(msg.Images))
			if msg.Content != "" {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfText: &openai.ChatCompletionContentPartTextParam{Text: msg.Content},
				})
			}
			for _, img := range msg.Images {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfImageURL: &openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: img},
					},
				})
			}
			chatMessages[i] = openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			}
		case msg.Role == "system":
			chatMessages[i] = openai.SystemMessage(msg.Content)
		case msg.Role == "assistant":
			chatMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			chatMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	temperature := c.temperature
	if opts.Temperature >= 0 {
		temperature = opts.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    chatMessages,
		Temperature: openai.Float(temperature),
	}
	if opts.JSONOnly {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// Complete issues one non-streaming completion and returns the response text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(messages, opts))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream issues a streaming completion, invoking onDelta for every
// non-empty text delta in arrival order.
func (c *Client) CompleteStream(ctx context.Context, messages []Message, opts Options, onDelta func(string)) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(messages, opts))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			onDelta(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("completion stream: %w", err)
	}
	return nil
}
