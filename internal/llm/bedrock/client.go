package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"llm-service/internal/llm"
)

const (
	providerName    = "bedrock"
	bedrockVersion  = "bedrock-2023-05-31"
	jsonContentType = "application/json"
)

var retryableCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"ModelTimeoutException":       true,
	"ModelNotReadyException":      true,
	"InternalServerException":     true,
}

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client implements llm.Provider for Anthropic models hosted on AWS Bedrock.
type Client struct {
	api     invoker
	modelID string
}

// New loads the default AWS configuration and builds a Bedrock runtime client.
func New(ctx context.Context, region, modelID string) (*Client, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("BEDROCK_MODEL_ID is required")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{api: bedrockruntime.NewFromConfig(cfg), modelID: modelID}, nil
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func (c *Client) Name() string { return providerName }

// TemperatureRange reports the Anthropic-on-Bedrock temperature bounds.
func (c *Client) TemperatureRange() (float64, float64) { return 0, 1 }

func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (llm.GeneratedText, error) {
	payload, err := json.Marshal(invokeRequest{
		AnthropicVersion: bedrockVersion,
		MaxTokens:        input.MaxTokens,
		Temperature:      input.Temperature,
		Messages:         []message{{Role: "user", Content: input.Prompt}},
	})
	if err != nil {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "marshal request", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String(jsonContentType),
		Accept:      aws.String(jsonContentType),
		Body:        payload,
	})
	if err != nil {
		return llm.GeneratedText{}, classify(err)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response parse", err)
	}
	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.GeneratedText{}, llm.NewProviderError(providerName, "response empty content", nil)
	}
	result := llm.GeneratedText{Text: text, ProviderID: providerName}
	if parsed.Usage != nil {
		result.TokensGenerated = llm.IntPtr(parsed.Usage.OutputTokens)
	}
	return result, nil
}

func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			Provider:  providerName,
			Msg:       fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()),
			Err:       err,
			Retryable: retryableCodes[apiErr.ErrorCode()],
		}
	}
	return &llm.ProviderError{
		Provider:  providerName,
		Msg:       "invoke model",
		Err:       err,
		Retryable: !errors.Is(err, context.Canceled),
	}
}

var (
	_ llm.Provider         = (*Client)(nil)
	_ llm.TemperatureRange = (*Client)(nil)
)
