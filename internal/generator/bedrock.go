package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/pkg/logger"
)

// BedrockGenerator drafts calendar plans through AWS Bedrock (Claude).
// All traffic stays inside AWS; no external API keys are required.
type BedrockGenerator struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockGenerator creates a Bedrock-backed plan generator using the
// default AWS credential chain. Region comes from AWS_REGION, falling
// back to us-east-1.
func NewBedrockGenerator(ctx context.Context, modelID string) (*BedrockGenerator, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	g := &BedrockGenerator{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
	}
	logger.Info("bedrock generator initialized", "model", modelID, "region", region)
	return g, nil
}

// Generate drafts one client-month calendar plan.
func (g *BedrockGenerator) Generate(ctx context.Context, gc Context) (*domain.CalendarPlan, error) {
	prompt, err := BuildPrompt(gc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           systemPrompt,
		Temperature:      0.7,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: prompt}}},
		},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	output, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, ErrGenerationTimeout
		}
		return nil, fmt.Errorf("%w: invoke model: %v", ErrGenerationFailed, err)
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(output.Body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrGenerationFailed, err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	logger.Debug("bedrock draft received",
		"client_id", gc.ClientID,
		"model", g.modelID,
		"stop_reason", parsed.StopReason)

	return parsePlanReply(parsed.Content[0].Text, gc)
}
