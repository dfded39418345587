package llm

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/pkg/errors"
	"github.com/reelforge/reelforge/common/config"
)

// BedrockClient runs Anthropic models through AWS Bedrock.
type BedrockClient struct {
	modelId string
	client  *bedrockruntime.Client
}

func NewBedrockClient(region string, modelId string) (*BedrockClient, error) {
	if modelId == "" {
		return nil, errors.New("bedrock model id is not configured")
	}
	if config.AwsAccessKey != "" && config.AwsSecretKey != "" {
		return &BedrockClient{
			modelId: modelId,
			client: bedrockruntime.New(bedrockruntime.Options{
				Region:      region,
				Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(config.AwsAccessKey, config.AwsSecretKey, "")),
			}),
		}, nil
	}
	// no static keys, fall back to the ambient credential chain
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return &BedrockClient{
		modelId: modelId,
		client:  bedrockruntime.NewFromConfig(cfg),
	}, nil
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *BedrockClient) CompleteText(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4096,
		System:           systemPrompt,
		Messages: []bedrockMessage{
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	awsResp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelId),
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", errors.Wrap(err, "InvokeModel")
	}

	var response bedrockResponse
	if err := json.Unmarshal(awsResp.Body, &response); err != nil {
		return "", errors.Wrap(err, "unmarshal response")
	}
	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("bedrock response contains no text block")
	}
	return text, nil
}
