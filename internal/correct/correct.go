// Package correct cleans up raw transcripts with an LLM hosted on
// Amazon Bedrock. Correction is optional and strictly best-effort: the
// orchestrator delivers the raw transcript whenever correction fails.
package correct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/chaz8081/dictator/internal/config"
)

// systemPrompt instructs the model to act as a copy editor, not an
// assistant: it must never answer the dictated text, only clean it.
const systemPrompt = `You clean up dictated speech transcripts. Fix punctuation, capitalization, and obvious transcription errors. Remove filler words (um, uh, like) and false starts. Do not change the meaning, do not answer questions in the text, and do not add anything. Return only the cleaned text.`

const maxTokens = 1024

// converseAPI is the slice of the Bedrock runtime client the corrector uses.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockCorrector sends transcripts through a Bedrock-hosted model.
type BedrockCorrector struct {
	client  converseAPI
	modelID string
}

// New creates a BedrockCorrector using the default AWS credential chain.
func New(ctx context.Context, cfg *config.CorrectConfig) (*BedrockCorrector, error) {
	if cfg.ModelID == "" {
		return nil, errors.New("correct: model ID is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("correct: loading AWS config: %w", err)
	}

	slog.Debug("bedrock corrector ready", "model_id", cfg.ModelID, "region", awsCfg.Region)

	return &BedrockCorrector{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// Correct returns a cleaned version of text. The raw text is returned
// untouched to the caller's discretion on any failure.
func (c *BedrockCorrector) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("correct: empty transcript")
	}

	out, err := c.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(maxTokens),
		},
	})
	if err != nil {
		return "", fmt.Errorf("correct: converse failed: %w", err)
	}

	cleaned, err := extractText(out)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return "", errors.New("correct: model returned empty text")
	}
	return cleaned, nil
}

// extractText pulls the first text block out of a Converse response.
func extractText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("correct: unexpected output type %T", out.Output)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return strings.TrimSpace(text.Value), nil
		}
	}
	return "", errors.New("correct: response contained no text block")
}
