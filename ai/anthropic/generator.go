// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package anthropic streams grounded answers over the Anthropic messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/audiomind/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Generator implements ai.Generator using the Anthropic messages API.
type Generator struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if config == nil {
		return nil, errors.New("anthropic: config is required")
	}
	if config.AnthropicAPIKey == "" {
		return nil, errors.New("anthropic: AnthropicAPIKey is required")
	}
	if config.GenerationModel == "" {
		return nil, errors.New("anthropic: GenerationModel is required")
	}

	client, err := anthropic.New(
		anthropic.WithToken(config.AnthropicAPIKey),
		anthropic.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic: create client: %w", err)
	}

	return &Generator{
		client:    client,
		maxTokens: config.MaxTokens,
		logger:    slog.Default().With("component", "anthropic-generator"),
	}, nil
}

// GenerateAnswer streams a grounded answer, forwarding each text fragment
// to onDelta and returning the accumulated text. Empty fragments are
// skipped; a non-nil error from onDelta aborts the stream.
func (g *Generator) GenerateAnswer(ctx context.Context, req ai.GenerateRequest, onDelta func(chunk string) error) (string, error) {
	style := req.Style
	if style == "" {
		style = ai.StyleNormal
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt(style)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt(req.Query, req.Excerpts)),
			},
		},
	}

	var answer strings.Builder
	_, err := g.client.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.maxTokens),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				g.logger.Debug("skipping empty stream chunk")
				return nil
			}
			answer.Write(chunk)
			if onDelta != nil {
				return onDelta(string(chunk))
			}
			return nil
		}),
	)
	if err != nil {
		g.logger.Error("answer generation failed", "err", err)
		return "", fmt.Errorf("anthropic: generate answer: %w", err)
	}

	return answer.String(), nil
}
