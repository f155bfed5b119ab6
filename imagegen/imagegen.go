// Package imagegen provides the image generation capability backed by the
// OpenAI Images API. Generated images travel back as attachments and as
// markdown in the result content so they surface in the assistant message.
package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/toolturn/toolturn/core"
)

// Name is the capability name exposed to the model.
const Name = "generate_image"

// Options configure the capability.
type Options struct {
	// Model is the image model id; defaults to DALL-E 3.
	Model openai.ImageModel
}

// generateFunc is the API call, replaceable in tests.
type generateFunc func(ctx context.Context, params openai.ImageGenerateParams) (*openai.ImagesResponse, error)

// Capability generates images from text prompts.
type Capability struct {
	generate generateFunc
	opts     Options
}

// New creates the capability over an OpenAI client.
func New(client *openai.Client, optFns ...func(*Options)) *Capability {
	c := newWithGenerate(func(ctx context.Context, params openai.ImageGenerateParams) (*openai.ImagesResponse, error) {
		return client.Images.Generate(ctx, params)
	}, optFns...)
	return c
}

func newWithGenerate(generate generateFunc, optFns ...func(*Options)) *Capability {
	opts := Options{Model: openai.ImageModelDallE3}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Capability{generate: generate, opts: opts}
}

func (c *Capability) Name() string { return Name }

func (c *Capability) Description() string {
	return "Generate images from a detailed text prompt. " +
		"Optional parameters: size (1024x1024, 1792x1024, 1024x1792), " +
		"quality (standard, hd), style (vivid, natural). " +
		"Use this capability when the user explicitly requests image creation or picture generation."
}

func (c *Capability) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type": "string",
				"description": "Extensive description of the image that should be generated. " +
					"Be specific about subject, style, composition, colors, lighting, etc.",
			},
			"size": map[string]any{
				"type":        "string",
				"description": "Image dimensions (1024x1024 square, 1792x1024 wide, or 1024x1792 tall)",
				"enum":        []string{"1024x1024", "1792x1024", "1024x1792"},
			},
			"quality": map[string]any{
				"type":        "string",
				"description": "Image quality: 'standard' for normal, 'hd' for finer details and consistency",
				"enum":        []string{"standard", "hd"},
			},
			"style": map[string]any{
				"type":        "string",
				"description": "Image style: 'vivid' for hyper-realistic/dramatic, 'natural' for more realistic/subtle",
				"enum":        []string{"vivid", "natural"},
			},
		},
		"required": []string{"prompt"},
	}
}

type arguments struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

// Execute generates the image and returns it as an attachment plus markdown
// content.
func (c *Capability) Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error) {
	result := core.ToolResult{ToolCallID: call.ID, Name: call.Name}

	var args arguments
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return result, fmt.Errorf("imagegen: invalid arguments: %w", err)
	}
	if args.Prompt == "" {
		return result, fmt.Errorf("imagegen: prompt is required")
	}

	params := openai.ImageGenerateParams{
		Prompt: args.Prompt,
		Model:  c.opts.Model,
		N:      openai.Int(1),
	}
	if args.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(args.Size)
	}
	if args.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(args.Quality)
	}
	if args.Style != "" {
		params.Style = openai.ImageGenerateParamsStyle(args.Style)
	}

	resp, err := c.generate(ctx, params)
	if err != nil {
		return result, fmt.Errorf("imagegen: %w", err)
	}
	if len(resp.Data) == 0 {
		return result, fmt.Errorf("imagegen: no image returned")
	}

	var contentParts []string
	contentParts = append(contentParts,
		"The image has been successfully generated according to request and shown to user!")

	for _, img := range resp.Data {
		attachment := core.Attachment{
			Title:    "Generated Image",
			URL:      img.URL,
			MimeType: "image/png",
		}
		if img.URL == "" && img.B64JSON != "" {
			attachment.Data = img.B64JSON
		}
		result.Attachments = append(result.Attachments, attachment)
		if img.URL != "" {
			contentParts = append(contentParts, fmt.Sprintf("![Generated Image](%s)", img.URL))
		}
	}

	result.Content = strings.Join(contentParts, "\n")
	return result, nil
}
