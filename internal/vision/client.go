// Package vision calls an external vision model to read a sheet's
// title block when geometric extraction comes up short. One call per
// page, no retries; a failed call degrades to the geometric result.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const defaultModel = "gpt-4o-mini"

// Config holds configuration for the vision client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // Optional (tests)
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// Client wraps the OpenAI SDK for title-block extraction.
type Client struct {
	client openai.Client
	model  string
	logger *slog.Logger
	schema *jsonschema.Schema
}

// New creates a vision client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	schema, err := compileSchema(ExtractionSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extraction schema: %w", err)
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
		schema: schema,
	}, nil
}

// Extract sends a title-block crop to the vision model and parses the
// structured guess. numberHint, when non-empty, is the geometric
// candidate for the model to confirm or correct.
func (c *Client) Extract(ctx context.Context, crop []byte, pageNumber int, numberHint string) (*Result, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(crop)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt()),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(UserPrompt(pageNumber, numberHint)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "sheet_titleblock",
					Strict: openai.Bool(true),
					Schema: ExtractionSchema,
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("vision call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision call returned no choices")
	}

	result, err := c.parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("vision extraction",
		"page", pageNumber,
		"number", result.SheetNumber,
		"title", result.SheetTitle,
		"duration", time.Since(start),
	)
	return result, nil
}

// parseResult decodes the model output, with lightweight recovery for
// markdown code fences, and validates it against the schema.
func (c *Client) parseResult(content string) (*Result, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return nil, fmt.Errorf("empty vision response")
	}
	if stripped := stripCodeFences(raw); stripped != "" {
		raw = stripped
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("vision response does not match schema: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	result.SheetNumber = strings.TrimSpace(result.SheetNumber)
	result.SheetTitle = strings.TrimSpace(result.SheetTitle)
	return &result, nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}
