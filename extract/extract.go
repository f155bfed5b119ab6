// Package extract provides the file content extraction capability: fetch a
// document by URL and serve its text in fixed-size pages so arbitrarily
// large files stay within the model's working window.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/toolturn/toolturn/core"
)

// PageSize is the number of characters served per page.
const PageSize = 10_000

// Name is the capability name exposed to the model.
const Name = "file_content_extraction"

// Fetcher retrieves the raw text of a document. The api key is the
// per-request caller credential, forwarded as a bearer token by the HTTP
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url, apiKey string) (string, error)
}

// HTTPFetcher fetches documents over plain HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, apiKey string) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("extract: build request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("extract: read body: %w", err)
	}
	return string(body), nil
}

// Capability serves paginated document text. It manages its own stage
// rendering instead of the dispatcher's default argument echo.
type Capability struct {
	fetcher Fetcher
}

// New creates the capability over the given fetcher. A nil fetcher defaults
// to plain HTTP.
func New(fetcher Fetcher) *Capability {
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	return &Capability{fetcher: fetcher}
}

func (c *Capability) Name() string { return Name }

func (c *Capability) Description() string {
	return "Extracts text content from a file URL. Supports pagination for large files: " +
		"each page is 10,000 characters. If the response includes 'Page #X. Total pages: Y', " +
		"you can request additional pages. For large documents where you need specific " +
		"information, prefer the document search capability instead of extracting all pages."
}

func (c *Capability) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_url": map[string]any{
				"type":        "string",
				"description": "The URL of the file to extract content from",
			},
			"page": map[string]any{
				"type":        "integer",
				"description": "For large documents pagination is enabled. Each page consists of 10000 characters. Default is 1.",
				"default":     1,
			},
		},
		"required": []string{"file_url"},
	}
}

// WritesOwnStage opts out of the dispatcher's default stage echo.
func (c *Capability) WritesOwnStage() bool { return true }

type arguments struct {
	FileURL string `json:"file_url"`
	Page    int    `json:"page"`
}

// Execute fetches the document and returns the requested page, with a
// pagination footer whenever the document spans more than one page.
func (c *Capability) Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error) {
	result := core.ToolResult{ToolCallID: call.ID, Name: call.Name}

	var args arguments
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return result, fmt.Errorf("extract: invalid arguments: %w", err)
	}
	if args.FileURL == "" {
		return result, fmt.Errorf("extract: file_url is required")
	}
	if args.Page == 0 {
		args.Page = 1
	}

	stage := execCtx.Stage
	stage.Append("## Request arguments:\n")
	stage.Append(fmt.Sprintf("**File URL**: %s\n", args.FileURL))
	if args.Page > 1 {
		stage.Append(fmt.Sprintf("**Page**: %d\n", args.Page))
	}
	stage.Append("## Response:\n")

	text, err := c.fetcher.Fetch(ctx, args.FileURL, execCtx.APIKey)
	if err != nil {
		return result, err
	}

	content := Paginate(text, args.Page)
	stage.Append(fmt.Sprintf("```text\n%s\n```\n", content))

	result.Content = content
	return result, nil
}

// Paginate slices the text into PageSize character pages and returns the
// requested one. Single-page documents pass through unchanged; an
// out-of-range page returns an error message the model can react to.
func Paginate(text string, page int) string {
	if text == "" {
		return "Error: File content not found."
	}
	runes := []rune(text)
	if len(runes) <= PageSize {
		return text
	}

	totalPages := (len(runes) + PageSize - 1) / PageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		return fmt.Sprintf("Error: Page %d does not exist. Total pages: %d", page, totalPages)
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(runes) {
		end = len(runes)
	}
	return fmt.Sprintf("%s\n\n**Page #%d. Total pages: %d**", string(runes[start:end]), page, totalPages)
}
