// Package docsearch provides the document search capability: chunk a
// document, retrieve the sections relevant to a question and answer from
// them with a model call. For large documents this replaces paging through
// the full text with the extraction capability.
package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/extract"
	"github.com/toolturn/toolturn/model"
)

// Name is the capability name exposed to the model.
const Name = "document_search"

// topK is the number of chunks retrieved per question.
const topK = 3

const answerSystemPrompt = `You are a helpful assistant that answers questions based on provided document context.

CRITICAL RULES:
1. Base your answer ONLY on the provided context from the document
2. If the context doesn't contain enough information to answer, say so clearly
3. Do NOT make up information or use knowledge outside the provided context
4. Quote relevant parts of the context when appropriate
5. Be concise but complete in your answers

The context will be provided in the user's message.`

// Options configure the capability.
type Options struct {
	// Deployment selects the model id used for the answering call.
	Deployment string

	// Cache overrides the default 24h document cache.
	Cache *DocumentCache
}

// Capability answers questions about a document. The answer is generated by
// a model call constrained to the retrieved chunks and streamed to the
// capability's own stage as it arrives.
type Capability struct {
	fetcher  extract.Fetcher
	answerer model.Model
	cache    *DocumentCache
	splitter *Splitter
	opts     Options
}

// New creates the capability. A nil fetcher defaults to plain HTTP; the
// answerer model is required.
func New(fetcher extract.Fetcher, answerer model.Model, optFns ...func(*Options)) *Capability {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if fetcher == nil {
		fetcher = &extract.HTTPFetcher{}
	}
	if opts.Cache == nil {
		opts.Cache = NewDocumentCache(0)
	}
	return &Capability{
		fetcher:  fetcher,
		answerer: answerer,
		cache:    opts.Cache,
		splitter: NewSplitter(),
		opts:     opts,
	}
}

func (c *Capability) Name() string { return Name }

func (c *Capability) Description() string {
	return "Searches document content to find and answer specific questions. " +
		"More efficient than full file extraction for large documents when you need " +
		"specific information. Retrieves the relevant sections and generates an answer " +
		"based on them. Use this instead of paginating through large documents when " +
		"looking for specific information."
}

func (c *Capability) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"request": map[string]any{
				"type":        "string",
				"description": "The search query or question to search for in the document",
			},
			"file_url": map[string]any{
				"type":        "string",
				"description": "The URL of the file to search in",
			},
		},
		"required": []string{"request", "file_url"},
	}
}

// WritesOwnStage opts out of the dispatcher's default stage echo; the answer
// streams to the stage as the model produces it.
func (c *Capability) WritesOwnStage() bool { return true }

type arguments struct {
	Request string `json:"request"`
	FileURL string `json:"file_url"`
}

// Execute indexes the document (or reuses the conversation's cached index),
// retrieves the chunks relevant to the question and generates the answer.
func (c *Capability) Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error) {
	result := core.ToolResult{ToolCallID: call.ID, Name: call.Name}

	var args arguments
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return result, fmt.Errorf("docsearch: invalid arguments: %w", err)
	}
	if args.Request == "" || args.FileURL == "" {
		return result, fmt.Errorf("docsearch: request and file_url are required")
	}

	stage := execCtx.Stage
	stage.Append("## Request arguments:\n")
	stage.Append(fmt.Sprintf("**Request**: %s\n", args.Request))
	stage.Append(fmt.Sprintf("**File URL**: %s\n", args.FileURL))

	chunks, err := c.chunksFor(ctx, args.FileURL, execCtx)
	if err != nil {
		return result, err
	}
	if len(chunks) == 0 {
		result.Content = "Error: File content not found or could not be extracted."
		stage.Append(fmt.Sprintf("**Error**: %s\n", result.Content))
		return result, nil
	}

	retrieved := topChunks(args.Request, chunks, topK)
	if len(retrieved) == 0 {
		// Nothing matched lexically; fall back to the document head so the
		// answering model can still say what the document is about.
		retrieved = chunks[:min(topK, len(chunks))]
	}

	prompt := augment(args.Request, retrieved)
	stage.Append("## Search Request:\n")
	stage.Append(fmt.Sprintf("```text\n%s\n```\n", prompt))
	stage.Append("## Response:\n")

	answer, err := c.generate(ctx, prompt, stage)
	if err != nil {
		return result, err
	}

	result.Content = answer
	return result, nil
}

// chunksFor returns the chunked document, splitting at most once per
// conversation and URL.
func (c *Capability) chunksFor(ctx context.Context, fileURL string, execCtx *core.ExecutionContext) ([]string, error) {
	key := execCtx.ConversationID + ":" + fileURL
	if chunks, ok := c.cache.Get(key); ok {
		return chunks, nil
	}

	text, err := c.fetcher.Fetch(ctx, fileURL, execCtx.APIKey)
	if err != nil {
		return nil, err
	}
	chunks := c.splitter.Split(text)
	c.cache.Set(key, chunks)
	return chunks, nil
}

// generate runs the answering model call, streaming content to the stage
// while collecting it.
func (c *Capability) generate(ctx context.Context, prompt string, stage core.Stage) (string, error) {
	fragments, errs := c.answerer.Stream(ctx, model.Request{
		Messages: []core.Message{
			core.NewSystemMessage(answerSystemPrompt),
			core.NewUserMessage(prompt),
		},
		Deployment: c.opts.Deployment,
	})

	var answer strings.Builder
	for fragments != nil || errs != nil {
		select {
		case f, ok := <-fragments:
			if !ok {
				fragments = nil
				continue
			}
			if f.Content != "" {
				stage.Append(f.Content)
				answer.WriteString(f.Content)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return "", fmt.Errorf("docsearch: answer generation: %w", err)
			}
		}
	}
	return answer.String(), nil
}

func augment(request string, chunks []string) string {
	return fmt.Sprintf("Context from document:\n---\n%s\n---\n\nQuestion: %s",
		strings.Join(chunks, "\n---\n"), request)
}
