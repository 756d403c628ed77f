package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// DueRequest represents the arguments for deck_due.
type DueRequest struct {
	Category string `json:"category,omitempty"`
}

// NextRequest represents the arguments for deck_next.
type NextRequest struct {
	Reveal bool `json:"reveal,omitempty"`
}

// ReviewRequest represents the arguments for deck_review.
type ReviewRequest struct {
	ID      string `json:"id,omitempty"`
	Rating  string `json:"rating,omitempty"`
	Quality *int   `json:"quality,omitempty"`
}

// FetchRequest represents the arguments for deck_fetch.
type FetchRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for deck_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	DueOnly  bool   `json:"due_only,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// AddRequest represents the arguments for deck_add.
type AddRequest struct {
	ID         string `json:"id,omitempty"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// QuizListRequest represents the arguments for quiz_list.
type QuizListRequest struct {
	Category string `json:"category,omitempty"`
}

// QuizGetRequest represents the arguments for quiz_get.
type QuizGetRequest struct {
	ID string `json:"id"`
}

// QuizAnswerRequest represents the arguments for quiz_answer.
// Option accepts a letter or a JSON number.
type QuizAnswerRequest struct {
	ID     string          `json:"id"`
	Option json.RawMessage `json:"option"`
}

// option flattens the raw option into the string form ops.Answer parses.
func (r QuizAnswerRequest) option() string {
	var s string
	if err := json.Unmarshal(r.Option, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.Option))
}

// ExportRequest represents the arguments for data_export.
type ExportRequest struct {
	Path            string `json:"path,omitempty"`
	Category        string `json:"category,omitempty"`
	ExcludeProgress bool   `json:"exclude_progress,omitempty"`
}

// ImportRequest represents the arguments for data_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleDue handles the deck_due tool call.
func (h *Handlers) HandleDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Due(ctx, h.env, ops.DueInput{Category: input.Category}))
}

// HandleNext handles the deck_next tool call.
func (h *Handlers) HandleNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NextRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Next(ctx, h.env, ops.NextInput{Reveal: input.Reveal}))
}

// HandleFlip handles the deck_flip tool call.
func (h *Handlers) HandleFlip(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.Flip(ctx, h.env))
}

// HandleSkip handles the deck_skip tool call.
func (h *Handlers) HandleSkip(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.Skip(ctx, h.env))
}

// HandleReview handles the deck_review tool call.
func (h *Handlers) HandleReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Review(ctx, h.env, ops.ReviewInput{
		ID:      input.ID,
		Rating:  input.Rating,
		Quality: input.Quality,
	}))
}

// HandleFetch handles the deck_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.FetchCard(ctx, h.env, ops.FetchCardInput{ID: input.ID}))
}

// HandleList handles the deck_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ListCards(ctx, h.env, ops.ListCardsInput{
		Category: input.Category,
		DueOnly:  input.DueOnly,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}))
}

// HandleAdd handles the deck_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.AddCard(ctx, h.env, ops.AddCardInput{
		ID:         input.ID,
		Front:      input.Front,
		Back:       input.Back,
		Category:   input.Category,
		Difficulty: input.Difficulty,
	}))
}

// HandleQuizList handles the quiz_list tool call.
func (h *Handlers) HandleQuizList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.ListQuestions(ctx, h.env, ops.ListQuestionsInput{Category: input.Category}))
}

// HandleQuizGet handles the quiz_get tool call.
func (h *Handlers) HandleQuizGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.GetQuestion(ctx, h.env, input.ID))
}

// HandleQuizAnswer handles the quiz_answer tool call.
func (h *Handlers) HandleQuizAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuizAnswerRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Answer(ctx, h.env, ops.AnswerInput{ID: input.ID, Option: input.option()}))
}

// HandleStats handles the progress_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(ops.Stats(ctx, h.env))
}

// HandleExport handles the data_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Export(ctx, h.env, ops.ExportInput{
		Path:            input.Path,
		Category:        input.Category,
		ExcludeProgress: input.ExcludeProgress,
	}))
}

// HandleImport handles the data_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(ops.Import(ctx, h.env, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	}))
}

// Result helpers

// respond turns an ops result pair into a tool result.
func respond[T any](result T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// INTERNAL errors never carry details; they may hold paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var mErr *errors.MasteryError
	if stderrors.As(err, &mErr) {
		message := mErr.Message
		if prefix := strings.TrimSuffix(err.Error(), mErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    mErr.Code,
			"message": message,
			"status":  mErr.Status,
		}
		if mErr.Code != errors.ErrInternal && mErr.Details != nil {
			errorObj["details"] = mErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
