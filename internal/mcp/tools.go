package mcp

import "github.com/mark3labs/mcp-go/mcp"

var dueToolDef = mcp.NewTool("deck_due",
	mcp.WithDescription("List flashcards due for review now, in deck order."),
	mcp.WithString("category", mcp.Description("Only cards in this category (case-insensitive)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var nextToolDef = mcp.NewTool("deck_next",
	mcp.WithDescription("Show the card under the review cursor. The back is hidden until the card is flipped."),
	mcp.WithBoolean("reveal", mcp.Description("Include the back regardless of the visible face")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var flipToolDef = mcp.NewTool("deck_flip",
	mcp.WithDescription("Flip the current card between front and back."),
)

var skipToolDef = mcp.NewTool("deck_skip",
	mcp.WithDescription("Move the review cursor to the next due card without rating."),
)

var reviewToolDef = mcp.NewTool("deck_review",
	mcp.WithDescription("Rate a card and reschedule it with SM-2. Without an id the current session card is rated and the cursor advances."),
	mcp.WithString("id", mcp.Description("Card id; omit to rate the session's current card")),
	mcp.WithString("rating", mcp.Description("again, hard, good, easy, or a digit 0-5"), mcp.Enum("again", "hard", "good", "easy", "0", "1", "2", "3", "4", "5")),
	mcp.WithNumber("quality", mcp.Description("Quality 0-5; takes precedence over rating and is clamped"), mcp.Min(0), mcp.Max(5)),
)

var fetchToolDef = mcp.NewTool("deck_fetch",
	mcp.WithDescription("Fetch one flashcard with its scheduling state."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var listToolDef = mcp.NewTool("deck_list",
	mcp.WithDescription("List flashcards in deck order with pagination."),
	mcp.WithString("category", mcp.Description("Only cards in this category (case-insensitive)")),
	mcp.WithBoolean("due_only", mcp.Description("Only cards due now")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var addToolDef = mcp.NewTool("deck_add",
	mcp.WithDescription("Add a new flashcard. It is due immediately."),
	mcp.WithString("front", mcp.Required(), mcp.Description("Prompt side")),
	mcp.WithString("back", mcp.Required(), mcp.Description("Answer side (markdown)")),
	mcp.WithString("category", mcp.Description("Subject category")),
	mcp.WithString("difficulty", mcp.Description("Easy, Medium or Hard")),
	mcp.WithString("id", mcp.Description("Explicit id; a ULID is generated when omitted")),
)

var quizListToolDef = mcp.NewTool("quiz_list",
	mcp.WithDescription("List clinical vignettes without their answer keys."),
	mcp.WithString("category", mcp.Description("Only vignettes in this category (case-insensitive)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var quizGetToolDef = mcp.NewTool("quiz_get",
	mcp.WithDescription("Show one clinical vignette without its answer key."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Vignette id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var quizAnswerToolDef = mcp.NewTool("quiz_answer",
	mcp.WithDescription("Answer a vignette. Records the attempt under the vignette's subject and returns the explanation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Vignette id")),
	mcp.WithString("option", mcp.Required(), mcp.Description("Option letter (A-E) or zero-based index")),
)

var statsToolDef = mcp.NewTool("progress_stats",
	mcp.WithDescription("Per-subject accuracy, overall accuracy, and deck status."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("data_export",
	mcp.WithDescription("Export cards and progress to a JSONL file."),
	mcp.WithString("path", mcp.Description("Target .jsonl path; defaults to the exports directory")),
	mcp.WithString("category", mcp.Description("Only export cards in this category")),
	mcp.WithBoolean("exclude_progress", mcp.Description("Leave subject progress out of the export")),
)

var importToolDef = mcp.NewTool("data_import",
	mcp.WithDescription("Import cards and progress from a JSONL export, or cards from an .xlsx sheet (front, back, category, difficulty columns)."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl or .xlsx path")),
	mcp.WithString("mode", mcp.Description("Collision handling"), mcp.Enum("error", "replace", "rename")),
	mcp.WithDestructiveHintAnnotation(true),
)
