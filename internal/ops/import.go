package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/deck"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/progress"
	"github.com/hpungsan/medmastery/internal/srs"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // abort on any collision, nothing written
	ImportModeReplace ImportMode = "replace" // overwrite colliding cards and subjects
	ImportModeRename  ImportMode = "rename"  // fresh id for colliding cards; colliding subjects skipped
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required; .jsonl export or .xlsx sheet
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported         int           `json:"imported"`
	ImportedSubjects int           `json:"imported_subjects"`
	Skipped          int           `json:"skipped"`
	Errors           []ImportError `json:"errors"`
	Warning          string        `json:"warning,omitempty"`
}

// ImportError describes a record that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importBatch is everything parsed from one file.
type importBatch struct {
	cards       []lineCard
	entries     []lineEntry
	parseErrors []ImportError
}

type lineCard struct {
	line int
	card deck.Card
}

type lineEntry struct {
	line  int
	entry progress.Entry
}

// Import merges cards and progress from a file into the deck and tracker.
func Import(ctx context.Context, env *Env, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeRename {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, env.Config, config.ExportsDir(env.BaseDir)); err != nil {
		return nil, err
	}

	unlock, err := env.lock(ctx, "import")
	if err != nil {
		return nil, err
	}
	defer unlock()

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	var batch *importBatch
	if strings.EqualFold(filepath.Ext(input.Path), ".xlsx") {
		batch, err = parseSpreadsheet(env, file)
	} else {
		batch, err = parseExportFile(ctx, env, file)
	}
	if err != nil {
		return nil, err
	}

	if input.Mode == ImportModeError && len(batch.parseErrors) > 0 {
		return &ImportOutput{Errors: batch.parseErrors}, nil
	}

	coll := env.collection(ctx).Clone()
	entries := env.Tracker.Entries(ctx)
	out := &ImportOutput{Errors: batch.parseErrors, Skipped: len(batch.parseErrors)}

	if input.Mode == ImportModeError {
		if collisions := findCollisions(coll, entries, batch); len(collisions) > 0 {
			return &ImportOutput{Errors: collisions}, nil
		}
	}

	for _, lc := range batch.cards {
		card := lc.card
		if input.Mode == ImportModeRename && coll.Has(card.ID) {
			id, err := deck.NewID(env.Now())
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			card.ID = id
		}
		coll.Put(card)
		out.Imported++
	}

	subjectIdx := make(map[string]int, len(entries))
	for i, e := range entries {
		subjectIdx[e.Subject] = i
	}
	for _, le := range batch.entries {
		i, exists := subjectIdx[le.entry.Subject]
		switch {
		case !exists:
			subjectIdx[le.entry.Subject] = len(entries)
			entries = append(entries, le.entry)
		case input.Mode == ImportModeRename:
			out.Errors = append(out.Errors, ImportError{
				Line:    le.line,
				Subject: le.entry.Subject,
				Code:    "SUBJECT_COLLISION",
				Message: fmt.Sprintf("progress for %q already exists; kept the current entry", le.entry.Subject),
			})
			out.Skipped++
			continue
		default:
			entries[i] = le.entry
		}
		out.ImportedSubjects++
	}

	var warnings []string
	if out.Imported > 0 {
		w, err := env.warning(env.Deck.Save(ctx, coll))
		if err != nil {
			return nil, err
		}
		env.resetCollection(coll)
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	if out.ImportedSubjects > 0 {
		w, err := env.warning(env.Tracker.Replace(ctx, entries))
		if err != nil {
			return nil, err
		}
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	out.Warning = strings.Join(warnings, "; ")
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// findCollisions lists every card id and subject in the batch that already
// exists, or appears twice in the batch.
func findCollisions(coll *deck.Collection, entries []progress.Entry, batch *importBatch) []ImportError {
	var out []ImportError
	seen := make(map[string]bool)
	for _, lc := range batch.cards {
		id := lc.card.ID
		if coll.Has(id) || seen[id] {
			out = append(out, ImportError{
				Line:    lc.line,
				ID:      id,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("card with id %q already exists", id),
			})
		}
		seen[id] = true
	}

	subjects := make(map[string]bool, len(entries))
	for _, e := range entries {
		subjects[e.Subject] = true
	}
	for _, le := range batch.entries {
		if subjects[le.entry.Subject] {
			out = append(out, ImportError{
				Line:    le.line,
				Subject: le.entry.Subject,
				Code:    "SUBJECT_COLLISION",
				Message: fmt.Sprintf("progress for %q already exists", le.entry.Subject),
			})
		}
		subjects[le.entry.Subject] = true
	}
	return out
}

// parseExportFile reads a JSONL export. Lines that fail to parse or validate
// become ImportErrors; the header line is skipped.
func parseExportFile(ctx context.Context, env *Env, r io.Reader) (*importBatch, error) {
	batch := &importBatch{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)
	lineNum := 0

	fail := func(code, msg string) {
		batch.parseErrors = append(batch.parseErrors, ImportError{Line: lineNum, Code: code, Message: msg})
	}

	for scanner.Scan() {
		lineNum++
		if lineNum%256 == 0 && ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var probe struct {
			Header bool   `json:"_medmastery_export"`
			Kind   string `json:"kind"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			fail("PARSE_ERROR", fmt.Sprintf("invalid JSON: %v", err))
			continue
		}
		if probe.Header {
			continue
		}

		switch probe.Kind {
		case KindCard:
			var card deck.Card
			if err := json.Unmarshal(line, &card); err != nil {
				fail("PARSE_ERROR", fmt.Sprintf("invalid card: %v", err))
				continue
			}
			if err := card.Normalize(); err != nil {
				fail("INVALID_RECORD", err.Error())
				continue
			}
			if err := env.Deck.Validate(deck.NewCard{Front: card.Front, Back: card.Back}); err != nil {
				fail("INVALID_RECORD", err.Error())
				continue
			}
			batch.cards = append(batch.cards, lineCard{line: lineNum, card: card})
		case KindProgress:
			var e progress.Entry
			if err := json.Unmarshal(line, &e); err != nil {
				fail("PARSE_ERROR", fmt.Sprintf("invalid progress entry: %v", err))
				continue
			}
			if strings.TrimSpace(e.Subject) == "" {
				fail("INVALID_RECORD", "missing subject field")
				continue
			}
			if e.TotalAttempted < 0 || e.CorrectAnswers < 0 || e.CorrectAnswers > e.TotalAttempted {
				fail("INVALID_RECORD", fmt.Sprintf("subject %q: counters out of range", e.Subject))
				continue
			}
			batch.entries = append(batch.entries, lineEntry{line: lineNum, entry: e})
		default:
			fail("INVALID_RECORD", fmt.Sprintf("unknown record kind %q", probe.Kind))
		}
	}

	if err := scanner.Err(); err != nil {
		fail("READ_ERROR", fmt.Sprintf("failed to read file: %v", err))
	}
	return batch, nil
}

// parseSpreadsheet reads cards from the first sheet of an .xlsx workbook:
// column A front, B back, C category, D difficulty; row 1 is a header.
// Every row becomes a new card with a generated id, due immediately.
func parseSpreadsheet(env *Env, r io.Reader) (*importBatch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("not a readable workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewInvalidRequest("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("failed to read sheet %q: %v", sheets[0], err))
	}

	batch := &importBatch{}
	for i, row := range rows {
		lineNum := i + 1
		if i == 0 {
			continue
		}
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}
		nc := deck.NewCard{Front: cell(0), Back: cell(1), Category: cell(2), Difficulty: cell(3)}
		if nc.Front == "" && nc.Back == "" {
			continue
		}
		if err := env.Deck.Validate(nc); err != nil {
			batch.parseErrors = append(batch.parseErrors, ImportError{Line: lineNum, Code: "INVALID_RECORD", Message: err.Error()})
			continue
		}

		now := env.Now()
		id, err := deck.NewID(now)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		card := deck.Card{
			ID:         id,
			Front:      nc.Front,
			Back:       nc.Back,
			Category:   nc.Category,
			Difficulty: nc.Difficulty,
			State:      srs.NewState(now),
		}
		batch.cards = append(batch.cards, lineCard{line: lineNum, card: card})
	}
	return batch, nil
}
