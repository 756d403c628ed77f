package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/deck"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/progress"
)

// ExportSchemaVersion is written into every export header.
const ExportSchemaVersion = "1.0"

// Export record kinds.
const (
	KindCard     = "card"
	KindProgress = "progress"
)

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	MedmasteryExport bool   `json:"_medmastery_export"`
	SchemaVersion    string `json:"schema_version"`
	ExportedAt       int64  `json:"exported_at"`
	Cards            int    `json:"cards"`
	Subjects         int    `json:"subjects"`
}

// ExportRecord is one data line: a card or a progress entry, in the same
// field layout the KV documents use.
type ExportRecord struct {
	Kind string `json:"kind"`
	*deck.Card
	*progress.Entry
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path            string // optional, default: <base>/exports/deck-<timestamp>.jsonl
	Category        string // optional card filter; progress is always exported in full
	ExcludeProgress bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Cards      int    `json:"cards"`
	Subjects   int    `json:"subjects"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the deck and progress to a JSONL file. The file is written to
// a temp sibling and renamed into place, so an existing export survives a failure.
func Export(ctx context.Context, env *Env, input ExportInput) (*ExportOutput, error) {
	unlock, err := env.lock(ctx, "export")
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := env.Now()
	exportsDir := config.ExportsDir(env.BaseDir)

	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(exportsDir, input.Category, now)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, env.Config, exportsDir); err != nil {
		return nil, err
	}

	var cards []deck.Card
	for _, c := range env.collection(ctx).Cards() {
		if input.Category == "" || strings.EqualFold(c.Category, input.Category) {
			cards = append(cards, c)
		}
	}
	var entries []progress.Entry
	if !input.ExcludeProgress {
		entries = env.Tracker.Entries(ctx)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		MedmasteryExport: true,
		SchemaVersion:    ExportSchemaVersion,
		ExportedAt:       now.Unix(),
		Cards:            len(cards),
		Subjects:         len(entries),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}
	for i := range cards {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("export")
		}
		if err := enc.Encode(ExportRecord{Kind: KindCard, Card: &cards[i]}); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	for i := range entries {
		if err := enc.Encode(ExportRecord{Kind: KindProgress, Entry: &entries[i]}); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before the rename; Windows refuses to rename open files.
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted after validation.
	if isSymlink(exportPath) {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Cards:      len(cards),
		Subjects:   len(entries),
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath builds <exportsDir>/deck[-<category>]-<timestamp>.jsonl.
func defaultExportPath(exportsDir, category string, now time.Time) string {
	name := "deck"
	if category != "" {
		name += "-" + SanitizeForFilename(category)
	}
	return filepath.Join(exportsDir, fmt.Sprintf("%s-%s.jsonl", name, now.UTC().Format("2006-01-02T150405")))
}
