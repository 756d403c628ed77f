package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/errors"
)

// writeImportFile writes lines into the env's exports dir.
func writeImportFile(t *testing.T, env *Env, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(config.ExportsDir(env.BaseDir), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return path
}

const importHeader = `{"_medmastery_export":true,"schema_version":"1.0","exported_at":1}`

func TestImport_RoundTrip(t *testing.T) {
	src, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := Review(ctx, src, ReviewInput{ID: "FC-2", Rating: "easy"})
	require.NoError(t, err)
	_, err = Answer(ctx, src, AnswerInput{ID: "MED-202", Option: "B"})
	require.NoError(t, err)
	exp, err := Export(ctx, src, ExportInput{})
	require.NoError(t, err)

	dst, _ := newTestEnv(t, WithSeed(nil))
	dst.Config.AllowedPaths = []string{filepath.Dir(exp.Path)}

	out, err := Import(ctx, dst, ImportInput{Path: exp.Path})
	require.NoError(t, err)
	require.Equal(t, 3, out.Imported)
	require.Equal(t, 1, out.ImportedSubjects)
	require.Empty(t, out.Errors)

	card, err := FetchCard(ctx, dst, FetchCardInput{ID: "FC-2"})
	require.NoError(t, err)
	require.Equal(t, 1, card.Interval)
	require.InDelta(t, 2.6, card.EFactor, 1e-9)

	stats, err := Stats(ctx, dst)
	require.NoError(t, err)
	require.Equal(t, 100, stats.OverallAccuracy)
	require.Equal(t, "Internal Medicine", stats.Subjects[0].Subject)
}

func TestImport_ModeError_AbortsOnCollision(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	path := writeImportFile(t, env, "in.jsonl",
		importHeader,
		`{"kind":"card","id":"NEW-1","front":"a","back":"b","category":"Surgery"}`,
		`{"kind":"card","id":"FC-1","front":"dup","back":"dup","category":"Medicine"}`,
	)

	out, err := Import(ctx, env, ImportInput{Path: path})
	require.NoError(t, err)
	require.Zero(t, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "ID_COLLISION", out.Errors[0].Code)
	require.Equal(t, 3, out.Errors[0].Line)

	_, err = FetchCard(ctx, env, FetchCardInput{ID: "NEW-1"})
	require.True(t, errors.Is(err, errors.ErrNotFound), "nothing is written in error mode")
}

func TestImport_ModeError_AbortsOnParseError(t *testing.T) {
	env, _ := newTestEnv(t)

	path := writeImportFile(t, env, "bad.jsonl",
		importHeader,
		`{"kind":"card","id":"NEW-1","front":"a","back":"b"}`,
		`not json`,
		`{"kind":"card","id":"NEW-2","front":"a","back":"b","efactor":0.5}`,
		`{"kind":"mystery"}`,
	)

	out, err := Import(context.Background(), env, ImportInput{Path: path})
	require.NoError(t, err)
	require.Zero(t, out.Imported)
	require.Len(t, out.Errors, 3)
	require.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	require.Equal(t, "INVALID_RECORD", out.Errors[1].Code)
	require.Equal(t, "INVALID_RECORD", out.Errors[2].Code)
}

func TestImport_ModeReplace(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	_, err := Answer(ctx, env, AnswerInput{ID: "SURG-101", Option: "A"})
	require.NoError(t, err)

	path := writeImportFile(t, env, "replace.jsonl",
		importHeader,
		`{"kind":"card","id":"FC-1","front":"CURB-65","back":"updated","category":"Medicine","interval":6,"repetition":2,"efactor":2.2,"nextReview":1}`,
		`{"kind":"progress","subject":"Surgery","totalAttempted":10,"correctAnswers":9,"lastAttempted":5}`,
		`nope`,
	)

	out, err := Import(ctx, env, ImportInput{Path: path, Mode: ImportModeReplace})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 1, out.ImportedSubjects)
	require.Equal(t, 1, out.Skipped)

	card, err := FetchCard(ctx, env, FetchCardInput{ID: "FC-1"})
	require.NoError(t, err)
	require.Equal(t, "updated", card.Back)
	require.Equal(t, 6, card.Interval)

	stats, err := Stats(ctx, env)
	require.NoError(t, err)
	require.Len(t, stats.Subjects, 1)
	require.Equal(t, 90, stats.Subjects[0].Accuracy)
	require.Equal(t, 3, stats.DeckSize)
}

func TestImport_ModeRename(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	_, err := Answer(ctx, env, AnswerInput{ID: "SURG-101", Option: "B"})
	require.NoError(t, err)

	path := writeImportFile(t, env, "rename.jsonl",
		importHeader,
		`{"kind":"card","id":"FC-1","front":"copy","back":"copy","category":"Medicine"}`,
		`{"kind":"progress","subject":"Surgery","totalAttempted":3,"correctAnswers":0}`,
		`{"kind":"progress","subject":"Pediatrics","totalAttempted":2,"correctAnswers":1}`,
	)

	out, err := Import(ctx, env, ImportInput{Path: path, Mode: ImportModeRename})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 1, out.ImportedSubjects)
	require.Equal(t, 1, out.Skipped)
	require.Equal(t, "SUBJECT_COLLISION", out.Errors[0].Code)

	list, err := ListCards(ctx, env, ListCardsInput{})
	require.NoError(t, err)
	require.Equal(t, 4, list.Pagination.Total)
	renamed := list.Items[3]
	require.Equal(t, "copy", renamed.Front)
	require.Len(t, renamed.ID, 26)

	original, err := FetchCard(ctx, env, FetchCardInput{ID: "FC-1"})
	require.NoError(t, err)
	require.Equal(t, "CURB-65 Criteria", original.Front)

	stats, err := Stats(ctx, env)
	require.NoError(t, err)
	require.Equal(t, 100, stats.Subjects[0].Accuracy, "existing subject kept")
}

func TestImport_Spreadsheet(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	f := excelize.NewFile()
	rows := [][]any{
		{"Front", "Back", "Category", "Difficulty"},
		{"Kehr sign", "Left shoulder pain (splenic rupture)", "Surgery", "Medium"},
		{"Cullen sign", "Periumbilical bruising", "Surgery"},
		{"Orphan front", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(config.ExportsDir(env.BaseDir), "cards.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := Import(ctx, env, ImportInput{Path: path, Mode: ImportModeRename})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, 4, out.Errors[0].Line)

	due, err := Due(ctx, env, DueInput{Category: "Surgery"})
	require.NoError(t, err)
	require.Equal(t, 3, due.Count, "imported rows are due immediately")
	require.Equal(t, "Kehr sign", due.Cards[1].Front)
	require.Equal(t, "Medium", due.Cards[1].Difficulty)
}

func TestImport_Validation(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := Import(ctx, env, ImportInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Import(ctx, env, ImportInput{Path: "x.jsonl", Mode: "merge"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Import(ctx, env, ImportInput{Path: filepath.Join(config.ExportsDir(env.BaseDir), "missing.jsonl")})
	require.True(t, errors.Is(err, errors.ErrFileNotFound))

	path := writeImportFile(t, env, "notes.txt", "hello")
	_, err = Import(ctx, env, ImportInput{Path: path})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
