package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/errors"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestExport_DefaultPath(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := Answer(ctx, env, AnswerInput{ID: "SURG-101", Option: "B"})
	require.NoError(t, err)

	out, err := Export(ctx, env, ExportInput{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(config.ExportsDir(env.BaseDir), "deck-2026-03-01T090000.jsonl"), out.Path)
	require.Equal(t, 3, out.Cards)
	require.Equal(t, 1, out.Subjects)
	require.Equal(t, epoch.Unix(), out.ExportedAt)

	lines := readLines(t, out.Path)
	require.Len(t, lines, 5)
	require.Equal(t, true, lines[0]["_medmastery_export"])
	require.Equal(t, ExportSchemaVersion, lines[0]["schema_version"])

	require.Equal(t, KindCard, lines[1]["kind"])
	require.Equal(t, "FC-1", lines[1]["id"])
	require.Contains(t, lines[1], "efactor")
	require.Contains(t, lines[1], "nextReview")
	require.NotContains(t, lines[1], "subject")

	require.Equal(t, KindProgress, lines[4]["kind"])
	require.Equal(t, "Surgery", lines[4]["subject"])
	require.NotContains(t, lines[4], "id")

	info, err := os.Stat(out.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(config.ExportsDir(env.BaseDir), "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestExport_CategoryFilter(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Export(context.Background(), env, ExportInput{Category: "Trauma", ExcludeProgress: true})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "deck-trauma-"))
	require.Equal(t, 1, out.Cards)
	require.Zero(t, out.Subjects)
	require.Len(t, readLines(t, out.Path), 2)
}

func TestExport_PathRejected(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := Export(ctx, env, ExportInput{Path: filepath.Join(t.TempDir(), "deck.jsonl")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "outside allowed dirs")

	_, err = Export(ctx, env, ExportInput{Path: filepath.Join(config.ExportsDir(env.BaseDir), "deck.xlsx")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "export is jsonl only")
}

func TestExport_AllowedPath(t *testing.T) {
	env, _ := newTestEnv(t)
	dir := t.TempDir()
	env.Config.AllowedPaths = []string{dir}

	path := filepath.Join(dir, "backup.jsonl")
	out, err := Export(context.Background(), env, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, path, out.Path)

	// Exporting again replaces the file.
	_, err = Export(context.Background(), env, ExportInput{Path: path})
	require.NoError(t, err)
	require.Len(t, readLines(t, path), 4)
}
