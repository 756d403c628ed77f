package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()

	for _, path := range []string{
		"../backup.jsonl",
		"../../etc/backup.jsonl",
		"/tmp/../etc/backup.jsonl",
		filepath.Join(exportsDir, "..", "backup.jsonl"),
	} {
		err := ValidatePath(path, PathCheckWrite, cfg, exportsDir)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ValidatePath(%q) = %v, want INVALID_REQUEST", path, err)
		}
	}
}

func TestValidatePath_Extensions(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()
	xlsx := filepath.Join(exportsDir, "cards.xlsx")
	if err := os.WriteFile(xlsx, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(xlsx, PathCheckRead, cfg, exportsDir); err != nil {
		t.Errorf("xlsx import rejected: %v", err)
	}
	if err := ValidatePath(filepath.Join(exportsDir, "CARDS.XLSX"), PathCheckWrite, cfg, exportsDir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("xlsx export should be rejected, got %v", err)
	}
	for _, name := range []string{"backup", "backup.json", "backup.txt"} {
		err := ValidatePath(filepath.Join(exportsDir, name), PathCheckWrite, cfg, exportsDir)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("%s: expected INVALID_REQUEST, got %v", name, err)
		}
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()

	if err := ValidatePath(filepath.Join(exportsDir, "deck.jsonl"), PathCheckWrite, cfg, exportsDir); err != nil {
		t.Errorf("exports dir rejected: %v", err)
	}

	err := ValidatePath(filepath.Join(t.TempDir(), "deck.jsonl"), PathCheckWrite, cfg, exportsDir)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("outside allowed dirs: got %v", err)
	}

	nested := filepath.Join(exportsDir, "sub")
	if err := os.Mkdir(nested, 0700); err != nil {
		t.Fatal(err)
	}
	err = ValidatePath(filepath.Join(nested, "deck.jsonl"), PathCheckWrite, cfg, exportsDir)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("nested dir: got %v", err)
	}
}

func TestValidatePath_AllowedPathsAndUnsafe(t *testing.T) {
	exportsDir := t.TempDir()
	other := t.TempDir()
	path := filepath.Join(other, "deck.jsonl")

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{other, "relative/ignored"}
	if err := ValidatePath(path, PathCheckWrite, cfg, exportsDir); err != nil {
		t.Errorf("allowed_paths entry rejected: %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	if err := ValidatePath(path, PathCheckWrite, cfg, exportsDir); err != nil {
		t.Errorf("allow_unsafe_paths: %v", err)
	}
	if err := ValidatePath(path, PathCheckRead, cfg, exportsDir); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file with unsafe paths: got %v", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	exportsDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.jsonl")
	if err := os.WriteFile(target, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(exportsDir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	for _, unsafe := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.AllowUnsafePaths = unsafe
		for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
			if err := ValidatePath(link, mode, cfg, exportsDir); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("unsafe=%v mode=%d: got %v", unsafe, mode, err)
			}
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := map[string]bool{
		"a/b/c.jsonl":    false,
		"a/../c.jsonl":   true,
		"..":             true,
		"a..b.jsonl":     false,
		"/x/y/..":        true,
		"notes..v2.json": false,
	}
	for in, want := range tests {
		if got := containsTraversal(in); got != want {
			t.Errorf("containsTraversal(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := map[string]string{
		"Internal Medicine": "internal-medicine",
		"../../etc":         "etc",
		"a/b\\c":            "a-b-c",
		"":                  "unnamed",
		"tab\there":         "tabhere",
	}
	for in, want := range tests {
		if got := SanitizeForFilename(in); got != want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
