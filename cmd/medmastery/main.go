package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/mcp"
	"github.com/hpungsan/medmastery/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"due": true, "next": true, "flip": true, "skip": true,
	"review": true, "study": true, "cards": true, "card": true, "add": true,
	"questions": true, "question": true, "answer": true, "stats": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
   __  __          _ __  __           _
  |  \/  | ___  __| |  \/  | __ _ ___| |_ ___ _ __ _   _
  | |\/| |/ _ \/ _' | |\/| |/ _' / __| __/ _ \ '__| | | |
  | |  | |  __/ (_| | |  | | (_| \__ \ ||  __/ |  | |_| |
  |_|  |_|\___|\__,_|_|  |_|\__,_|___/\__\___|_|   \__, |
                                                   |___/
  Spaced-repetition flashcards and exam vignettes

  Usage: medmastery <command> [options]
         medmastery study
         medmastery serve
         medmastery --help

  MCP server mode requires piped input.`)
}

// openEnv opens the store under the base directory. When the database cannot
// be opened the deck runs from memory for this process only.
func openEnv() (*ops.Env, func(), error) {
	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		log.Printf("warning: database unavailable, progress will not be saved: %v", err)
		return ops.NewEnv(db.NewMemoryKV(), cfg, baseDir), func() {}, nil
	}
	db.ConfigurePool(database, cfg)

	env := ops.NewEnv(db.NewSQLiteKV(database), cfg, baseDir)
	return env, func() { database.Close() }, nil
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// A missing .env is fine; MEDMASTERY_HOME may come from the shell.
	_ = godotenv.Load()

	env, closeEnv, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeEnv()

	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			closeEnv()
			os.Exit(1)
		}
		return
	}

	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'medmastery --help' for usage.\n")
		closeEnv()
		os.Exit(1)
	}

	if err := mcp.Run(env, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeEnv()
		os.Exit(1)
	}
}
