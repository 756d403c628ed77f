package main

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/ops"
	"github.com/hpungsan/medmastery/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "medmastery",
		Usage:   "Spaced-repetition flashcards and exam vignettes",
		Version: Version,
		Commands: []*cli.Command{
			dueCmd(env),
			nextCmd(env),
			flipCmd(env),
			skipCmd(env),
			reviewCmd(env),
			studyCmd(env),
			cardsCmd(env),
			cardCmd(env),
			addCmd(env),
			questionsCmd(env),
			questionCmd(env),
			answerCmd(env),
			statsCmd(env),
			exportCmd(env),
			importCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func dueCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "due",
		Usage: "List cards due for review",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Due(c.Context, env, ops.DueInput{Category: c.String("category")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func nextCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Show the card under the review cursor",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reveal", Aliases: []string{"r"}, Usage: "Include the back of the card"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Next(c.Context, env, ops.NextInput{Reveal: c.Bool("reveal")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func flipCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "flip",
		Usage: "Turn the current card over",
		Action: func(c *cli.Context) error {
			output, err := ops.Flip(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func skipCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "skip",
		Usage: "Move past the current card without rating it",
		Action: func(c *cli.Context) error {
			output, err := ops.Skip(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// reviewCmd rates a card. Without an id it rates the current session card.
func reviewCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Rate a card (the current card when no id is given)",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rating", Aliases: []string{"r"}, Usage: "again|hard|good|easy or 0-5"},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: "Raw SM-2 quality 0-5 (overrides --rating)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ReviewInput{
				ID:     c.Args().First(),
				Rating: c.String("rating"),
			}
			if c.IsSet("quality") {
				q := c.Int("quality")
				input.Quality = &q
			}

			output, err := ops.Review(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// studyCmd runs an interactive review loop over the session cursor.
func studyCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "study",
		Usage: "Review due cards interactively (enter flips, then again|hard|good|easy; s skips, q quits)",
		Action: func(c *cli.Context) error {
			reviewed, err := studyLoop(c.Context, env, c.App.Reader, c.App.Writer)
			if err != nil {
				return outputError(err)
			}
			fmt.Fprintf(c.App.Writer, "Reviewed %d card(s).\n", reviewed)
			return nil
		},
	}
}

// studyLoop prompts for each due card until the session is empty, the input
// ends, or the user quits. It returns the number of cards rated.
func studyLoop(ctx context.Context, env *ops.Env, in io.Reader, out io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	reviewed := 0

	for {
		view, err := ops.Next(ctx, env, ops.NextInput{})
		if err != nil {
			return reviewed, err
		}
		if view.Empty {
			fmt.Fprintln(out, "Nothing due. Well done.")
			return reviewed, nil
		}

		if view.Face == "front" {
			fmt.Fprintf(out, "\n[%d/%d] %s (%s)\n> ", view.Position, view.Remaining, view.Card.Front, view.Card.Category)
			if !scanner.Scan() {
				return reviewed, scanner.Err()
			}
			switch cmd := strings.ToLower(strings.TrimSpace(scanner.Text())); cmd {
			case "q", "quit":
				return reviewed, nil
			case "s", "skip":
				if _, err := ops.Skip(ctx, env); err != nil {
					return reviewed, err
				}
				continue
			case "":
				if _, err := ops.Flip(ctx, env); err != nil {
					return reviewed, err
				}
				continue
			default:
				// Rating straight from the front.
				if ok, err := rateCurrent(ctx, env, cmd, out); err != nil {
					return reviewed, err
				} else if ok {
					reviewed++
				}
				continue
			}
		}

		fmt.Fprintf(out, "%s\nrate (again|hard|good|easy)> ", view.Card.Back)
		if !scanner.Scan() {
			return reviewed, scanner.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "q", "quit":
			return reviewed, nil
		case "s", "skip":
			if _, err := ops.Skip(ctx, env); err != nil {
				return reviewed, err
			}
		default:
			ok, err := rateCurrent(ctx, env, cmd, out)
			if err != nil {
				return reviewed, err
			}
			if ok {
				reviewed++
			}
		}
	}
}

// rateCurrent rates the session card. An unrecognized rating is reported and
// leaves the cursor where it is.
func rateCurrent(ctx context.Context, env *ops.Env, rating string, out io.Writer) (bool, error) {
	result, err := ops.Review(ctx, env, ops.ReviewInput{Rating: rating})
	if errors.Is(err, errors.ErrInvalidRequest) {
		fmt.Fprintf(out, "%s\n", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if result.Empty {
		return false, nil
	}
	fmt.Fprintf(out, "%s: next review in %d day(s)\n", result.Card.ID, result.Card.Interval)
	if result.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", result.Warning)
	}
	return true, nil
}

func cardsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "cards",
		Usage: "List cards in the deck",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.BoolFlag{Name: "due", Usage: "Only cards due now"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListCards(c.Context, env, ops.ListCardsInput{
				Category: c.String("category"),
				DueOnly:  c.Bool("due"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func cardCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "card",
		Usage:     "Show one card with its schedule",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("card id is required"))
			}
			output, err := ops.FetchCard(c.Context, env, ops.FetchCardInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// addCmd creates a card. The back may be piped via stdin instead of --back.
func addCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a card to the deck",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "front", Aliases: []string{"f"}, Required: true, Usage: "Prompt side"},
			&cli.StringFlag{Name: "back", Aliases: []string{"b"}, Usage: "Answer side (or pipe via stdin)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category"},
			&cli.StringFlag{Name: "difficulty", Aliases: []string{"d"}, Usage: "Easy|Medium|Hard"},
			&cli.StringFlag{Name: "id", Usage: "Card id (default: generated)"},
		},
		Action: func(c *cli.Context) error {
			back := c.String("back")
			if back == "" && c.App.Reader == os.Stdin && stdinHasData() {
				text, err := readStdin(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				back = text
			}

			output, err := ops.AddCard(c.Context, env, ops.AddCardInput{
				ID:         c.String("id"),
				Front:      c.String("front"),
				Back:       back,
				Category:   c.String("category"),
				Difficulty: c.String("difficulty"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func questionsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "questions",
		Usage: "List clinical vignettes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListQuestions(c.Context, env, ops.ListQuestionsInput{Category: c.String("category")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func questionCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "question",
		Usage:     "Show one vignette without its answer",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("question id is required"))
			}
			output, err := ops.GetQuestion(c.Context, env, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func answerCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "answer",
		Usage:     "Answer a vignette and record the result",
		ArgsUsage: "<id> <option>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: answer <id> <option>"))
			}
			output, err := ops.Answer(c.Context, env, ops.AnswerInput{
				ID:     c.Args().Get(0),
				Option: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func statsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show per-subject accuracy and deck status",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func exportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export cards and progress to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.medmastery/exports/deck-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only export cards in this category"},
			&cli.BoolFlag{Name: "exclude-progress", Usage: "Skip quiz progress records"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env, ops.ExportInput{
				Path:            c.String("path"),
				Category:        c.String("category"),
				ExcludeProgress: c.Bool("exclude-progress"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func importCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards and progress from a JSONL export or an .xlsx sheet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web study UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port %d", port)))
			}
			return web.Run(web.NewServer(env, Version, c.String("bind"), port))
		},
	}
}

// Helper functions

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var mErr *errors.MasteryError
	if stderrors.As(err, &mErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from r.
func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
