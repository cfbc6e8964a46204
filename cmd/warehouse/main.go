// Command warehouse runs puzzles from the command line without starting the server.
//
//	warehouse run [--wide] [--show] [--limit N] FILE   replay the script and print the GPS score
//	warehouse render [--wide] FILE                     print the starting board
//	warehouse analyze [DIR]                            summarise every puzzle in a directory
//
// FILE may be any format the config manager reads (json, yaml, txt, txt.zst),
// or "-" to read the plain text format from stdin.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	if err := newApp(logger).Run(context.Background(), os.Args); err != nil {
		logger.WithError(err).Fatal("warehouse failed")
	}
}

func wideFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "wide",
		Aliases: []string{"w"},
		Usage:   "widen the map so every box becomes double-wide",
	}
}

func newApp(logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "warehouse",
		Usage: "simulate a warehouse robot pushing boxes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logger.SetLevel(logrus.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "replay a puzzle's scripted moves and print the GPS score",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					wideFlag(),
					&cli.BoolFlag{Name: "show", Aliases: []string{"s"}, Usage: "print the final board"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "stop after this many moves (0 runs them all)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPuzzle(ctx, cmd, logger)
				},
			},
			{
				Name:      "render",
				Usage:     "print a puzzle's starting board",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{wideFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return renderPuzzle(cmd, logger)
				},
			},
			{
				Name:      "analyze",
				Usage:     "summarise every puzzle in a directory",
				ArgsUsage: "[DIR]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeDir(cmd, logger)
				},
			},
		},
	}
}

// loadPuzzle reads FILE through a config manager rooted at its directory,
// or parses stdin when path is "-".
func loadPuzzle(cmd *cli.Command, path string, logger logrus.FieldLogger) (*engine.PuzzleConfig, error) {
	wide := cmd.Bool("wide")

	if path == "-" {
		data, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return engine.PuzzleConfigFromInput("stdin", string(data), wide)
	}

	manager, err := config.NewManagerWithLogger(filepath.Dir(path), logger)
	if err != nil {
		return nil, err
	}
	puzzle, err := manager.LoadConfig(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if wide && !puzzle.IsWideLayout() {
		puzzle = puzzle.WithWide(true)
	}
	return puzzle, nil
}

func puzzleArg(cmd *cli.Command) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one FILE argument", cmd.Name)
	}
	return cmd.Args().First(), nil
}

func runPuzzle(ctx context.Context, cmd *cli.Command, logger logrus.FieldLogger) error {
	path, err := puzzleArg(cmd)
	if err != nil {
		return err
	}
	puzzle, err := loadPuzzle(cmd, path, logger)
	if err != nil {
		return err
	}
	sim, err := engine.NewSimulator(puzzle)
	if err != nil {
		return err
	}

	summary, err := sim.RunContext(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"puzzle":    puzzle.Name,
		"executed":  summary.Executed,
		"blocked":   summary.Blocked,
		"remaining": summary.Remaining,
	}).Debug("script finished")

	out := cmd.Root().Writer
	if cmd.Bool("show") {
		fmt.Fprint(out, sim.Grid().String())
		fmt.Fprintf(out, "Moves: %d executed, %d blocked, %d remaining\n", summary.Executed, summary.Blocked, summary.Remaining)
	}
	fmt.Fprintln(out, summary.Score)
	return nil
}

func renderPuzzle(cmd *cli.Command, logger logrus.FieldLogger) error {
	path, err := puzzleArg(cmd)
	if err != nil {
		return err
	}
	puzzle, err := loadPuzzle(cmd, path, logger)
	if err != nil {
		return err
	}
	grid, err := engine.BuildGrid(puzzle.Layout, puzzle.Wide)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprint(out, grid.String())
	fmt.Fprintf(out, "%dx%d, %d boxes, %d moves, GPS score %d\n",
		grid.Width(), grid.Height(), len(engine.BoxPositions(grid)),
		len(engine.DecodeMoves(puzzle.Moves)), engine.ScoreGrid(grid))
	return nil
}

// analyzeDir prints one row per puzzle: size, boxes, script length, the
// narrow and widened scores, and how far the robot starts from a box.
func analyzeDir(cmd *cli.Command, logger logrus.FieldLogger) error {
	dir := "configs"
	if cmd.NArg() > 0 {
		dir = cmd.Args().First()
	}

	manager, err := config.NewManagerWithLogger(dir, logger)
	if err != nil {
		return err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIG\tFORMAT\tSIZE\tBOXES\tMOVES\tSCORE\tWIDE SCORE\tNEAREST BOX")
	for _, info := range infos {
		puzzle, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			logger.WithError(err).WithField("config", info.ConfigID).Warn("skipping config")
			continue
		}

		narrow, nearest, err := replay(puzzle)
		if err != nil {
			return fmt.Errorf("%s: %w", info.ConfigID, err)
		}

		wide := "-"
		if !puzzle.Wide && !puzzle.IsWideLayout() {
			score, _, err := replay(puzzle.WithWide(true))
			if err != nil {
				return fmt.Errorf("%s (wide): %w", info.ConfigID, err)
			}
			wide = fmt.Sprint(score)
		}

		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%d\t%d\t%s\t%s\n",
			info.ConfigID, info.Format, info.Width, info.Height, info.Boxes, info.Moves, narrow, wide, nearest)
	}
	return w.Flush()
}

// replay runs the whole script and reports the score and the distance from
// the starting robot position to the closest box.
func replay(puzzle *engine.PuzzleConfig) (int, string, error) {
	sim, err := engine.NewSimulator(puzzle)
	if err != nil {
		return 0, "", err
	}

	nearest := "-"
	if pos, dist, ok := engine.FindNearestBox(sim.GetState()); ok {
		nearest = fmt.Sprintf("%d (%d,%d)", dist, pos.X, pos.Y)
	}

	return sim.Run().Score, nearest, nil
}
