// Command simulate plays many seeded rounds of a preset in-process and
// prints how a strategy fares: win rate, scores, tile reached or attempts
// needed. Rounds can be written to the SQLite results store to seed a
// leaderboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/puzzlebox/game/config"
	"github.com/wricardo/puzzlebox/game/engine"
	"github.com/wricardo/puzzlebox/game/results"
	"golang.org/x/sync/errgroup"
)

// Options configures a simulation run
type Options struct {
	ConfigDir string
	ConfigID  string
	Strategy  string
	Games     int
	Seed      uint64
	MaxMoves  int
	Workers   int
}

// Round is the outcome of one simulated round
type Round struct {
	Index    int
	Won      bool
	Score    int
	MaxTile  int
	Moves    int
	Duration time.Duration
}

// Summary aggregates rounds of one preset
type Summary struct {
	ConfigID string
	Kind     engine.GameKind
	Strategy string
	Rounds   []Round
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("simulate")
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "autoplay seeded rounds of a preset and report statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "classic", Usage: "preset to play"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "merge: random, corner, greedy; match: random, memory"},
			&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 100, Usage: "number of rounds"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "seed of the first round"},
			&cli.IntFlag{Name: "max-moves", Value: 20000, Usage: "stop a round after this many inputs"},
			&cli.IntFlag{Name: "workers", Usage: "rounds played in parallel (default: number of CPUs)"},
			&cli.StringFlag{Name: "results-db", Usage: "record rounds into this SQLite file", Sources: cli.EnvVars("RESULTS_DB")},
			&cli.BoolFlag{Name: "debug", Usage: "log every round"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			opts := Options{
				ConfigDir: cmd.String("config-dir"),
				ConfigID:  cmd.String("config"),
				Strategy:  cmd.String("strategy"),
				Games:     int(cmd.Int("games")),
				Seed:      uint64(cmd.Int("seed")),
				MaxMoves:  int(cmd.Int("max-moves")),
				Workers:   int(cmd.Int("workers")),
			}

			summary, err := Run(ctx, opts)
			if err != nil {
				return err
			}
			summary.Print(out)

			if path := cmd.String("results-db"); path != "" {
				return record(ctx, path, summary)
			}
			return nil
		},
	}
}

// Run plays opts.Games rounds. Round i is seeded with opts.Seed+i, so a
// summary does not depend on the number of workers.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	if opts.MaxMoves <= 0 {
		opts.MaxMoves = 20000
	}

	manager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	preset, err := manager.LoadConfig(opts.ConfigID)
	if err != nil {
		return nil, err
	}

	// fail fast on a bad strategy name
	switch preset.Kind {
	case engine.KindMerge:
		_, err = newMergePlayer(opts.Strategy, engine.NewRand(0))
	case engine.KindMatch:
		_, err = newMatchPlayer(opts.Strategy, engine.NewRand(0))
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ConfigID: opts.ConfigID,
		Kind:     preset.Kind,
		Strategy: opts.Strategy,
		Rounds:   make([]Round, opts.Games),
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Games; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := opts.Seed + uint64(i)
			round, err := playRound(preset, opts.Strategy, seed, opts.MaxMoves)
			if err != nil {
				return err
			}
			round.Index = i
			summary.Rounds[i] = round
			log.Debug().Int("round", i).Uint64("seed", seed).Bool("won", round.Won).Int("score", round.Score).Int("moves", round.Moves).Msg("round finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func playRound(preset *engine.GameConfig, strategy string, seed uint64, maxMoves int) (Round, error) {
	start := time.Now()
	grid, match, err := engine.NewEngineForConfig(preset, engine.NewRand(seed))
	if err != nil {
		return Round{}, err
	}
	playerRng := engine.NewRand(^seed)

	var round Round
	if grid != nil {
		player, err := newMergePlayer(strategy, playerRng)
		if err != nil {
			return Round{}, err
		}
		round = playMerge(grid, player, maxMoves)
	} else {
		player, err := newMatchPlayer(strategy, playerRng)
		if err != nil {
			return Round{}, err
		}
		round = playMatch(match, player, maxMoves)
	}
	round.Duration = time.Since(start)
	return round, nil
}

func playMerge(e *engine.GridEngine, player mergePlayer, maxMoves int) Round {
	for i := 0; i < maxMoves && !e.State().IsOver; i++ {
		e.Move(player.Next(e))
	}
	state := e.State()
	return Round{Won: state.IsWon, Score: state.Score, MaxTile: state.MaxTile, Moves: state.Moves}
}

func playMatch(e *engine.MatchEngine, player matchPlayer, maxMoves int) Round {
	for i := 0; i < maxMoves && !e.IsWon(); i++ {
		id := player.Next(e.State())
		outcome, token := e.Select(id)
		if outcome == engine.SelectRejected {
			break
		}
		player.Observe(e.State())
		if token != nil {
			e.ResolveMismatch(*token)
		}
	}
	return Round{Won: e.IsWon(), Score: e.Pairs(), Moves: e.Attempts()}
}

// Wins counts won rounds
func (s *Summary) Wins() int {
	wins := 0
	for _, r := range s.Rounds {
		if r.Won {
			wins++
		}
	}
	return wins
}

// Print writes a human-readable report
func (s *Summary) Print(w io.Writer) {
	n := len(s.Rounds)
	if n == 0 {
		fmt.Fprintln(w, "no rounds played")
		return
	}

	var scoreSum, movesSum, best int
	tiles := make(map[int]int)
	for _, r := range s.Rounds {
		scoreSum += r.Score
		movesSum += r.Moves
		if r.Score > best {
			best = r.Score
		}
		tiles[r.MaxTile]++
	}

	strategy := s.Strategy
	if strategy == "" {
		strategy = "default"
	}
	fmt.Fprintf(w, "=== %s (%s, strategy: %s) ===\n", s.ConfigID, s.Kind, strategy)
	fmt.Fprintf(w, "Rounds:     %d\n", n)
	fmt.Fprintf(w, "Wins:       %d (%.1f%%)\n", s.Wins(), 100*float64(s.Wins())/float64(n))

	if s.Kind == engine.KindMatch {
		fmt.Fprintf(w, "Attempts:   %.1f on average\n", float64(movesSum)/float64(n))
		return
	}

	fmt.Fprintf(w, "Score:      %.1f on average, best %d\n", float64(scoreSum)/float64(n), best)
	fmt.Fprintf(w, "Moves:      %.1f on average\n", float64(movesSum)/float64(n))

	values := make([]int, 0, len(tiles))
	for v := range tiles {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d×%d", v, tiles[v]))
	}
	fmt.Fprintf(w, "Max tiles:  %s\n", strings.Join(parts, "  "))
}

func record(ctx context.Context, path string, s *Summary) error {
	store, err := results.NewSQLiteStore(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	finished := time.Now()
	for _, r := range s.Rounds {
		outcome := results.OutcomeOver
		if r.Won {
			outcome = results.OutcomeWon
		}
		err := store.Record(ctx, &results.Result{
			SessionID:  fmt.Sprintf("sim-%04d", r.Index),
			Kind:       s.Kind,
			ConfigID:   s.ConfigID,
			Outcome:    outcome,
			Score:      r.Score,
			MaxTile:    r.MaxTile,
			Moves:      r.Moves,
			Duration:   r.Duration,
			FinishedAt: finished,
		})
		if err != nil {
			return fmt.Errorf("record round %d: %w", r.Index, err)
		}
	}
	log.Info().Str("db", path).Int("rounds", len(s.Rounds)).Msg("rounds recorded")
	return nil
}
