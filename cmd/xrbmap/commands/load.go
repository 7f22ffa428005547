package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	randv2 "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xrbmap/internal/config"
	"github.com/benz9527/xrbmap/lib/id"
	"github.com/benz9527/xrbmap/lib/infra"
	"github.com/benz9527/xrbmap/lib/tree"
	"github.com/benz9527/xrbmap/observability"
	"github.com/benz9527/xrbmap/xlog"
)

const (
	loadCmdUse   = "load"
	loadCmdShort = "Run randomized insert/erase rounds against a map model with invariant checks"
	ctxKeyRound  = "round"
	ctxKeyRunID  = "runId"
	runIDLen     = 12
	// Rounds use the same stats meter, the counters are aggregated.
	loadStatsName    = "load"
	lowerBoundProbes = 16
)

var ErrWorkloadDiverged = errors.New("[load] tree diverges from the model")

// NewLoadCommand creates the load subcommand.
func NewLoadCommand(opts *GlobalOptions) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   loadCmdUse,
		Short: loadCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Load.Seed = seed
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runLoad(ctx, cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "override load.seed, 0 seeds from the clock")
	return cmd
}

func runLoad(ctx context.Context, w io.Writer, cfg *config.Config) error {
	logger, err := newLogger(cfg.Log,
		xlog.WithXLoggerContextFieldExtract(ctxKeyRunID),
		xlog.WithXLoggerContextFieldExtract(ctxKeyRound, xlog.ContextKeyMapToOmitempty),
	)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	shutdown, err := observability.InitMetricsExporter(cfg.MetricsExporter())
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error(err, "metrics exporter shutdown")
		}
	}()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	observability.InitAppStats(ctx, loadStatsName, nil)

	report, err := RunWorkload(ctx, cfg.Load, logger)
	if report != nil {
		if printErr := report.Print(w); printErr != nil {
			err = multierr.Append(err, printErr)
		}
	}
	return err
}

type roundReport struct {
	round    int
	ops      int64
	inserted int64
	erased   int64
	finalLen int64
	elapsed  time.Duration
}

type LoadReport struct {
	RunID    string
	Seed     uint64
	Rounds   int
	Ops      int64
	Inserted int64
	Erased   int64
	Elapsed  time.Duration
	rounds   []roundReport
}

func (r *LoadReport) Print(w io.Writer) error {
	throughput := "n/a"
	if secs := r.Elapsed.Seconds(); secs > 0 {
		throughput = humanize.SIWithDigits(float64(r.Ops)/secs, 2, "op/s")
	}
	if _, err := fmt.Fprintf(w, "run: %s\nseed: %d\nrounds: %d\nops: %s (inserted %s, erased %s)\nelapsed: %s\nthroughput: %s\n",
		r.RunID,
		r.Seed,
		r.Rounds,
		humanize.Comma(r.Ops),
		humanize.Comma(r.Inserted),
		humanize.Comma(r.Erased),
		r.Elapsed.Round(time.Microsecond),
		throughput,
	); err != nil {
		return err
	}
	for _, rep := range r.rounds {
		if _, err := fmt.Fprintf(w, "  round %d: len %s, %s ops in %s\n",
			rep.round,
			humanize.Comma(rep.finalLen),
			humanize.Comma(rep.ops),
			rep.elapsed.Round(time.Microsecond),
		); err != nil {
			return err
		}
	}
	return nil
}

// RunWorkload runs every round on its own tree in the ants pool. A round
// failure does not stop the others, all the failures are combined.
func RunWorkload(ctx context.Context, cfg config.WorkloadConfig, logger xlog.XLogger) (*LoadReport, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen, err := id.NewRunIDGen(runIDLen)
	if err != nil {
		return nil, err
	}
	runID := gen()
	ctx = context.WithValue(ctx, xlog.ContextKey(ctxKeyRunID), runID)

	pool, err := antsv2.NewPool(cfg.Workers, antsv2.WithLogger(xlog.NewAntsXLogger(logger)))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[load] new worker pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		errs    error
		reports = make([]roundReport, cfg.Rounds)
		start   = time.Now()
	)
	appendErr := func(err error) {
		lock.Lock()
		defer lock.Unlock()
		errs = multierr.Append(errs, err)
	}
	logger.InfoContext(ctx, "load started",
		zap.Uint64("seed", seed),
		zap.Int("rounds", cfg.Rounds),
		zap.Int("workers", cfg.Workers),
		zap.Int("keys", cfg.Keys),
	)
	for round := 0; round < cfg.Rounds; round++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			rctx := context.WithValue(ctx, xlog.ContextKey(ctxKeyRound), round)
			rep, err := runRound(rctx, cfg, seed, round, logger)
			reports[round] = rep
			if err != nil {
				logger.ErrorStackContext(rctx, err, "round failed")
				appendErr(err)
				return
			}
			logger.InfoContext(rctx, "round done",
				zap.Int64("ops", rep.ops),
				zap.Int64("len", rep.finalLen),
				zap.Duration("elapsed", rep.elapsed),
			)
		})
		if err != nil {
			wg.Done()
			appendErr(infra.WrapErrorStackWithMessage(err, "[load] submit round"))
		}
	}
	wg.Wait()

	report := &LoadReport{
		RunID:   runID,
		Seed:    seed,
		Rounds:  cfg.Rounds,
		Elapsed: time.Since(start),
		rounds:  reports,
	}
	for _, rep := range reports {
		report.Ops += rep.ops
		report.Inserted += rep.inserted
		report.Erased += rep.erased
	}
	return report, errs
}

func diverged(round int, op int64, key uint64, what string) error {
	return infra.WrapErrorStackWithMessage(
		ErrWorkloadDiverged,
		fmt.Sprintf("round %d op %d key %d: %s", round, op, key, what),
	)
}

// runRound drives 2*Keys random operations, the erase share follows
// EraseRatio. The map model is the oracle of every single operation.
func runRound(ctx context.Context, cfg config.WorkloadConfig, seed uint64, round int, logger xlog.XLogger) (roundReport, error) {
	start := time.Now()
	rep := roundReport{round: round}
	rng := randv2.New(randv2.NewPCG(seed, uint64(round)))
	t := tree.NewRBTree[uint64, uint64](tree.WithRBTreeStats[uint64, uint64](loadStatsName))
	defer t.Release()

	model := make(map[uint64]uint64, cfg.Keys)
	keySpace := uint64(cfg.Keys)
	total := int64(cfg.Keys) * 2
	for op := int64(1); op <= total; op++ {
		if op&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return rep, infra.WrapErrorStackWithMessage(err, fmt.Sprintf("round %d cancelled", round))
			}
		}
		key := rng.Uint64N(keySpace)
		_, exists := model[key]
		if rng.Float64() < cfg.EraseRatio {
			if t.Erase(key) != exists {
				return rep, diverged(round, op, key, "erase")
			}
			if exists {
				delete(model, key)
				rep.erased++
			}
		} else {
			if t.Insert(key, uint64(op)) == exists {
				return rep, diverged(round, op, key, "insert")
			}
			if !exists {
				model[key] = uint64(op)
				rep.inserted++
			}
		}
		rep.ops++

		if cfg.ValidateEvery > 0 && op%int64(cfg.ValidateEvery) == 0 {
			if err := tree.Validate[uint64, uint64](t, nil); err != nil {
				return rep, err
			}
			logger.DebugContext(ctx, "validated", zap.Int64("op", op), zap.Int64("len", t.Len()))
		}
	}

	if err := verifyAgainstModel(t, model, rng, keySpace); err != nil {
		return rep, infra.WrapErrorStackWithMessage(err, fmt.Sprintf("round %d final check", round))
	}
	rep.finalLen = t.Len()
	rep.elapsed = time.Since(start)
	return rep, nil
}

func verifyAgainstModel(t tree.RBTree[uint64, uint64], model map[uint64]uint64, rng *randv2.Rand, keySpace uint64) error {
	if err := tree.Validate[uint64, uint64](t, nil); err != nil {
		return err
	}
	if t.Len() != int64(len(model)) {
		return fmt.Errorf("%w: len %d, model %d", ErrWorkloadDiverged, t.Len(), len(model))
	}

	keys := lo.Keys(model)
	slices.Sort(keys)
	idx := 0
	for key, val := range t.All() {
		if key != keys[idx] || val != model[key] {
			return fmt.Errorf("%w: entry %d is %d=%d", ErrWorkloadDiverged, idx, key, val)
		}
		idx++
	}

	for i := 0; i < lowerBoundProbes; i++ {
		probe := rng.Uint64N(keySpace + 1)
		pos, _ := slices.BinarySearch(keys, probe)
		it := t.LowerBound(probe)
		switch {
		case pos == len(keys) && it.Valid():
			return fmt.Errorf("%w: lower bound of %d is %d, want end", ErrWorkloadDiverged, probe, it.Key())
		case pos < len(keys) && (!it.Valid() || it.Key() != keys[pos]):
			return fmt.Errorf("%w: lower bound of %d, want %d", ErrWorkloadDiverged, probe, keys[pos])
		default:
		}
	}

	clone, err := t.CloneFunc(func(_ uint64, val uint64) (uint64, error) {
		return val, nil
	})
	if err != nil {
		return err
	}
	moved := clone.Move()
	defer moved.Release()
	if clone.Len() != 0 || moved.Len() != t.Len() {
		return fmt.Errorf("%w: clone len %d, moved len %d", ErrWorkloadDiverged, clone.Len(), moved.Len())
	}
	return tree.Validate[uint64, uint64](moved, nil)
}
