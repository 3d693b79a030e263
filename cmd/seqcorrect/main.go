package main

import (
	"os"

	"github.com/jteutenberg/seqcorrect/config"
	"github.com/jteutenberg/seqcorrect/correct"
	"github.com/jteutenberg/seqcorrect/index"
	"github.com/jteutenberg/seqcorrect/metrics"
	"github.com/jteutenberg/seqcorrect/overlap"
	"github.com/jteutenberg/seqcorrect/sequence"
	"github.com/jteutenberg/seqcorrect/util"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
)

var log = util.GetLogger("seqcorrect")

func main() {
	app := &cli.App{
		Name:  "seqcorrect",
		Usage: "correct sequencing errors in short reads using a compressed read index",
		Commands: []*cli.Command{
			correctCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func correctCommand() *cli.Command {
	return &cli.Command{
		Name:   "correct",
		Usage:  "correct a read set against itself",
		Action: runCorrect,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "reads to correct (fasta/fastq, optionally gzipped)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output for kept reads"},
			&cli.StringFlag{Name: "discard", Usage: "output for reads failing QC (kept output takes all reads when unset)"},
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "kmer, overlap or hybrid"},
			&cli.IntFlag{Name: "kmer", Aliases: []string{"k"}, Usage: "kmer length"},
			&cli.IntFlag{Name: "min-overlap", Aliases: []string{"m"}, Usage: "minimum overlap length"},
			&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "worker count"},
			&cli.StringFlag{Name: "metrics", Usage: "write per-base error tables to this file"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "expose prometheus counters on this address"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log per-read diagnostics"},
		},
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet("input") {
		cfg.Input = ctx.String("input")
	}
	if ctx.IsSet("output") {
		cfg.Output = ctx.String("output")
	}
	if ctx.IsSet("discard") {
		cfg.Discard = ctx.String("discard")
	}
	if ctx.IsSet("algorithm") {
		cfg.Algorithm = ctx.String("algorithm")
	}
	if ctx.IsSet("kmer") {
		cfg.KmerLength = ctx.Int("kmer")
	}
	if ctx.IsSet("min-overlap") {
		cfg.MinOverlap = ctx.Int("min-overlap")
	}
	if ctx.IsSet("threads") {
		cfg.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("metrics") {
		cfg.Metrics = ctx.String("metrics")
	}
	if ctx.IsSet("metrics-addr") {
		cfg.MetricsAddr = ctx.String("metrics-addr")
	}
	if ctx.Bool("verbose") {
		cfg.Verbose = true
	}
	return cfg, nil
}

func runCorrect(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Input == "" {
		return cli.Exit("no input reads given", 1)
	}
	if cfg.Verbose {
		util.SetLogLevel(logrus.DebugLevel)
	}
	algorithm, err := correct.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return err
	}

	log.Infof("reading %s", cfg.Input)
	reads, err := sequence.ReadAll(cfg.Input)
	if err != nil {
		return err
	}
	log.Infof("indexing %d reads", len(reads))
	idx, err := index.BuildFromSequences(reads)
	if err != nil {
		return err
	}

	corrector := correct.NewCorrector(correct.Parameters{
		Algorithm:        algorithm,
		Index:            idx,
		Overlapper:       overlap.NewOverlapper(idx, cfg.ErrorRate),
		Thresholds:       correct.NewThresholdsWithBase(cfg.BaseMinSupport),
		KmerLength:       cfg.KmerLength,
		MinOverlap:       cfg.MinOverlap,
		MinIdentity:      cfg.MinIdentity,
		NumKmerRounds:    cfg.KmerRounds,
		NumOverlapRounds: cfg.OverlapRounds,
		ConflictCutoff:   cfg.ConflictCutoff,
		Verbose:          cfg.Verbose,
	})

	var prom *metrics.Metrics
	if cfg.MetricsAddr != "" {
		prom = metrics.New()
		go func() {
			if err := prom.Serve(cfg.MetricsAddr); err != nil {
				log.Warnf("metrics endpoint failed: %v", err)
			}
		}()
	}

	keptFile, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer keptFile.Close()
	kept := sequence.NewWriter(keptFile)
	var discard *sequence.Writer
	if cfg.Discard != "" {
		discardFile, err := os.Create(cfg.Discard)
		if err != nil {
			return err
		}
		defer discardFile.Close()
		discard = sequence.NewWriter(discardFile)
	}
	pp := correct.NewPostProcessor(kept, discard, cfg.Metrics != "", prom)

	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(len(reads)),
		mpb.PrependDecorators(decor.Name("correcting "), decor.CountersNoUnit("%d / %d")),
		mpb.AppendDecorators(decor.Percentage()))

	type pair struct {
		item   correct.WorkItem
		result correct.Result
	}
	work := make(chan correct.WorkItem, cfg.Threads*2)
	pairs := make(chan pair, cfg.Threads*2)
	var workers errgroup.Group
	for w := 0; w < cfg.Threads; w++ {
		workers.Go(func() error {
			for item := range work {
				pairs <- pair{item, corrector.Correct(item)}
				bar.Increment()
			}
			return nil
		})
	}
	consumed := make(chan error, 1)
	go func() {
		//keep draining after a write error so the workers never block
		var perr error
		for p := range pairs {
			if perr != nil {
				continue
			}
			perr = pp.Process(p.item, p.result)
		}
		consumed <- perr
	}()

	for i, s := range reads {
		work <- correct.WorkItem{Seq: s, Idx: i}
	}
	close(work)
	if err := workers.Wait(); err != nil {
		return err
	}
	close(pairs)
	if err := <-consumed; err != nil {
		return err
	}
	progress.Wait()

	if err := kept.Flush(); err != nil {
		return err
	}
	if discard != nil {
		if err := discard.Flush(); err != nil {
			return err
		}
	}
	pp.Summary()
	if cfg.Metrics != "" {
		f, err := os.Create(cfg.Metrics)
		if err != nil {
			return err
		}
		pp.WriteMetrics(f)
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
