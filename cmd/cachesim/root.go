package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/profiling"
	"github.com/sarchlab/cachesim/record"
	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/trace"
)

type options struct {
	configPath         string
	workers            int
	verify             bool
	maxAccesses        int
	allowTrailingBlank bool
	csv                bool
	dbPath             string
	cpuProfile         string
	verbose            bool
}

func newRootCmd() *cobra.Command {
	o := &options{}

	defaultWorkers, envErr := envInt("CACHESIM_WORKERS", 0)

	cmd := &cobra.Command{
		Use:   "cachesim [flags] <trace> <output>",
		Short: "Sweep cache organizations over a memory-access trace.",
		Long: `cachesim runs a memory-access trace through direct-mapped, ` +
			`set-associative and fully-associative caches under several ` +
			`write and prefetch policies, and writes the hit count of each.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			if err := o.validate(); err != nil {
				return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
			}
			return o.run(cmd, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", os.Getenv("CACHESIM_CONFIG"),
		"Path to a JSON sweep plan (default: built-in plan)")
	flags.IntVar(&o.workers, "workers", defaultWorkers,
		"Number of configurations simulated at once (0 = one per CPU)")
	flags.BoolVar(&o.verify, "verify", false,
		"Cross-check set-associative results against the Akita directory model")
	flags.IntVar(&o.maxAccesses, "max-accesses", trace.DefaultMaxAccesses,
		"Refuse traces with more accesses than this (0 = unlimited)")
	flags.BoolVar(&o.allowTrailingBlank, "allow-trailing-blank", false,
		"Ignore blank lines at the end of the trace")
	flags.BoolVar(&o.csv, "csv", false,
		"Write one CSV row per configuration instead of one line per group")
	flags.StringVar(&o.dbPath, "db", os.Getenv("CACHESIM_DB"),
		"Also record results into this SQLite database")
	flags.StringVar(&o.cpuProfile, "cpuprofile", "",
		"Write a CPU profile of the sweep to this file")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

// envInt reads an integer default from the environment. An unset variable
// yields fallback.
func envInt(name string, fallback int) (int, error) {
	s, ok := os.LookupEnv(name)
	if !ok || s == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q is not an integer", name, s)
	}

	return v, nil
}

func (o *options) validate() error {
	if o.workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %d", o.workers)
	}
	if o.maxAccesses < 0 {
		return fmt.Errorf("--max-accesses must not be negative, got %d", o.maxAccesses)
	}
	return nil
}

func (o *options) run(cmd *cobra.Command, tracePath, outputPath string) (err error) {
	logger := log.New(io.Discard, "", 0)
	if o.verbose {
		logger = log.New(cmd.ErrOrStderr(), "cachesim: ", log.LstdFlags)
	}

	planConfig := sweep.DefaultPlanConfig()
	if o.configPath != "" {
		planConfig, err = sweep.LoadPlanConfig(o.configPath)
		if err != nil {
			return err
		}
	}
	if err := planConfig.Validate(); err != nil {
		return fmt.Errorf("invalid sweep plan: %w", err)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer func() {
		closeErr := output.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(outputPath)
		}
	}()

	loaderOpts := []trace.LoaderOption{trace.WithMaxAccesses(o.maxAccesses)}
	if o.allowTrailingBlank {
		loaderOpts = append(loaderOpts, trace.WithTrailingBlankLines())
	}

	t, err := trace.LoadFile(tracePath, loaderOpts...)
	if err != nil {
		return err
	}
	logger.Printf("loaded %s: %d accesses (%d loads, %d stores)",
		tracePath, t.Len(), t.Loads(), t.Stores())

	driverConfig := sweep.DriverConfig{
		Workers: o.workers,
		Verify:  o.verify,
		Logger:  logger,
	}

	if o.dbPath != "" {
		recorder, err := record.NewSQLiteRecorder(o.dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()

		driverConfig.Sink = recorder
		logger.Printf("recording run %s into %s", recorder.RunID(), o.dbPath)
	}

	var session *profiling.Session
	if o.cpuProfile != "" {
		session, err = profiling.Start(o.cpuProfile)
		if err != nil {
			return err
		}
	}

	driver := sweep.NewDriver(driverConfig)
	plan := planConfig.Plan()
	logger.Printf("running %d configurations on %d workers", len(plan), driver.Workers())

	outcomes, runErr := driver.Run(t, plan)

	if session != nil {
		summary, err := session.Stop(5)
		if err != nil {
			return err
		}
		logProfile(logger, summary)
	}

	if runErr != nil {
		return runErr
	}

	if o.csv {
		err = sweep.WriteCSV(output, outcomes)
	} else {
		err = sweep.WriteGroups(output, outcomes)
	}
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if o.verbose {
		logResources(logger)
	}

	return nil
}

func logProfile(logger *log.Logger, s profiling.Summary) {
	logger.Printf("profile: %d samples over %v", s.Samples, s.Duration)
	for _, f := range s.Top {
		logger.Printf("  %6d  %s", f.Flat, f.Name)
	}
}

func logResources(logger *log.Logger) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Printf("resources unavailable: %v", err)
		return
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		logger.Printf("resources unavailable: %v", err)
		return
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		logger.Printf("resources unavailable: %v", err)
		return
	}

	logger.Printf("resources: %d MB resident, %.1f%% CPU", mem.RSS>>20, cpu)
}
