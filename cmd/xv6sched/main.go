package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"

	"xv6-sched/kernel"
)

func main() {
	configPath := flag.String("config", "", "JSON boot configuration")
	policy := flag.String("policy", "", "scheduling policy: rr or mlfq (overrides config)")
	demo := flag.String("demo", "all", "demo to run: "+demoNames())
	serve := flag.Bool("serve", false, "keep the scheduler loop running after the demos until interrupted")
	flag.Parse()

	cfg := kernel.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = kernel.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := kernel.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	if err := KMain(cfg, logger, *demo, *serve); err != nil {
		logger.WithError(err).Error("kmain")
		os.Exit(1)
	}
}

// KMain boots the kernel and runs the selected demos against it.
func KMain(cfg kernel.Config, logger *log.Logger, demo string, serve bool) error {
	logger.WithField("pages", cfg.Pages).Info("kmeminit")
	kallocTest(logger, cfg.Pages)

	logger.WithField("policy", cfg.Policy).Info("procinit")
	k := kernel.New(kernel.WithConfig(cfg), kernel.WithLogger(logger))

	var run []demoCase
	if demo == "all" {
		run = demos
	} else {
		d, ok := lookupDemo(demo)
		if !ok {
			return fmt.Errorf("unknown demo %q", demo)
		}
		run = []demoCase{d}
	}

	failed := 0
	for _, d := range run {
		entry := logger.WithField("demo", d.name)
		entry.Info("start")
		err := d.run(k)
		switch {
		case errors.Is(err, errSkipped):
			entry.WithError(err).Warn("SKIP")
		case err != nil:
			entry.WithError(err).Error("FAIL")
			failed++
		default:
			entry.Info("PASS")
		}
		reap(k)
	}
	if err := k.DumpProcs(os.Stdout); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d demo(s) failed", failed)
	}

	if serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := k.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

// kallocTest counts how much memory a fresh arena hands out.
func kallocTest(logger *log.Logger, pages int) {
	km := kernel.NewKmem(pages)
	count := 0
	for km.Kalloc() != 0 {
		count++
	}
	logger.WithField("kb", count*int(kernel.PGSIZE)/1024).Info("kalloc test: allocated")
}

func reap(k *kernel.Kernel) {
	k.RunUntilIdle()
	for {
		if _, _, err := k.Wait(); err != nil {
			return
		}
	}
}
