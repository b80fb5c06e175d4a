// SPDX-License-Identifier: EPL-2.0

// Command pcmstream streams a bank of sample files through the mixing
// engine. Settings come from PCMSTREAM_* environment variables or a .env
// file; see internal/config.
//
// On Unix, SIGUSR1 restarts every voice and SIGUSR2 reopens every file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/pcmstream/engine"
	"github.com/ik5/pcmstream/internal/config"
	"github.com/ik5/pcmstream/internal/observability"
	"github.com/ik5/pcmstream/request"
	"github.com/ik5/pcmstream/storage"
	"github.com/ik5/pcmstream/voice"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pcmstream:", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env", "", "read settings from this .env file instead of ./.env")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	bank, err := cfg.Bank()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	manager := request.NewManager(cfg.QueueCapacity, cfg.RequestChunk(),
		request.WithLogger(logger),
		request.WithObserver(metrics),
	)

	fsys := storage.Dir(cfg.SampleDir)

	voices := make([]*voice.SampleReader, len(bank.Voices))
	for i := range bank.Voices {
		v, err := voice.New(fmt.Sprintf("voice%d", i), manager, fsys, cfg.Voice(), voice.WithLogger(logger))
		if err != nil {
			return err
		}
		voices[i] = v
	}

	sink := &engine.MeterSink{}

	eng, err := engine.New(engine.Config{
		SampleRate:      cfg.SampleRate,
		BlockSize:       cfg.BlockSize,
		MasterVolume:    float32(cfg.MasterVolume),
		Declick:         cfg.Declick,
		ServiceInterval: cfg.ServiceInterval,
		StatsInterval:   cfg.StatsInterval,
	}, manager, voices, sink,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	paths := bank.Paths()
	if err := eng.Open(paths); err != nil {
		logger.Warn().Err(err).Msg("some voices are silent")
	}
	for i, entry := range bank.Voices {
		voices[i].SetLooping(entry.Loop)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunDuration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		return control(gctx, eng, paths, logger)
	})
	g.Go(func() error {
		return meter(gctx, sink, cfg.StatsInterval, logger)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, reg, logger)
		})
	}

	return g.Wait()
}

// control maps the control signals onto engine commands.
func control(ctx context.Context, eng *engine.Engine, paths []string, logger zerolog.Logger) error {
	if len(restartSignals)+len(reopenSignals) == 0 {
		return nil
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, slices.Concat(restartSignals, reopenSignals)...)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigs:
			var err error
			switch {
			case slices.Contains(restartSignals, sig):
				logger.Info().Stringer("signal", sig).Msg("restarting all voices")
				err = eng.RestartAll()
			case slices.Contains(reopenSignals, sig):
				logger.Info().Stringer("signal", sig).Msg("reopening all files")
				err = eng.Reopen(paths)
			}
			if err != nil {
				logger.Warn().Err(err).Stringer("signal", sig).Msg("control command failed")
			}
		}
	}
}

// meter logs the output peak once per interval.
func meter(ctx context.Context, sink *engine.MeterSink, interval time.Duration, logger zerolog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logger.Debug().
				Float32("peak", sink.TakePeak()).
				Uint64("blocks", sink.Blocks()).
				Msg("output level")
		}
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}

	return nil
}
