// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/pcmstream/internal/observability"
	"github.com/ik5/pcmstream/request"
	"github.com/ik5/pcmstream/utils"
	"github.com/ik5/pcmstream/voice"
)

// Config describes the output stream of an Engine.
type Config struct {
	SampleRate int
	BlockSize  int
	// MasterVolume scales the mix after the per-voice gain.
	MasterVolume float32
	// Gain scales every voice. Zero means 1/len(voices).
	Gain float32
	// Declick wraps every voice in a Declicker of FadeSamples length.
	Declick     bool
	FadeSamples int

	ServiceInterval time.Duration
	StatsInterval   time.Duration
}

// BlockDuration is the wall time of one block.
func (c Config) BlockDuration() time.Duration {
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	case c.MasterVolume < 0 || c.Gain < 0:
		return fmt.Errorf("%w: negative volume", ErrInvalidConfig)
	}

	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records render and voice measurements into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

type commandKind uint8

const (
	cmdRestartAll commandKind = iota
	cmdSetLooping
	cmdAttach
	cmdClose
)

type command struct {
	kind  commandKind
	voice int
	loop  bool
	src   *voice.Source
}

// Engine mixes a fixed set of voices into blocks for a Sink.
//
// RenderBlock runs on the render goroutine, either driven by Run or by the
// caller. Control methods can be called from any goroutine; they post
// commands that RenderBlock applies before mixing the next block.
type Engine struct {
	cfg     Config
	manager *request.Manager
	voices  []*voice.SampleReader
	procs   []voice.Processor
	clicks  []*voice.Declicker
	sink    Sink
	cmds    chan command
	scale   float32
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New builds an engine over voices, which must all submit to m. A nil sink
// discards the output.
func New(cfg Config, m *request.Manager, voices []*voice.SampleReader, sink Sink, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(voices) == 0 {
		return nil, ErrNoVoices
	}
	if cfg.MasterVolume == 0 {
		cfg.MasterVolume = 1
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1 / float32(len(voices))
	}
	if sink == nil {
		sink = DiscardSink{}
	}

	e := &Engine{
		cfg:     cfg,
		manager: m,
		voices:  voices,
		procs:   make([]voice.Processor, len(voices)),
		clicks:  make([]*voice.Declicker, len(voices)),
		sink:    sink,
		cmds:    make(chan command, 4*len(voices)+8),
		scale:   cfg.Gain * cfg.MasterVolume,
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With().Str("component", "engine").Logger()

	for i, v := range voices {
		e.procs[i] = v
		if cfg.Declick {
			e.clicks[i] = voice.NewDeclicker(v, cfg.FadeSamples, false)
			e.procs[i] = e.clicks[i]
		}
	}

	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Voices returns the voices in mixing order.
func (e *Engine) Voices() []*voice.SampleReader { return e.voices }

// Open opens paths[i] on voice i. It blocks on storage and must only be
// called while nothing renders. Every voice is attempted; the errors of
// those that failed are joined.
func (e *Engine) Open(paths []string) error {
	if len(paths) != len(e.voices) {
		return fmt.Errorf("%w: %d paths for %d voices", ErrVoiceCount, len(paths), len(e.voices))
	}

	var errs []error
	for i, v := range e.voices {
		if err := v.Open(paths[i]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RestartAll rewinds every open voice at the next block.
func (e *Engine) RestartAll() error {
	return e.post(command{kind: cmdRestartAll})
}

// SetLooping sets whether voice i restarts when it ends.
func (e *Engine) SetLooping(i int, on bool) error {
	if i < 0 || i >= len(e.voices) {
		return fmt.Errorf("%w: %d", ErrVoiceIndex, i)
	}

	return e.post(command{kind: cmdSetLooping, voice: i, loop: on})
}

// Reopen switches voice i to paths[i] for every voice. Files are opened
// and parsed on the calling goroutine; the render goroutine only swaps
// them in. A voice whose file fails is closed and goes silent.
func (e *Engine) Reopen(paths []string) error {
	if len(paths) != len(e.voices) {
		return fmt.Errorf("%w: %d paths for %d voices", ErrVoiceCount, len(paths), len(e.voices))
	}

	var errs []error
	for i, v := range e.voices {
		src, err := v.Prepare(paths[i])
		if err != nil {
			errs = append(errs, err)
			if perr := e.post(command{kind: cmdClose, voice: i}); perr != nil {
				errs = append(errs, perr)
			}

			continue
		}

		if err := e.post(command{kind: cmdAttach, voice: i, src: src}); err != nil {
			_ = src.Close()
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *Engine) post(c command) error {
	select {
	case e.cmds <- c:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// RenderBlock applies pending commands and mixes the next len(out)
// samples into out. It never blocks.
func (e *Engine) RenderBlock(out []float32) {
	start := time.Now()

	e.applyCommands()

	clear(out)

	for i, v := range e.voices {
		if v.Ended() && v.Looping() {
			e.restart(i)
		}

		p := e.procs[i]
		for j := range out {
			out[j] += p.Process()
		}
	}

	for j, x := range out {
		out[j] = utils.Clamp(x*e.scale, -1, 1)
	}

	e.metrics.ObserveRender(time.Since(start))
}

func (e *Engine) applyCommands() {
	for {
		select {
		case c := <-e.cmds:
			e.apply(c)
		default:
			return
		}
	}
}

func (e *Engine) discardCommands() {
	for {
		select {
		case c := <-e.cmds:
			_ = c.src.Close()
		default:
			return
		}
	}
}

func (e *Engine) apply(c command) {
	switch c.kind {
	case cmdRestartAll:
		for i, v := range e.voices {
			if !v.Invalid() {
				e.restart(i)
			}
		}
	case cmdSetLooping:
		e.voices[c.voice].SetLooping(c.loop)
	case cmdAttach:
		e.retrigger(c.voice)
		e.voices[c.voice].Attach(c.src)
	case cmdClose:
		e.voices[c.voice].Close()
	}
}

func (e *Engine) restart(i int) {
	e.retrigger(i)
	if err := e.voices[i].Restart(); err != nil {
		e.logger.Debug().Err(err).Int("voice", i).Msg("restart skipped")
	}
}

func (e *Engine) retrigger(i int) {
	if d := e.clicks[i]; d != nil {
		d.Retrigger()
	}
}

// Run services requests, renders one block per block duration into the
// sink and publishes statistics until ctx is done or the sink fails. On
// return every voice is closed and its file released.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().
		Int("voices", len(e.voices)).
		Int("sample_rate", e.cfg.SampleRate).
		Int("block_size", e.cfg.BlockSize).
		Dur("block", e.cfg.BlockDuration()).
		Msg("engine started")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.manager.Serve(gctx, e.cfg.ServiceInterval)
	})
	g.Go(func() error {
		return e.renderLoop(gctx)
	})
	g.Go(func() error {
		return e.statsLoop(gctx)
	})

	err := g.Wait()

	// Render and service goroutines are gone; close from here.
	e.discardCommands()
	for _, v := range e.voices {
		v.Close()
	}
	e.manager.HandleRequests()
	e.collectStats()

	e.logger.Info().Err(err).Msg("engine stopped")

	return err
}

func (e *Engine) renderLoop(ctx context.Context) error {
	out := make([]float32, e.cfg.BlockSize)

	ticker := time.NewTicker(e.cfg.BlockDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		e.RenderBlock(out)
		if err := e.sink.Write(out); err != nil {
			return fmt.Errorf("engine: sink: %w", err)
		}
	}
}

func (e *Engine) statsLoop(ctx context.Context) error {
	interval := e.cfg.StatsInterval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.collectStats()
		}
	}
}

// collectStats drains the voice underrun counters into metrics and logs.
func (e *Engine) collectStats() {
	playing := 0
	for _, v := range e.voices {
		if v.Playing() {
			playing++
		}

		st := v.TakeStats()
		e.metrics.AddUnderruns(v.Name(), st.UnderrunEvents, st.UnderrunSamples)
		if st.UnderrunEvents > 0 {
			e.logger.Warn().
				Str("voice", v.Name()).
				Str("path", v.Path()).
				Uint64("events", st.UnderrunEvents).
				Uint64("samples", st.UnderrunSamples).
				Msg("buffer underrun")
		}
	}

	e.metrics.SetPlaying(playing)
	e.metrics.SetQueueDepth(e.manager.Len())

	ms := e.manager.Stats()
	e.logger.Debug().
		Int("playing", playing).
		Int("queued", e.manager.Len()).
		Uint64("handled", ms.Handled).
		Uint64("skipped", ms.Skipped).
		Uint64("dropped", ms.Dropped).
		Uint64("failed", ms.Failed).
		Msg("stats")
}
