// SPDX-License-Identifier: EPL-2.0

// Package config loads process settings from the environment and the voice
// bank from YAML.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ik5/pcmstream/voice"
)

// EnvPrefix prefixes every environment variable, as in
// PCMSTREAM_SAMPLE_RATE.
const EnvPrefix = "PCMSTREAM"

// Config holds the process settings. Keys are split from the field
// names, so SampleRate is read from PCMSTREAM_SAMPLE_RATE.
type Config struct {
	// Audio
	SampleRate   int     `split_words:"true" default:"48000"`
	BlockSize    int     `split_words:"true" default:"64"`
	Voices       int     `split_words:"true" default:"10"`
	MasterVolume float64 `split_words:"true" default:"1.0"`
	Declick      bool    `split_words:"true" default:"true"`

	// Streaming; zero refill chunk and low water mean half the ring
	RingCapacity int `split_words:"true" default:"4096"`
	RefillChunk  int `split_words:"true" default:"0"`
	LowWater     int `split_words:"true" default:"0"`

	// Request service; zero max chunk means the effective refill chunk
	QueueCapacity   int           `split_words:"true" default:"32"`
	MaxChunk        int           `split_words:"true" default:"0"`
	ServiceInterval time.Duration `split_words:"true" default:"5ms"`

	// Files
	SampleDir string `split_words:"true" default:"."`
	BankFile  string `split_words:"true" default:""`

	// Observability
	LogLevel      string        `split_words:"true" default:"info"`
	LogPretty     bool          `split_words:"true" default:"false"`
	MetricsAddr   string        `split_words:"true" default:""`
	StatsInterval time.Duration `split_words:"true" default:"1s"`

	// RunDuration stops the process after it elapses; zero runs until
	// signalled.
	RunDuration time.Duration `split_words:"true" default:"0"`
}

// Load reads the given .env files, or ./.env when none are given, then
// the environment. A missing ./.env is not an error; a missing named file
// is.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}

	return LoadFromEnv()
}

// LoadFromEnv reads the environment only.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every out of range setting at once.
func (c *Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}

	check(c.SampleRate > 0, "sample rate %d must be positive", c.SampleRate)
	check(c.BlockSize > 0, "block size %d must be positive", c.BlockSize)
	check(c.Voices > 0, "voices %d must be positive", c.Voices)
	check(c.MasterVolume >= 0 && c.MasterVolume <= 4, "master volume %g must be in [0, 4]", c.MasterVolume)
	check(c.QueueCapacity > 0, "queue capacity %d must be positive", c.QueueCapacity)
	check(c.MaxChunk >= 0, "max chunk %d must not be negative", c.MaxChunk)
	check(c.ServiceInterval > 0, "service interval %s must be positive", c.ServiceInterval)
	check(c.StatsInterval > 0, "stats interval %s must be positive", c.StatsInterval)
	check(c.RunDuration >= 0, "run duration %s must not be negative", c.RunDuration)

	if c.MaxChunk >= 0 {
		if err := c.Voice().WithDefaults().Validate(c.RequestChunk()); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
		}
	}

	return errors.Join(errs...)
}

// Voice returns the per-voice ring settings.
func (c *Config) Voice() voice.Config {
	return voice.Config{
		Capacity:    c.RingCapacity,
		RefillChunk: c.RefillChunk,
		LowWater:    c.LowWater,
	}
}

// RequestChunk is the largest read the request manager serves: MaxChunk
// when set, otherwise the refill chunk of a voice.
func (c *Config) RequestChunk() int {
	if c.MaxChunk > 0 {
		return c.MaxChunk
	}

	return c.Voice().WithDefaults().RefillChunk
}

// BlockDuration is the wall time one render block represents.
func (c *Config) BlockDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}

	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

// Bank loads BankFile, or names Voices files after the default scheme when
// it is empty.
func (c *Config) Bank() (*Bank, error) {
	if c.BankFile == "" {
		return DefaultBank(c.Voices), nil
	}

	return LoadBank(c.BankFile)
}
