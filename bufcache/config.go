package bufcache

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// PolicyKind selects which eviction policy a Config builds.
type PolicyKind string

const (
	PolicyRecency   PolicyKind = "recency"
	PolicyFrequency PolicyKind = "frequency"
	PolicyTwoQueue  PolicyKind = "twoqueue"
)

// Config holds the pool's compile-time tunables from spec §6, made
// runtime-configurable via an ini file the way the teacher's
// server/conf/config.go loads BufferPoolConfig-shaped settings from
// gopkg.in/ini.v1, trimmed down to this pool's own small surface (no
// mysqld-wide session/network settings).
type Config struct {
	// N is the primary buffer count (the C source's MBUF).
	N int
	// GBUF sizes the Two-Queue policy's ghost list (the C source's GBUF).
	// SBUF (the secondary buffer count) is loaded but not used by any
	// policy; the two are kept as distinct fields because two source
	// variants size the ghost queue independently of the secondary buffer
	// count.
	SBUF int
	GBUF int
	// BlockSize is the fixed payload size of each buffer.
	BlockSize int
	// Policy selects the eviction/admission strategy.
	Policy PolicyKind
	// OldBlocksTime is carried over from the teacher's
	// BufferPoolConfig.OldBlocksTime tunable; unused by any of the three
	// required policies today, kept so a future aging-based policy has
	// somewhere to read it from without another config pass.
	OldBlocksTime int
}

// DefaultConfig returns the spec's reference scenario sizing: N=5,
// single-device Recency (spec §8 "Scenarios").
func DefaultConfig() Config {
	return Config{
		N:         5,
		GBUF:      5,
		BlockSize: 512,
		Policy:    PolicyRecency,
	}
}

// LoadConfig reads pool tunables from an ini file with a single [pool]
// section:
//
//	[pool]
//	n = 128
//	gbuf = 128
//	block_size = 4096
//	policy = twoqueue
//	old_blocks_time = 1000
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("bufcache: load config %s: %w", path, err)
	}

	section := raw.Section("pool")
	if key, err := section.GetKey("n"); err == nil {
		cfg.N = key.MustInt(cfg.N)
	}
	if key, err := section.GetKey("sbuf"); err == nil {
		cfg.SBUF = key.MustInt(cfg.SBUF)
	}
	if key, err := section.GetKey("gbuf"); err == nil {
		cfg.GBUF = key.MustInt(cfg.GBUF)
	}
	if key, err := section.GetKey("block_size"); err == nil {
		cfg.BlockSize = key.MustInt(cfg.BlockSize)
	}
	if key, err := section.GetKey("old_blocks_time"); err == nil {
		cfg.OldBlocksTime = key.MustInt(cfg.OldBlocksTime)
	}
	if key, err := section.GetKey("policy"); err == nil {
		cfg.Policy = PolicyKind(key.MustString(string(cfg.Policy)))
	}

	if cfg.N <= 0 {
		return Config{}, fmt.Errorf("bufcache: invalid pool size n=%d", cfg.N)
	}
	return cfg, nil
}

// buildPolicy constructs the Policy named by cfg.Policy.
func (c Config) buildPolicy() (Policy, error) {
	switch c.Policy {
	case "", PolicyRecency:
		return NewRecencyPolicy(), nil
	case PolicyFrequency:
		return NewFrequencyPolicy(), nil
	case PolicyTwoQueue:
		g := c.GBUF
		if g <= 0 {
			g = c.N
		}
		return NewTwoQueuePolicy(g), nil
	default:
		return nil, fmt.Errorf("bufcache: unknown policy %q", c.Policy)
	}
}
