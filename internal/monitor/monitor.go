package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
)

// Config holds configuration for the usage monitor
type Config struct {
	ClusterID     string
	CheckInterval time.Duration
}

// StateChangeFunc receives the evaluation whenever the blocked state of a resource changes
type StateChangeFunc func(evaluation Evaluation)

// Monitor periodically samples usage and evaluates it against content node limits. It only
// reports; the processes owning the limits enforce them.
type Monitor struct {
	config    Config
	logger    zerolog.Logger
	sampler   Sampler
	evaluator *Evaluator

	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	onChange  StateChangeFunc
	last      map[limits.Resource]bool
}

// NewMonitor creates a monitor evaluating samples from sampler against l
func NewMonitor(config Config, l limits.ResourceLimits, sampler Sampler, logger zerolog.Logger) (*Monitor, error) {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 30 * time.Second
	}

	evaluator, err := NewEvaluator(l)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		config:    config,
		logger:    logger.With().Str("component", "UsageMonitor").Str("cluster", config.ClusterID).Logger(),
		sampler:   sampler,
		evaluator: evaluator,
		last:      make(map[limits.Resource]bool),
	}, nil
}

// SetStateChangeCallback sets the callback invoked on blocked state changes
func (m *Monitor) SetStateChangeCallback(callback StateChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = callback
}

// UpdateLimits swaps in new limits, e.g. after a configuration reload
func (m *Monitor) UpdateLimits(l limits.ResourceLimits) error {
	if err := m.evaluator.SetLimits(l); err != nil {
		return err
	}
	m.logger.Info().Interface("limits", l.View()).Msg("Monitor limits updated")
	return nil
}

// IsRunning reports whether the sampling loop is active
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

// Start begins periodic sampling. Calling Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.isRunning = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(loopCtx)

	m.logger.Info().Dur("check_interval", m.config.CheckInterval).Msg("Usage monitor started")
}

// Stop stops the sampling loop and waits for it to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info().Msg("Usage monitor stopped")
}

// Check takes one sample and evaluates it
func (m *Monitor) Check(ctx context.Context) (Evaluation, error) {
	sample, err := m.sampler.Sample(ctx)
	if err != nil {
		return Evaluation{}, err
	}

	evaluation := m.evaluator.Evaluate(sample)
	if m.recordChanges(evaluation) {
		m.mu.RLock()
		callback := m.onChange
		m.mu.RUnlock()
		if callback != nil {
			callback(evaluation)
		}
	}

	m.logger.Debug().Interface("usage", sample).Bool("blocked", evaluation.Blocked()).Msg("Current resource usage")
	return evaluation, nil
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error().Err(err).Msg("Failed to sample resource usage")
			}
		}
	}
}

// recordChanges logs blocked state transitions and reports whether any happened
func (m *Monitor) recordChanges(evaluation Evaluation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for _, s := range evaluation.States {
		if m.last[s.Resource] == s.Blocked {
			continue
		}
		changed = true
		m.last[s.Resource] = s.Blocked

		if s.Blocked {
			m.logger.Warn().
				Str("resource", s.Resource.String()).
				Float64("usage", s.Usage).
				Float64("limit", s.Limit).
				Str("action", "add more content nodes").
				Msg(s.Reason())
		} else {
			m.logger.Info().
				Str("resource", s.Resource.String()).
				Float64("usage", s.Usage).
				Float64("limit", s.Limit).
				Msg(s.Reason())
		}
	}
	return changed
}
