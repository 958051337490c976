package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/dasper/backend/internal/cost"
	"github.com/dasper/backend/internal/estimate"
	"github.com/dasper/backend/internal/severity"
)

// Bundle groups the model objects one assessment needs. All members are safe
// for concurrent use once loaded.
type Bundle struct {
	Severity severity.Model
	Analyzer *estimate.BuildingAnalyzer
	Cost     *cost.Estimator
}

// Handle is a checked-out bundle. The holder keeps the bundle usable even if
// the manager evicts it concurrently: eviction only drops the manager's
// reference. Release after the inference completes.
type Handle struct {
	m      *Manager
	bundle *Bundle

	released atomic.Bool
}

func (h *Handle) Bundle() *Bundle { return h.bundle }

// Release marks the use complete. Idle eviction measures from the last
// release, not the checkout.
func (h *Handle) Release() {
	if h.released.Swap(true) {
		return
	}
	h.m.inferenceCount.Add(1)
	h.m.touch()
}

// Config tunes the manager's eviction behavior.
type Config struct {
	ModelPath              string
	SeverityModelURL       string
	DepthModelURL          string
	SatelliteToken         string
	IdleTimeout            time.Duration
	MonitorInterval        time.Duration
	MemoryThresholdPercent float64
	Logger                 zerolog.Logger
}

// Status is a point-in-time snapshot of the manager. Reads are lock-free and
// best-effort.
type Status struct {
	Loaded            bool      `json:"loaded"`
	LastUsedAt        time.Time `json:"last_used_at"`
	LoadCount         int64     `json:"load_count"`
	UnloadCount       int64     `json:"unload_count"`
	InferenceCount    int64     `json:"inference_count"`
	MemoryUsedPercent float64   `json:"memory_used_percent"`
}

// Manager owns the singleton bundle: single-flight lazy loading, idle and
// memory-pressure eviction, and manual preload/unload.
type Manager struct {
	cfg Config

	mu     sync.Mutex
	bundle *Bundle

	loaded         atomic.Bool
	lastUsedUnix   atomic.Int64
	loadCount      atomic.Int64
	unloadCount    atomic.Int64
	inferenceCount atomic.Int64

	// loadFunc and memFunc are swappable in tests.
	loadFunc func(ctx context.Context) (*Bundle, error)
	memFunc  func() (float64, error)

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func New(cfg Config) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 30 * time.Second
	}
	if cfg.MemoryThresholdPercent <= 0 {
		cfg.MemoryThresholdPercent = 80
	}
	m := &Manager{
		cfg:    cfg,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.loadFunc = m.buildBundle
	m.memFunc = systemMemoryPercent
	go m.monitor()
	return m
}

// buildBundle constructs every model object. A failure in any component
// leaves nothing behind: the partially built bundle is dropped and the error
// propagates.
func (m *Manager) buildBundle(ctx context.Context) (*Bundle, error) {
	var model severity.Model
	if m.cfg.SeverityModelURL != "" {
		model = severity.HTTPModel{BaseURL: m.cfg.SeverityModelURL}
	} else {
		loaded, err := severity.LoadCheckpointModel(m.cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("load severity model: %w", err)
		}
		model = loaded
	}

	analyzer := &estimate.BuildingAnalyzer{Logger: m.cfg.Logger}
	if m.cfg.DepthModelURL != "" {
		analyzer.Depth = &estimate.HTTPDepthEstimator{BaseURL: m.cfg.DepthModelURL}
	}
	if m.cfg.SatelliteToken != "" {
		analyzer.Satellite = &estimate.SatelliteClient{Token: m.cfg.SatelliteToken}
	}

	return &Bundle{
		Severity: model,
		Analyzer: analyzer,
		Cost:     cost.NewEstimator(m.cfg.Logger),
	}, nil
}

// SetLoader replaces how the bundle is built. Call before the first
// checkout; used to inject remote or fake model stacks.
func (m *Manager) SetLoader(load func(ctx context.Context) (*Bundle, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFunc = load
}

// Checkout returns a handle on the loaded bundle, loading it first if
// needed. Concurrent cold checkouts wait on the lock and reuse the first
// caller's load.
func (m *Manager) Checkout(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bundle == nil {
		start := time.Now()
		b, err := m.loadFunc(ctx)
		if err != nil {
			m.cfg.Logger.Error().Err(err).Msg("model bundle load failed")
			return nil, err
		}
		m.bundle = b
		m.loaded.Store(true)
		m.loadCount.Add(1)
		m.cfg.Logger.Info().Dur("took", time.Since(start)).Msg("model bundle loaded")
	}
	m.lastUsedUnix.Store(time.Now().UnixNano())
	return &Handle{m: m, bundle: m.bundle}, nil
}

// Preload loads the bundle without handing out a handle.
func (m *Manager) Preload(ctx context.Context) error {
	h, err := m.Checkout(ctx)
	if err != nil {
		return err
	}
	h.Release()
	return nil
}

// ForceUnload drops the bundle immediately. Outstanding handles stay valid;
// the next checkout loads fresh.
func (m *Manager) ForceUnload(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadLocked(reason)
}

func (m *Manager) unloadLocked(reason string) {
	if m.bundle == nil {
		return
	}
	m.bundle = nil
	m.loaded.Store(false)
	m.unloadCount.Add(1)
	m.cfg.Logger.Info().Str("reason", reason).Msg("model bundle unloaded")
}

// Status reads counters without taking the state lock.
func (m *Manager) Status() Status {
	memPct, _ := m.memFunc()
	var lastUsed time.Time
	if ns := m.lastUsedUnix.Load(); ns > 0 {
		lastUsed = time.Unix(0, ns)
	}
	return Status{
		Loaded:            m.loaded.Load(),
		LastUsedAt:        lastUsed,
		LoadCount:         m.loadCount.Load(),
		UnloadCount:       m.unloadCount.Load(),
		InferenceCount:    m.inferenceCount.Load(),
		MemoryUsedPercent: memPct,
	}
}

// Shutdown stops the monitor and unloads. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.done
		m.ForceUnload("shutdown")
	})
}

func (m *Manager) monitor() {
	defer close(m.done)
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Manager) tick() {
	if !m.loaded.Load() {
		return
	}
	memPct, err := m.memFunc()
	if err == nil && memPct > m.cfg.MemoryThresholdPercent {
		m.cfg.Logger.Warn().Float64("used_percent", memPct).Msg("memory pressure")
		m.ForceUnload("memory pressure")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check under the lock: a checkout may have claimed the bundle
	// between the idle read and here.
	if m.bundle == nil {
		return
	}
	idle := time.Since(time.Unix(0, m.lastUsedUnix.Load()))
	if idle > m.cfg.IdleTimeout {
		m.unloadLocked("idle timeout")
	}
}

func (m *Manager) touch() {
	m.lastUsedUnix.Store(time.Now().UnixNano())
}

func systemMemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
