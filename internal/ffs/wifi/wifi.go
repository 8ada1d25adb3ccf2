// Package wifi implements the Wi-Fi manager: an event-driven task that
// owns the platform driver, the scan snapshot, the configuration list
// and the connection-attempt record. The provisionee task posts one
// event at a time and blocks until its completion; that handoff is the
// only synchronization the two tasks need besides the scan-list mutex.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// Driver errors the manager classifies into report payloads.
var (
	// ErrAuthenticationFailed indicates a bad key or failed handshake.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrNetworkNotFound indicates the target SSID was not visible.
	ErrNetworkNotFound = errors.New("network not found")
)

// Timeouts for the driver operations.
const (
	associateTimeout  = 10 * time.Second
	disconnectTimeout = 5 * time.Second
	resolveTimeout    = 20 * time.Second

	resolveAttempts = 5
	resolveInterval = time.Second

	// scanAttempts bounds directed-scan retries.
	scanAttempts = 5

	// eventQueueDepth bounds the manager's message queue.
	eventQueueDepth = 8
)

// DefaultProbeHost is resolved after association to distinguish a real
// connection from an SSID match with no reachability.
const DefaultProbeHost = "dp-sps-na.amazon.com"

// Driver is the platform Wi-Fi backend.
type Driver interface {
	// Scan performs one scan and returns the visible networks.
	Scan(ctx context.Context) ([]model.WifiScanResult, error)
	// Connect associates with the network, returning
	// ErrAuthenticationFailed or ErrNetworkNotFound when classifiable.
	Connect(ctx context.Context, cfg model.WifiConfiguration) error
	// Disconnect leaves the current network.
	Disconnect(ctx context.Context) error
	// Close releases the driver.
	Close() error
}

// Resolver resolves a host name, used as the post-association probe.
type Resolver func(ctx context.Context, host string) error

func defaultResolver(ctx context.Context, host string) error {
	_, err := net.DefaultResolver.LookupHost(ctx, host)
	return err
}

type eventKind int

const (
	evScan eventKind = iota
	evConnectToNetwork
	evConnect
	evDisconnect
	evDeinit
)

// event is one message to the manager task; done is the completion
// semaphore the caller blocks on.
type event struct {
	kind eventKind
	cfg  model.WifiConfiguration
	done chan error
}

// Manager runs the Wi-Fi task. One value per session, owned by the
// user context; there are no package-level singletons.
type Manager struct {
	driver    Driver
	resolver  Resolver
	logger    *iostreams.Logger
	probeHost string

	probeAttempts int
	probeInterval time.Duration

	events  chan event
	stopped chan struct{}

	// scanMu guards scanResults: the manager task writes the snapshot
	// while the provisionee task may read it.
	scanMu      sync.Mutex
	scanResults []model.WifiScanResult

	// The remaining fields are written only by the manager task and read
	// by the provisionee task between events; the event handoff is the
	// happens-before edge.
	configurations []model.WifiConfiguration
	attempts       []model.ConnectionAttempt
	connected      *model.WifiConfiguration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithResolver replaces the DNS probe, for tests.
func WithResolver(r Resolver) ManagerOption {
	return func(m *Manager) { m.resolver = r }
}

// WithProbeHost replaces the post-association probe host.
func WithProbeHost(host string) ManagerOption {
	return func(m *Manager) { m.probeHost = host }
}

// WithProbePolicy overrides the probe retry schedule, for tests.
func WithProbePolicy(attempts int, interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.probeAttempts = attempts
		m.probeInterval = interval
	}
}

// WithManagerLogger replaces the default package logger.
func WithManagerLogger(l *iostreams.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager starts the manager task against the driver.
func NewManager(driver Driver, opts ...ManagerOption) *Manager {
	m := &Manager{
		driver:        driver,
		resolver:      defaultResolver,
		probeHost:     DefaultProbeHost,
		probeAttempts: resolveAttempts,
		probeInterval: resolveInterval,
		events:        make(chan event, eventQueueDepth),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run()
	return m
}

// run is the manager task loop.
func (m *Manager) run() {
	defer close(m.stopped)
	for ev := range m.events {
		switch ev.kind {
		case evScan:
			ev.done <- m.handleScan()
		case evConnectToNetwork:
			ev.done <- m.handleConnectToNetwork(ev.cfg)
		case evConnect:
			ev.done <- m.handleConnectToUserNetwork()
		case evDisconnect:
			ev.done <- m.handleDisconnect()
		case evDeinit:
			err := m.driver.Close()
			ev.done <- err
			return
		}
	}
}

// post dispatches one event and blocks until the manager completes it.
func (m *Manager) post(ctx context.Context, ev event) error {
	ev.done = make(chan error, 1)
	select {
	case m.events <- ev:
	case <-m.stopped:
		return fmt.Errorf("%w: wifi manager stopped", model.ErrInvalidArgument)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ev.done:
		return err
	case <-m.stopped:
		return fmt.Errorf("%w: wifi manager stopped", model.ErrInvalidArgument)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartScan runs a background scan and stores the snapshot.
func (m *Manager) StartScan(ctx context.Context) error {
	return m.post(ctx, event{kind: evScan})
}

// ScanResults returns a copy of the latest scan snapshot.
func (m *Manager) ScanResults() []model.WifiScanResult {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()
	return append([]model.WifiScanResult(nil), m.scanResults...)
}

// AddConfiguration appends a cloned credential to the configuration
// list. Duplicate SSIDs are allowed and ordering is preserved.
func (m *Manager) AddConfiguration(cfg model.WifiConfiguration) {
	m.configurations = append(m.configurations, cfg.Clone())
}

// Configurations returns the stored configuration list.
func (m *Manager) Configurations() []model.WifiConfiguration {
	return m.configurations
}

// RemoveConfiguration removes every entry with the given SSID.
func (m *Manager) RemoveConfiguration(ssid []byte) {
	kept := m.configurations[:0]
	for _, cfg := range m.configurations {
		if string(cfg.SSID) != string(ssid) {
			kept = append(kept, cfg)
		}
	}
	m.configurations = kept
}

// ConnectToNetwork associates with one specific network, e.g. the
// derived setup network.
func (m *Manager) ConnectToNetwork(ctx context.Context, cfg model.WifiConfiguration) error {
	return m.post(ctx, event{kind: evConnectToNetwork, cfg: cfg})
}

// ConnectToUserNetwork tries the configuration list in order until one
// network associates and resolves the probe host.
func (m *Manager) ConnectToUserNetwork(ctx context.Context) error {
	return m.post(ctx, event{kind: evConnect})
}

// Disconnect leaves the current network.
func (m *Manager) Disconnect(ctx context.Context) error {
	return m.post(ctx, event{kind: evDisconnect})
}

// Close shuts down the manager task and the driver.
func (m *Manager) Close(ctx context.Context) error {
	err := m.post(ctx, event{kind: evDeinit})
	if err != nil && !errors.Is(err, model.ErrInvalidArgument) {
		return err
	}
	return nil
}

// ConnectedConfiguration returns the network the manager last joined,
// or nil.
func (m *Manager) ConnectedConfiguration() *model.WifiConfiguration {
	return m.connected
}

// DrainConnectionAttempts returns and clears the recorded association
// attempts; the caller folds them into the next report.
func (m *Manager) DrainConnectionAttempts() []model.ConnectionAttempt {
	attempts := m.attempts
	m.attempts = nil
	return attempts
}

// handleScan retries the driver scan up to the directed-scan budget.
func (m *Manager) handleScan() error {
	var lastErr error
	for attempt := 0; attempt < scanAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), associateTimeout)
		results, err := m.driver.Scan(ctx)
		cancel()
		if err == nil {
			m.scanMu.Lock()
			m.scanResults = results
			m.scanMu.Unlock()
			m.logf(iostreams.LevelDebug, "scan found %d networks", len(results))
			return nil
		}
		lastErr = err
		m.logf(iostreams.LevelDebug, "scan attempt %d failed: %v", attempt+1, err)
	}
	return fmt.Errorf("scanning: %w", lastErr)
}

// handleConnectToNetwork associates with one network without touching
// the attempt record.
func (m *Manager) handleConnectToNetwork(cfg model.WifiConfiguration) error {
	ctx, cancel := context.WithTimeout(context.Background(), associateTimeout)
	defer cancel()
	if err := m.driver.Connect(ctx, cfg); err != nil {
		return err
	}
	clone := cfg.Clone()
	m.connected = &clone
	return nil
}

// handleConnectToUserNetwork walks the configuration list, recording one
// attempt per network, until association and the DNS probe both succeed.
func (m *Manager) handleConnectToUserNetwork() error {
	if len(m.configurations) == 0 {
		return model.ErrNoCredentials
	}

	for i := range m.configurations {
		cfg := m.configurations[i]
		m.logf(iostreams.LevelInfo, "attempting network %q", cfg.SSID)

		ctx, cancel := context.WithTimeout(context.Background(), associateTimeout)
		err := m.driver.Connect(ctx, cfg)
		cancel()
		if err != nil {
			m.recordAttempt(cfg, model.ConnectionFailed, classifyConnectError(err))
			continue
		}

		if err := m.probe(); err != nil {
			m.logf(iostreams.LevelWarn, "associated to %q but probe failed: %v", cfg.SSID, err)
			m.recordAttempt(cfg, model.ConnectionFailed, &model.ErrorDetailsLimitedConnectivity)
			m.disconnectQuietly()
			continue
		}

		m.recordAttempt(cfg, model.ConnectionAssociated, nil)
		clone := cfg.Clone()
		m.connected = &clone
		return nil
	}

	return model.ErrConnectionFailed
}

// probe resolves the probe host, retrying on an interval within the
// overall resolution budget. An SSID match alone does not count as
// connected.
func (m *Manager) probe() error {
	deadline := time.Now().Add(resolveTimeout)
	var lastErr error
	for attempt := 0; attempt < m.probeAttempts && time.Now().Before(deadline); attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout/resolveAttempts)
		err := m.resolver(ctx, m.probeHost)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(m.probeInterval)
	}
	return fmt.Errorf("resolving %s: %w", m.probeHost, lastErr)
}

func (m *Manager) handleDisconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	m.connected = nil
	return m.driver.Disconnect(ctx)
}

func (m *Manager) disconnectQuietly() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := m.driver.Disconnect(ctx); err != nil {
		m.logf(iostreams.LevelDebug, "disconnect after failed probe: %v", err)
	}
}

func (m *Manager) recordAttempt(cfg model.WifiConfiguration, state model.ConnectionState, details *model.ErrorDetails) {
	m.attempts = append(m.attempts, model.ConnectionAttempt{
		SSID:         append([]byte(nil), cfg.SSID...),
		Security:     cfg.Security,
		State:        state,
		ErrorDetails: details,
	})
}

// classifyConnectError maps a driver failure to report error details.
func classifyConnectError(err error) *model.ErrorDetails {
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return &model.ErrorDetailsAuthenticationFailed
	case errors.Is(err, ErrNetworkNotFound):
		return &model.ErrorDetailsAPNotFound
	default:
		return &model.ErrorDetailsInternalFailure
	}
}

// FilterSupported drops scan results whose security protocol the
// provisionee cannot post.
func FilterSupported(scans []model.WifiScanResult) []model.WifiScanResult {
	kept := make([]model.WifiScanResult, 0, len(scans))
	for _, scan := range scans {
		if scan.Security.Supported() {
			kept = append(kept, scan)
		}
	}
	return kept
}

func (m *Manager) logf(level iostreams.LogLevel, format string, args ...any) {
	if m.logger != nil {
		m.logger.Log(level, iostreams.CategoryWifi, format, args...)
		return
	}
	iostreams.Log(level, iostreams.CategoryWifi, format, args...)
}
