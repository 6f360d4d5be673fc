package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/store"
)

// SyncState represents the current state of a resource sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// Resource names a polled collection.
type Resource string

const (
	ResourceApplications  Resource = store.ResourceApplications
	ResourceNotifications Resource = store.ResourceNotifications
)

// SyncStatus holds the sync state for a single resource.
type SyncStatus struct {
	Resource Resource
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Resource Resource
	UserID   string

	// Applications is set for application syncs.
	Applications []model.Application

	// Notifications is set for notification syncs; NewNotifications holds
	// the ones that were not in the previous snapshot.
	Notifications    []model.Notification
	NewNotifications []model.Notification
	Unread           int

	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is sent when the API rejects the current identity.
type AuthErrorMsg struct {
	Resource Resource
	Message  string
}

// Fetcher is the subset of the API client the poller needs.
type Fetcher interface {
	ListApplications(ctx context.Context, opts api.RequestOptions) ([]model.Application, error)
	ListNotifications(ctx context.Context, opts api.RequestOptions) ([]model.Notification, error)
}

// Identity supplies the request options of the signed-in user.
type Identity interface {
	Options() api.RequestOptions
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 120 * time.Second

// Poller orchestrates background polling of the board and notifications.
type Poller struct {
	fetcher  Fetcher
	identity Identity
	store    store.Store
	logger   *zap.Logger
	interval time.Duration

	statuses map[Resource]*SyncStatus
	triggers map[Resource]chan struct{}
	resultCh chan SyncResultMsg

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup

	mu      gosync.Mutex
	running bool
	stopped bool
}

// New creates a Poller. A non-positive interval falls back to
// DefaultInterval.
func New(f Fetcher, id Identity, s store.Store, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		fetcher:  f,
		identity: id,
		store:    s,
		logger:   logger,
		interval: interval,
		statuses: make(map[Resource]*SyncStatus),
		triggers: make(map[Resource]chan struct{}),
		resultCh: make(chan SyncResultMsg, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, r := range []Resource{ResourceApplications, ResourceNotifications} {
		p.statuses[r] = &SyncStatus{Resource: r, State: SyncIdle}
		p.triggers[r] = make(chan struct{}, 1)
	}
	return p
}

// Start returns a tea.Cmd that starts the polling goroutines and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	for r := range p.triggers {
		p.wg.Add(1)
		go p.poll(r)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines and waits for them to exit. A Poller
// cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	wasRunning := p.running
	p.running = false
	p.mu.Unlock()

	p.cancel()
	if wasRunning {
		p.wg.Wait()
	}
	close(p.resultCh)
}

// RefreshAll triggers an immediate poll of every resource.
func (p *Poller) RefreshAll() tea.Cmd {
	for r := range p.triggers {
		p.trigger(r)
	}
	return nil
}

// Refresh triggers an immediate poll of one resource.
func (p *Poller) Refresh(r Resource) tea.Cmd {
	p.trigger(r)
	return nil
}

func (p *Poller) trigger(r Resource) {
	ch, ok := p.triggers[r]
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
		// A refresh is already queued.
	}
}

// GetStatuses returns the current sync status of every resource.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, r := range []Resource{ResourceApplications, ResourceNotifications} {
		statuses = append(statuses, *p.statuses[r])
	}
	return statuses
}

// poll runs the polling loop for a single resource.
func (p *Poller) poll(r Resource) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.syncOnce(r)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.syncOnce(r)
		case <-p.triggers[r]:
			p.syncOnce(r)
		}
	}
}

// syncOnce fetches one resource, replaces its snapshot and reports the
// outcome. Nothing is fetched while signed out.
func (p *Poller) syncOnce(r Resource) {
	opts := p.identity.Options()
	if opts.Identity == "" {
		return
	}

	p.setStatus(r, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(p.ctx, fetchTimeout)
	defer cancel()

	msg := SyncResultMsg{Resource: r, UserID: opts.Identity}
	var err error
	switch r {
	case ResourceApplications:
		err = p.syncApplications(ctx, opts, &msg)
	case ResourceNotifications:
		err = p.syncNotifications(ctx, opts, &msg)
	}

	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.setStatus(r, SyncError, err)
		p.logger.Warn("sync failed", zap.String("resource", string(r)), zap.Error(err))
		msg.Error = err
		if api.IsUnauthorized(err) {
			msg.AuthError = &AuthErrorMsg{
				Resource: r,
				Message:  "Session expired. Press 'L' to sign in again.",
			}
		}
		p.sendResult(msg)
		return
	}

	p.setStatus(r, SyncIdle, nil)
	p.sendResult(msg)
}

func (p *Poller) syncApplications(ctx context.Context, opts api.RequestOptions, msg *SyncResultMsg) error {
	apps, err := p.fetcher.ListApplications(ctx, opts)
	if err != nil {
		return err
	}
	if err := p.store.ReplaceApplications(ctx, opts.Identity, apps); err != nil {
		return err
	}
	msg.Applications = apps
	return nil
}

func (p *Poller) syncNotifications(ctx context.Context, opts api.RequestOptions, msg *SyncResultMsg) error {
	ns, err := p.fetcher.ListNotifications(ctx, opts)
	if err != nil {
		return err
	}
	added, err := p.store.ReplaceNotifications(ctx, opts.Identity, ns)
	if err != nil {
		return err
	}
	msg.Notifications = ns
	msg.NewNotifications = added
	msg.Unread = model.CountUnread(ns)
	if len(added) > 0 {
		p.logger.Info("new notifications", zap.Int("count", len(added)))
	}
	return nil
}

// setStatus updates the sync status for a resource.
func (p *Poller) setStatus(r Resource, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[r]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
