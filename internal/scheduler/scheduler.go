// ===== internal/scheduler/scheduler.go =====
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"

	"autoauth/internal/portal"
	"autoauth/internal/probe"
	"autoauth/pkg/models"
	"autoauth/pkg/utils"
)

// Status labels published outside of a normal cycle
const (
	LabelUnknown = "未知"
	LabelStopped = "停止"
	LabelFault   = "异常"
)

const logLineLimit = 120

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrStopped        = errors.New("scheduler stopped")
)

// Settings supplies what a cycle needs from the user's configuration.
// It is read once per cycle.
type Settings interface {
	Credentials() models.Credentials
	Override() models.AddressOverride
	PreferredInterface() string
}

// Prober checks internet reachability
type Prober interface {
	Probe(ctx context.Context) probe.Result
}

// Portal performs the login request
type Portal interface {
	Get(ctx context.Context, url string) (portal.Response, error)
}

// Addresses detects host addresses
type Addresses interface {
	IPv4(preferred string) (string, bool)
	IPv6(preferred string) (netip.Addr, bool)
}

// StatusSink receives status events; Publish must not block
type StatusSink interface {
	Publish(models.Status)
}

// LogSink receives one-line diagnostic records
type LogSink interface {
	Append(line string)
}

// Deps are the collaborators of a Scheduler
type Deps struct {
	Settings  Settings
	Prober    Prober
	Portal    Portal
	Addresses Addresses
	Status    StatusSink
	Log       LogSink
}

// State of a scheduler
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Scheduler runs login cycles one at a time with a fixed delay between the
// end of one cycle and the start of the next. A stopped scheduler cannot
// be restarted.
type Scheduler struct {
	deps      Deps
	portalURL string
	interval  time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the worker goroutine
	cycles uint64
}

// New creates an idle scheduler
func New(deps Deps, portalURL string, interval time.Duration) *Scheduler {
	return &Scheduler{
		deps:      deps,
		portalURL: portalURL,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start arms the first cycle immediately
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Running:
		return ErrAlreadyStarted
	case Stopped:
		return ErrStopped
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.state = Running

	s.deps.Status.Publish(models.Status{Network: LabelUnknown, Running: true, When: time.Now()})
	s.deps.Log.Append("服务已创建并开始调度")
	zap.S().Infof("Scheduler started, interval %s", s.interval)

	go s.loop(ctx)
	return nil
}

// Stop cancels the pending cycle and waits for the worker to exit. An
// in-flight request is cancelled through its context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	prev := s.state
	s.state = Stopped
	cancel := s.cancel
	s.mu.Unlock()

	switch prev {
	case Idle:
		close(s.done)
		return
	case Stopped:
		return
	}

	cancel()
	<-s.done

	s.deps.Status.Publish(models.Status{Network: LabelStopped, Running: false, When: time.Now()})
	s.deps.Log.Append("服务已停止")
	zap.S().Infof("Scheduler stopped after %d cycles", s.cycles)
}

// Done is closed when the worker goroutine exits
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.runCycle(ctx)
		timer.Reset(s.interval)
	}
}

// runCycle executes and reports one cycle
func (s *Scheduler) runCycle(ctx context.Context) {
	s.cycles++
	start := time.Now()

	st := s.safeCycle(ctx)
	if ctx.Err() != nil {
		zap.S().Debugf("Cycle %d abandoned: %v", s.cycles, ctx.Err())
		return
	}

	st.Running = true
	st.Cycle = s.cycles
	st.When = time.Now()
	s.deps.Status.Publish(st)
	zap.S().Debugf("Cycle %d finished in %s: %s", s.cycles, time.Since(start), st.Result.Kind)
}

// safeCycle contains any panic raised while running a cycle
func (s *Scheduler) safeCycle(ctx context.Context) (st models.Status) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			zap.S().Errorf("Cycle %d panicked: %v", s.cycles, r)
			s.deps.Log.Append("任务异常: " + msg)
			st = models.Status{
				Network:     LabelFault,
				LastSummary: msg,
				Result:      &models.CycleResult{Kind: models.ResultError, Message: msg},
			}
		}
	}()
	return s.cycle(ctx)
}

// cycle is probe, build, call, parse, then log
func (s *Scheduler) cycle(ctx context.Context) models.Status {
	conn := s.deps.Prober.Probe(ctx)

	resolved := ResolveAddresses(s.deps.Settings.Override(), s.deps.Settings.PreferredInterface(), s.deps.Addresses)
	url := LoginURL(s.portalURL, s.deps.Settings.Credentials(), resolved)

	var (
		result models.CycleResult
		line   string
	)
	resp, err := s.deps.Portal.Get(ctx, url)
	if err != nil {
		line = portal.FailureLine(err)
		result = models.CycleResult{Kind: models.ResultError, Message: line}
	} else {
		outcome := portal.Interpret(resp)
		line = portal.OutcomeLine(outcome)
		result = models.CycleResult{Kind: models.ResultDisconnected, Outcome: &outcome}
		if conn == probe.Connected {
			result.Kind = models.ResultConnected
		}
	}

	s.deps.Log.Append(fmt.Sprintf("网络=%s | GET结果=%s", conn.Label(), utils.FlattenLine(line, logLineLimit)))

	return models.Status{
		Network:     conn.Label(),
		LastURL:     url,
		LastSummary: utils.FirstLine(line),
		Result:      &result,
	}
}
