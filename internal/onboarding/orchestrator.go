// Package onboarding drives a machine from "no region" to a fully
// resolved region and local identity. One Orchestrator serves one
// session; it owns the authoritative region and local state and folds
// every node API round-trip into it.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/loading"
	"github.com/lores-mesh/site-admin/internal/logging"
	"github.com/lores-mesh/site-admin/internal/result"
	"github.com/lores-mesh/site-admin/internal/scope"
	"github.com/lores-mesh/site-admin/internal/stage"
)

type Option func(*Orchestrator)

func WithEvents(sink events.Sink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

func WithSessionID(id string) Option {
	return func(o *Orchestrator) { o.sessionID = id }
}

// WithNodeBootstrapper enables BootstrapNode. Only node deployments
// have one.
func WithNodeBootstrapper(b NodeBootstrapper) Option {
	return func(o *Orchestrator) { o.bootstrapper = b }
}

type Orchestrator struct {
	regions      RegionService
	locals       LocalService
	bootstrapper NodeBootstrapper
	sink         events.Sink
	sessionID    string

	loading   *loading.Controller
	seq       loading.Sequencer
	mountOnce sync.Once

	mu       sync.RWMutex
	resolved bool
	stage    stage.Stage
	region   *domain.Region
	local    domain.Local
	scope    scope.Scope
	formErr  *FormError
	failure  error
	version  uint64
	changed  chan struct{}
}

func New(regions RegionService, locals LocalService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		regions: regions,
		locals:  locals,
		sink:    events.Discard{},
		loading: loading.NewController(),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.loading.OnChange(func(bool) {
		o.mu.Lock()
		o.touchLocked()
		o.mu.Unlock()
	})
	return o
}

func (o *Orchestrator) Kind() domain.ScopeKind { return o.locals.Kind() }

func (o *Orchestrator) SessionID() string { return o.sessionID }

// Mount starts the initial resolution in the background. Only the first
// call has an effect. The loading flag is already set when Mount returns.
func (o *Orchestrator) Mount(ctx context.Context) {
	o.mountOnce.Do(func() {
		o.loading.Start(context.WithoutCancel(ctx), func(ctx context.Context) error {
			return o.resolve(ctx, events.TriggerResolve)
		})
	})
}

// Refresh re-runs the resolution fetch and waits for it.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	return o.loading.WithLoading(ctx, func(ctx context.Context) error {
		return o.resolve(ctx, events.TriggerResolve)
	})
}

// Retry clears a blocking failure and resolves again.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mountOnce.Do(func() {})

	o.mu.Lock()
	o.failure = nil
	o.formErr = nil
	o.touchLocked()
	o.mu.Unlock()

	return o.Refresh(ctx)
}

// Wait blocks until no resolution is in flight.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.loading.Wait(ctx)
}

func (o *Orchestrator) View() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.viewLocked()
}

// Stage reports the last resolved stage and whether there is one.
func (o *Orchestrator) Stage() (stage.Stage, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stage, o.resolved
}

// Scope returns the resolved scope once the stage is Ready and no
// failure is pending.
func (o *Orchestrator) Scope() (scope.Scope, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.resolved || o.failure != nil || o.stage != stage.Ready || o.scope.IsZero() {
		return scope.Scope{}, false
	}
	return o.scope, true
}

// Changed returns a channel that is closed at the next state change.
func (o *Orchestrator) Changed() <-chan struct{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.changed
}

func (o *Orchestrator) CreateRegion(ctx context.Context, form domain.NewRegion) (View, error) {
	return o.submit(ctx, submission{
		form:    FormNewRegion,
		trigger: events.TriggerCreateRegion,
		allowed: []stage.Stage{stage.NoRegion},
		invalid: form.Validate(),
		call: func(ctx context.Context, _ *domain.Region) (fold, error) {
			res, err := o.regions.Create(ctx, form)
			return o.foldRegion(ctx, res, err)
		},
	})
}

func (o *Orchestrator) JoinRegion(ctx context.Context, form domain.JoinRegion) (View, error) {
	return o.submit(ctx, submission{
		form:    FormJoinRegion,
		trigger: events.TriggerJoinRegion,
		allowed: []stage.Stage{stage.NoRegion},
		invalid: form.Validate(),
		call: func(ctx context.Context, _ *domain.Region) (fold, error) {
			res, err := o.regions.Bootstrap(ctx, form)
			return o.foldRegion(ctx, res, err)
		},
	})
}

func (o *Orchestrator) CreateLocal(ctx context.Context, form domain.NewLocal) (View, error) {
	return o.submit(ctx, submission{
		form:    FormNewLocal,
		trigger: events.TriggerCreateLocal,
		allowed: []stage.Stage{stage.RegionPendingNode},
		invalid: form.Validate(),
		call: func(ctx context.Context, current *domain.Region) (fold, error) {
			res, err := o.locals.CreateLocal(ctx, form)
			if err != nil {
				return fold{}, err
			}
			if !res.IsOk() {
				return fold{domainErr: res.Error()}, nil
			}
			return fold{region: current, local: res.Value()}, nil
		},
	})
}

// BootstrapNode points this node at a peer of an existing network. The
// node API returns nothing useful, so success triggers a new resolution.
func (o *Orchestrator) BootstrapNode(ctx context.Context, form domain.BootstrapNode) (View, error) {
	if o.bootstrapper == nil || o.Kind() != domain.ScopeNode {
		return o.View(), ErrUnsupported
	}
	return o.submit(ctx, submission{
		form:    FormBootstrapNode,
		trigger: events.TriggerBootstrapNode,
		allowed: []stage.Stage{stage.NoRegion, stage.RegionPendingNode},
		invalid: form.Validate(),
		call: func(ctx context.Context, _ *domain.Region) (fold, error) {
			res, err := o.bootstrapper.Bootstrap(ctx, form)
			if err != nil {
				return fold{}, err
			}
			if !res.IsOk() {
				return fold{domainErr: res.Error()}, nil
			}
			return fold{reresolve: true}, nil
		},
	})
}

// fold is what a successful or domain-failed submission contributes.
type fold struct {
	region    *domain.Region
	local     domain.Local
	domainErr *result.DomainError
	lookupErr error
	reresolve bool
}

type submission struct {
	form    string
	trigger events.Trigger
	allowed []stage.Stage
	invalid *result.DomainError
	call    func(ctx context.Context, current *domain.Region) (fold, error)
}

func (o *Orchestrator) submit(ctx context.Context, s submission) (View, error) {
	logger := logging.NewLogger(ctx)

	if _, resolved := o.Stage(); !resolved {
		o.Mount(ctx)
		if err := o.Wait(ctx); err != nil {
			return o.View(), err
		}
	}

	o.mu.Lock()
	switch {
	case o.failure != nil:
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrBlocked
	case !o.resolved || !slices.Contains(s.allowed, o.stage):
		v := o.viewLocked()
		o.mu.Unlock()
		return v, &WrongStageError{Stage: v.Stage}
	}
	var current *domain.Region
	if o.region != nil {
		r := *o.region
		current = &r
	}
	if s.invalid != nil {
		o.formErr = &FormError{Form: s.form, Code: s.invalid.Code, Message: s.invalid.Message}
		o.touchLocked()
		v := o.viewLocked()
		o.mu.Unlock()
		return v, s.invalid
	}
	o.mu.Unlock()

	f, err := s.call(ctx, current)
	// Ticket is taken once the answer is in so the write outranks any
	// resolution that read the node while the call was in flight.
	ticket := o.seq.Next()
	switch {
	case err != nil:
		logger.LogErrorf(string(s.trigger), "submission failed: %v", err)
		o.applyFailure(ctx, ticket, err)
		return o.View(), err

	case f.domainErr != nil:
		logger.LogWarnf(string(s.trigger), "node api rejected %s: %s", s.form, f.domainErr.Message)
		o.mu.Lock()
		o.formErr = &FormError{Form: s.form, Code: f.domainErr.Code, Message: f.domainErr.Message}
		o.touchLocked()
		v := o.viewLocked()
		o.mu.Unlock()
		return v, f.domainErr

	case f.reresolve:
		err := o.loading.WithLoading(ctx, func(ctx context.Context) error {
			return o.resolve(ctx, s.trigger)
		})
		return o.View(), err
	}

	o.applyResolution(ctx, ticket, s.trigger, f.region, f.local)
	if f.lookupErr != nil {
		o.applyFailure(ctx, ticket, f.lookupErr)
		return o.View(), f.lookupErr
	}
	return o.View(), nil
}

// foldRegion turns a create/join answer into a fold. On success the local
// identity is looked up so an already registered node yields Ready.
func (o *Orchestrator) foldRegion(ctx context.Context, res result.Result[domain.Region], err error) (fold, error) {
	if err != nil {
		return fold{}, err
	}
	if !res.IsOk() {
		return fold{domainErr: res.Error()}, nil
	}
	region := res.Value()
	f := fold{region: &region}

	lookup := o.locals.FindLocal(ctx)
	switch {
	case lookup.IsFailed():
		f.lookupErr = fmt.Errorf("resolve local identity: %w", lookup.Cause())
	case lookup.IsPresent():
		f.local, _ = lookup.Value()
	}
	return f, nil
}

func (o *Orchestrator) resolve(ctx context.Context, trigger events.Trigger) error {
	ticket := o.seq.Next()

	regionLookup := o.regions.Show(ctx)
	localLookup := result.Absent[domain.Local]()
	if regionLookup.IsPresent() {
		localLookup = o.locals.FindLocal(ctx)
	}

	if _, err := stage.Classify(regionLookup, localLookup); err != nil {
		logging.NewLogger(ctx).LogError("resolve", err)
		o.applyFailure(ctx, ticket, err)
		return err
	}

	var region *domain.Region
	if r, ok := regionLookup.Value(); ok {
		region = &r
	}
	local, _ := localLookup.Value()
	o.applyResolution(ctx, ticket, trigger, region, local)
	return nil
}

// applyResolution replaces the resolved state unless a newer fetch or
// submission has already been applied.
func (o *Orchestrator) applyResolution(ctx context.Context, ticket uint64, trigger events.Trigger, region *domain.Region, local domain.Local) {
	var ev events.Event
	var incomplete error
	applied := o.seq.Apply(ticket, func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		from, wasResolved := o.stage, o.resolved
		to := stage.Resolve(region, local)
		if region == nil {
			local = nil
		}

		var sc scope.Scope
		if to == stage.Ready {
			var err error
			if sc, err = scope.New(*region, local); err != nil {
				incomplete = fmt.Errorf("node api returned an incomplete identity: %w", err)
			}
		}

		o.resolved = true
		o.stage = to
		o.region = region
		o.local = local
		o.scope = sc
		o.formErr = nil
		o.touchLocked()

		ev = o.eventLocked(trigger, to)
		if wasResolved {
			ev.From = &from
		}
	})
	if !applied {
		logging.NewLogger(ctx).LogDebugf(string(trigger), "discarded stale resolution ticket=%d", ticket)
		return
	}

	logging.NewLogger(ctx).LogInfof(string(trigger), "session=%s stage=%s", o.sessionID, *ev.To)
	o.record(ctx, ev)
	if incomplete != nil {
		o.applyFailure(ctx, ticket, incomplete)
	}
}

// applyFailure enters the blocking failed state. The last resolved stage
// is kept so it is never mistaken for NoRegion.
func (o *Orchestrator) applyFailure(ctx context.Context, ticket uint64, cause error) {
	var ev events.Event
	applied := o.seq.Apply(ticket, func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		o.failure = cause
		o.touchLocked()

		ev = events.Event{
			SessionID: o.sessionID,
			Trigger:   events.TriggerFailure,
			Error:     cause.Error(),
		}
		if o.resolved {
			st := o.stage
			ev.From = &st
			ev.To = &st
		}
	})
	if applied {
		o.record(ctx, ev)
	}
}

func (o *Orchestrator) eventLocked(trigger events.Trigger, to stage.Stage) events.Event {
	ev := events.Event{
		SessionID: o.sessionID,
		Trigger:   trigger,
		To:        &to,
	}
	if o.region != nil {
		ev.Region = o.region.Name
	}
	if o.local != nil {
		ev.Local = o.local.LocalName()
	}
	return ev
}

func (o *Orchestrator) record(ctx context.Context, ev events.Event) {
	if err := o.sink.Record(context.WithoutCancel(ctx), ev); err != nil {
		logging.NewLogger(ctx).LogWarnf("record_event", "failed to record %s event: %v", ev.Trigger, err)
	}
}

func (o *Orchestrator) touchLocked() {
	o.version++
	close(o.changed)
	o.changed = make(chan struct{})
}

func (o *Orchestrator) viewLocked() View {
	isLoading := o.loading.Loading()
	v := View{
		Screen:    screenFor(isLoading, o.resolved, o.failure, o.stage),
		Loading:   isLoading,
		ScopeKind: o.locals.Kind(),
		Local:     o.local,
		Version:   o.version,
	}
	if o.resolved {
		st := o.stage
		v.Stage = &st
	}
	if o.region != nil {
		r := *o.region
		v.Region = &r
	}
	if o.formErr != nil {
		fe := *o.formErr
		v.FormError = &fe
	}
	if o.failure != nil {
		v.Failure = o.failure.Error()
	}
	return v
}

// WrongStageError reports a submission made in a stage that does not
// offer it. It matches domain.ErrWrongStage.
type WrongStageError struct {
	Stage *stage.Stage
}

func (e *WrongStageError) Error() string {
	if e.Stage == nil {
		return fmt.Sprintf("%s: onboarding not resolved yet", domain.ErrWrongStage)
	}
	return fmt.Sprintf("%s: stage is %s", domain.ErrWrongStage, *e.Stage)
}

func (e *WrongStageError) Unwrap() error { return domain.ErrWrongStage }

// IsWrongStage reports whether err is a stage guard rejection.
func IsWrongStage(err error) bool {
	return errors.Is(err, domain.ErrWrongStage)
}
