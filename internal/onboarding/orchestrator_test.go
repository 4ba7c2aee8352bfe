package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/result"
	"github.com/lores-mesh/site-admin/internal/scope"
	"github.com/lores-mesh/site-admin/internal/stage"
)

var errUnreachable = &gateway.TransportError{Operation: "this_region", Err: errors.New("connection refused")}

// fakeNode is an in-memory node API.
type fakeNode struct {
	mu         sync.Mutex
	kind       domain.ScopeKind
	region     *domain.Region
	local      domain.Local
	showErr    error
	localErr   error
	createErr  *result.DomainError
	transport  error
	showCalls  int
	localCalls  int
	createCalls int
	gate        chan struct{}
	createGate  chan struct{}
}

func newFakeNode(kind domain.ScopeKind) *fakeNode {
	return &fakeNode{kind: kind}
}

func (f *fakeNode) Show(ctx context.Context) result.Lookup[domain.Region] {
	// The answer is fixed when the call arrives; gate only delays it.
	f.mu.Lock()
	f.showCalls++
	gate := f.gate
	var lookup result.Lookup[domain.Region]
	switch {
	case f.showErr != nil:
		lookup = result.Failed[domain.Region](f.showErr)
	case f.region == nil:
		lookup = result.Absent[domain.Region]()
	default:
		lookup = result.Present(*f.region)
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return lookup
}

func (f *fakeNode) Create(ctx context.Context, form domain.NewRegion) (result.Result[domain.Region], error) {
	// The region only exists once createGate opens.
	f.mu.Lock()
	f.createCalls++
	gate := f.createGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport != nil {
		return result.Result[domain.Region]{}, f.transport
	}
	if f.createErr != nil {
		return result.Err[domain.Region](f.createErr), nil
	}
	f.region = &domain.Region{ID: "r-1", NetworkID: form.Name, Name: form.Name, Description: form.Description}
	return result.Ok(*f.region), nil
}

func (f *fakeNode) Bootstrap(ctx context.Context, form domain.JoinRegion) (result.Result[domain.Region], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport != nil {
		return result.Result[domain.Region]{}, f.transport
	}
	f.region = &domain.Region{ID: form.NetworkName, NetworkID: form.NetworkName, Name: form.NetworkName}
	return result.Ok(*f.region), nil
}

func (f *fakeNode) Kind() domain.ScopeKind { return f.kind }

func (f *fakeNode) FindLocal(ctx context.Context) result.Lookup[domain.Local] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.localCalls++
	if f.localErr != nil {
		return result.Failed[domain.Local](f.localErr)
	}
	if f.local == nil {
		return result.Absent[domain.Local]()
	}
	return result.Present(f.local)
}

func (f *fakeNode) CreateLocal(ctx context.Context, form domain.NewLocal) (result.Result[domain.Local], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport != nil {
		return result.Result[domain.Local]{}, f.transport
	}
	if f.createErr != nil {
		return result.Err[domain.Local](f.createErr), nil
	}
	if f.kind == domain.ScopeSite {
		f.local = domain.Site{ID: "s-1", Name: form.Name}
	} else {
		f.local = domain.Node{ID: "n-1", Name: form.Name}
	}
	return result.Ok(f.local), nil
}

type fakeBootstrapper struct {
	node *fakeNode
	err  *result.DomainError
}

func (b *fakeBootstrapper) Bootstrap(ctx context.Context, form domain.BootstrapNode) (result.Result[json.RawMessage], error) {
	if b.err != nil {
		return result.Err[json.RawMessage](b.err), nil
	}
	b.node.mu.Lock()
	b.node.region = &domain.Region{ID: form.NetworkName, NetworkID: form.NetworkName, Name: form.NetworkName}
	b.node.mu.Unlock()
	return result.Ok(json.RawMessage("null")), nil
}

func newOrchestrator(t *testing.T, node *fakeNode, opts ...Option) *Orchestrator {
	t.Helper()
	return New(node, node, opts...)
}

func mustStage(t *testing.T, v View) stage.Stage {
	t.Helper()
	require.NotNil(t, v.Stage, "view has no resolved stage")
	return *v.Stage
}

func TestRefresh_NoRegionShowsRegionChoice(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)

	require.NoError(t, o.Refresh(context.Background()))

	v := o.View()
	assert.Equal(t, ScreenRegionChoice, v.Screen)
	assert.Equal(t, stage.NoRegion, mustStage(t, v))
	assert.False(t, v.Loading)
	assert.Nil(t, v.Region)
	assert.Zero(t, node.localCalls, "local identity is not looked up without a region")

	_, ok := o.Scope()
	assert.False(t, ok)
}

func TestRefresh_IsIdempotent(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	node.region = &domain.Region{ID: "r-1", NetworkID: "riverside", Name: "riverside"}
	o := newOrchestrator(t, node)

	require.NoError(t, o.Refresh(context.Background()))
	first := mustStage(t, o.View())
	require.NoError(t, o.Refresh(context.Background()))
	second := mustStage(t, o.View())

	assert.Equal(t, stage.RegionPendingNode, first)
	assert.Equal(t, first, second)
}

func TestCreateRegion_Riverside(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)

	assert.Equal(t, stage.RegionPendingNode, mustStage(t, v))
	assert.Equal(t, ScreenLocalSetup, v.Screen)
	require.NotNil(t, v.Region)
	assert.Equal(t, "riverside", v.Region.Name)
	assert.Nil(t, v.FormError)
	assert.Equal(t, 1, node.showCalls, "success folds the payload instead of re-fetching")
}

func TestCreateRegion_PreexistingNodeYieldsReady(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))
	node.local = domain.Node{ID: "n-1", Name: "node-a"}

	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)
	assert.Equal(t, stage.Ready, mustStage(t, v))

	sc, ok := o.Scope()
	require.True(t, ok)
	assert.Equal(t, "riverside", sc.Region().Name)
	n, ok := sc.Node()
	require.True(t, ok)
	assert.Equal(t, "node-a", n.Name)
}

func TestCreateLocal_NodeA(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	node.region = &domain.Region{ID: "r-1", NetworkID: "riverside", Name: "riverside"}
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))
	require.Equal(t, ScreenLocalSetup, o.View().Screen)

	v, err := o.CreateLocal(context.Background(), domain.NewLocal{Name: "node-a"})
	require.NoError(t, err)
	assert.Equal(t, stage.Ready, mustStage(t, v))
	assert.Equal(t, ScreenReady, v.Screen)

	sc, ok := o.Scope()
	require.True(t, ok)
	ctx := scope.WithScope(context.Background(), sc)
	assert.Equal(t, "node-a", scope.MustNode(ctx).Name)
	assert.Equal(t, "riverside", scope.MustRegion(ctx).Name)
}

func TestCreateLocal_SiteScope(t *testing.T) {
	node := newFakeNode(domain.ScopeSite)
	node.region = &domain.Region{ID: "r-1", NetworkID: "riverside", Name: "riverside"}
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.CreateLocal(context.Background(), domain.NewLocal{Name: "site-a"})
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeSite, v.ScopeKind)

	sc, ok := o.Scope()
	require.True(t, ok)
	site, ok := sc.Site()
	require.True(t, ok)
	assert.Equal(t, "site-a", site.Name)
}

func TestCreateRegion_DomainErrorStaysOnStage(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	node.createErr = &result.DomainError{Status: http.StatusConflict, Code: result.CodeConflict, Message: "Region already exists"}
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.Error(t, err)

	var domainErr *result.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusConflict, domainErr.Status)

	assert.Equal(t, stage.NoRegion, mustStage(t, v))
	assert.Equal(t, ScreenRegionChoice, v.Screen)
	require.NotNil(t, v.FormError)
	assert.Equal(t, FormNewRegion, v.FormError.Form)
	assert.Equal(t, "Region already exists", v.FormError.Message)
	assert.Empty(t, v.Failure)

	_, ok := o.Scope()
	assert.False(t, ok, "no context is propagated")
}

func TestCreateRegion_ValidationMakesNoRemoteCall(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "River Side"})
	require.Error(t, err)
	require.NotNil(t, v.FormError)
	assert.Equal(t, result.CodeValidation, v.FormError.Code)
	assert.Nil(t, node.region)
}

func TestTransportFailure_IsNeverNoRegion(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	node.showErr = errUnreachable
	o := newOrchestrator(t, node)

	err := o.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrTransport)

	v := o.View()
	assert.Equal(t, ScreenFailed, v.Screen)
	assert.Nil(t, v.Stage, "a failed first resolution has no stage")
	assert.NotEmpty(t, v.Failure)
	assert.False(t, v.Loading)
}

func TestTransportFailure_BlocksUntilRetry(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	node.transport = errUnreachable
	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	assert.ErrorIs(t, err, gateway.ErrTransport)
	assert.Equal(t, ScreenFailed, v.Screen)
	assert.Equal(t, stage.NoRegion, mustStage(t, v), "last resolved stage is kept")

	node.transport = nil
	_, err = o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	assert.ErrorIs(t, err, ErrBlocked)

	require.NoError(t, o.Retry(context.Background()))
	v = o.View()
	assert.Equal(t, ScreenRegionChoice, v.Screen)
	assert.Empty(t, v.Failure)

	_, err = o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)
}

func TestLocalLookupFailureAfterCreateRegion(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	node.localErr = errUnreachable
	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.Error(t, err)
	assert.Equal(t, ScreenFailed, v.Screen)
	require.NotNil(t, v.Region)
	assert.Equal(t, "riverside", v.Region.Name)
}

func TestWrongStage(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)

	require.NoError(t, o.Refresh(context.Background()))
	_, err := o.CreateLocal(context.Background(), domain.NewLocal{Name: "node-a"})
	assert.ErrorIs(t, err, domain.ErrWrongStage)

	var wrong *WrongStageError
	require.True(t, errors.As(err, &wrong))
	require.NotNil(t, wrong.Stage)
	assert.Equal(t, stage.NoRegion, *wrong.Stage)
}

func TestJoinRegion(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.JoinRegion(context.Background(), domain.JoinRegion{
		NetworkName:   "riverside",
		BootstrapPeer: &domain.BootstrapPeer{NodeID: "abc123", IP4: "192.168.1.10"},
	})
	require.NoError(t, err)
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, v))
	assert.Equal(t, "riverside", v.Region.NetworkID)
}

func TestJoinRegion_InvalidPeer(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.JoinRegion(context.Background(), domain.JoinRegion{
		NetworkName:   "riverside",
		BootstrapPeer: &domain.BootstrapPeer{NodeID: "abc123", IP4: "300.1.1.1"},
	})
	require.Error(t, err)
	require.NotNil(t, v.FormError)
	assert.Equal(t, FormJoinRegion, v.FormError.Form)
}

func TestBootstrapNode(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node, WithNodeBootstrapper(&fakeBootstrapper{node: node}))
	require.NoError(t, o.Refresh(context.Background()))

	v, err := o.BootstrapNode(context.Background(), domain.BootstrapNode{NetworkName: "riverside", NodeID: "abc123", IPAddress: "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, v))
	assert.Equal(t, 2, node.showCalls, "bootstrap has no payload so the state is resolved again")
}

func TestBootstrapNode_Unsupported(t *testing.T) {
	node := newFakeNode(domain.ScopeSite)
	o := newOrchestrator(t, node, WithNodeBootstrapper(&fakeBootstrapper{node: node}))
	require.NoError(t, o.Refresh(context.Background()))

	_, err := o.BootstrapNode(context.Background(), domain.BootstrapNode{NetworkName: "riverside", NodeID: "abc123", IPAddress: "10.0.0.2"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMount_RunsOnce(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	node.gate = make(chan struct{})
	o := newOrchestrator(t, node)

	assert.False(t, o.View().Loading, "flag is false before the first fetch")
	o.Mount(context.Background())
	o.Mount(context.Background())

	v := o.View()
	assert.True(t, v.Loading)
	assert.Equal(t, ScreenLoading, v.Screen)

	close(node.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))

	v = o.View()
	assert.False(t, v.Loading)
	assert.Equal(t, ScreenRegionChoice, v.Screen)
	assert.Equal(t, 1, node.showCalls)
}

func TestChanged_ClosesOnTransition(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	changed := o.Changed()
	before := o.View().Version

	require.NoError(t, o.Refresh(context.Background()))

	select {
	case <-changed:
	default:
		t.Fatal("expected change notification")
	}
	assert.Greater(t, o.View().Version, before)
}

func TestStaleResolutionIsDiscarded(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	gate := make(chan struct{})
	node.mu.Lock()
	node.gate = gate
	node.mu.Unlock()

	// This refresh sees no region but lands after the create below.
	done := make(chan error, 1)
	go func() { done <- o.Refresh(context.Background()) }()
	assert.Eventually(t, func() bool {
		node.mu.Lock()
		defer node.mu.Unlock()
		return node.showCalls == 2
	}, time.Second, 5*time.Millisecond)

	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)
	require.Equal(t, stage.RegionPendingNode, mustStage(t, v))

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, o.View()))
	assert.False(t, o.View().Loading)
}

func TestSubmissionOutranksConcurrentRefresh(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)
	require.NoError(t, o.Refresh(context.Background()))

	gate := make(chan struct{})
	node.mu.Lock()
	node.createGate = gate
	node.mu.Unlock()

	type outcome struct {
		view View
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
		done <- outcome{v, err}
	}()
	assert.Eventually(t, func() bool {
		node.mu.Lock()
		defer node.mu.Unlock()
		return node.createCalls == 1
	}, time.Second, 5*time.Millisecond)

	// Reads the node while the create is still in flight.
	require.NoError(t, o.Retry(context.Background()))
	assert.Equal(t, stage.NoRegion, mustStage(t, o.View()))

	close(gate)
	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, out.view))

	v := o.View()
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, v))
	require.NotNil(t, v.Region)
	assert.Equal(t, "riverside", v.Region.Name)
}

func TestSubmissionResolvesFirst(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	o := newOrchestrator(t, node)

	// No Mount or Refresh beforehand.
	v, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)
	assert.Equal(t, stage.RegionPendingNode, mustStage(t, v))
	assert.False(t, v.Loading)

	node.mu.Lock()
	defer node.mu.Unlock()
	assert.Equal(t, 1, node.showCalls)
	assert.Equal(t, 1, node.createCalls)
}

func TestEventsRecorded(t *testing.T) {
	node := newFakeNode(domain.ScopeNode)
	store := events.NewMemoryStore(10)
	o := newOrchestrator(t, node, WithEvents(store), WithSessionID("sess-1"))

	require.NoError(t, o.Refresh(context.Background()))
	_, err := o.CreateRegion(context.Background(), domain.NewRegion{Name: "riverside", Description: "test"})
	require.NoError(t, err)
	_, err = o.CreateLocal(context.Background(), domain.NewLocal{Name: "node-a"})
	require.NoError(t, err)

	got, err := store.Recent(context.Background(), "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, events.TriggerCreateLocal, got[0].Trigger)
	assert.Equal(t, stage.Ready, *got[0].To)
	assert.Equal(t, stage.RegionPendingNode, *got[0].From)
	assert.Equal(t, "node-a", got[0].Local)

	assert.Equal(t, events.TriggerResolve, got[2].Trigger)
	assert.Nil(t, got[2].From)
}
