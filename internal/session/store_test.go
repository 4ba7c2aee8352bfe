package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/onboarding"
	"github.com/lores-mesh/site-admin/internal/result"
)

type emptyNode struct{}

func (emptyNode) Show(context.Context) result.Lookup[domain.Region] {
	return result.Absent[domain.Region]()
}

func (emptyNode) Create(context.Context, domain.NewRegion) (result.Result[domain.Region], error) {
	return result.Result[domain.Region]{}, nil
}

func (emptyNode) Bootstrap(context.Context, domain.JoinRegion) (result.Result[domain.Region], error) {
	return result.Result[domain.Region]{}, nil
}

func (emptyNode) Kind() domain.ScopeKind { return domain.ScopeNode }

func (emptyNode) FindLocal(context.Context) result.Lookup[domain.Local] {
	return result.Absent[domain.Local]()
}

func (emptyNode) CreateLocal(context.Context, domain.NewLocal) (result.Result[domain.Local], error) {
	return result.Result[domain.Local]{}, nil
}

func newTestStore() (*Store, *int) {
	created := 0
	store := NewStore(func(id string) *onboarding.Orchestrator {
		created++
		return onboarding.New(emptyNode{}, emptyNode{}, onboarding.WithSessionID(id))
	})
	return store, &created
}

func TestStore_GetCreatesOnce(t *testing.T) {
	store, created := newTestStore()

	a := store.Get("a")
	assert.Same(t, a, store.Get("a"))
	assert.NotSame(t, a, store.Get("b"))
	assert.Equal(t, 2, *created)
	assert.Equal(t, "a", a.SessionID())
}

func TestStore_Sweep(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Get("old")
	now = now.Add(45 * time.Minute)
	store.Get("fresh")

	removed := store.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Lookup("old")
	assert.False(t, ok)
	_, ok = store.Lookup("fresh")
	assert.True(t, ok)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, _ := newTestStore()

	r := gin.New()
	r.Use(Middleware(store, "/admin", false))
	r.GET("/admin/ping", func(c *gin.Context) {
		o, ok := Orchestrator(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"session": ID(c), "same": o.SessionID() == ID(c)})
	})

	t.Run("issues cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))

		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.NoError(t, uuid.Validate(cookies[0].Value))
		assert.True(t, cookies[0].HttpOnly)
		assert.Contains(t, w.Body.String(), `"same":true`)
	})

	t.Run("reuses cookie", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Result().Cookies())
		assert.Contains(t, w.Body.String(), id)
		_, ok := store.Lookup(id)
		assert.True(t, ok)
	})

	t.Run("replaces garbage cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Len(t, w.Result().Cookies(), 1)
		assert.NotEqual(t, "not-a-uuid", w.Result().Cookies()[0].Value)
	})
}

func TestSweeper_StartRejectsBadSpec(t *testing.T) {
	store, _ := newTestStore()
	s := NewSweeper(store, time.Minute)
	assert.Error(t, s.Start("not a cron spec"))
}
