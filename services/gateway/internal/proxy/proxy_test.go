package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/trip-booking/services/gateway/internal/registry"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// closeNotifyRecorder adds the CloseNotify method gin's writer asserts
// on when ReverseProxy watches for client disconnects; a bare
// ResponseRecorder panics there.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func newRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder()}
}

func newGateway(t *testing.T, routes []Route, targets map[string][]string) *gin.Engine {
	t.Helper()
	reg := registry.New()
	for name, urls := range targets {
		require.NoError(t, reg.Add(name, urls))
	}
	r := gin.New()
	New(reg, routes).Register(r)
	return r
}

func TestPrefixStrippedAndRewritten(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath, gotQuery = req.URL.Path, req.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":"item-1"}]`))
	}))
	defer backend.Close()

	r := newGateway(t,
		[]Route{{Prefix: "/api/items", Service: "booking", Rewrite: "/items", Label: "Booking service"}},
		map[string][]string{"booking": {backend.URL}},
	)

	w := newRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items/item-1?category=hotel", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/items/item-1", gotPath)
	assert.Equal(t, "category=hotel", gotQuery)
	assert.Equal(t, `[{"id":"item-1"}]`, w.Body.String())
}

func TestBodyAndHeadersForwarded(t *testing.T) {
	var gotAuth, gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	r := newGateway(t,
		[]Route{{Prefix: "/api/bookings", Service: "booking", Rewrite: "/bookings", Label: "Booking service"}},
		map[string][]string{"booking": {backend.URL}},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"item_id":"item-1","party_size":2}`))
	req.Header.Set("Authorization", "Bearer token-1")
	w := newRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, `{"item_id":"item-1","party_size":2}`, gotBody)
}

func TestDeadBackendBecomes503Envelope(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	backend.Close() // nothing listening anymore

	r := newGateway(t,
		[]Route{{Prefix: "/api/payments", Service: "payment", Rewrite: "/payments", Label: "Payment service"}},
		map[string][]string{"payment": {backend.URL}},
	)

	w := newRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Payment service unavailable", body["error"])
}

func TestRoundRobinAcrossBackends(t *testing.T) {
	hits := map[string]int{}
	mk := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits[name]++
			w.WriteHeader(http.StatusOK)
		}))
	}
	b1, b2 := mk("b1"), mk("b2")
	defer b1.Close()
	defer b2.Close()

	r := newGateway(t,
		[]Route{{Prefix: "/api/items", Service: "booking", Rewrite: "/items", Label: "Booking service"}},
		map[string][]string{"booking": {b1.URL, b2.URL}},
	)

	for i := 0; i < 4; i++ {
		w := newRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, hits["b1"])
	assert.Equal(t, 2, hits["b2"])
}

func TestRewritePath(t *testing.T) {
	cases := []struct {
		path, prefix, rewrite, want string
	}{
		{"/api/users/register", "/api/users", "", "/register"},
		{"/api/users", "/api/users", "", "/"},
		{"/api/bookings", "/api/bookings", "/bookings", "/bookings"},
		{"/api/bookings/bk-1/cancel", "/api/bookings", "/bookings", "/bookings/bk-1/cancel"},
		{"/api/notifications/ntf-1/read", "/api/notifications", "/notifications", "/notifications/ntf-1/read"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rewritePath(tc.path, tc.prefix, tc.rewrite), tc.path)
	}
}
