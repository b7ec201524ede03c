package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamos/internal/poll"
)

type fakeRender struct {
	triggerCode int
	triggerID   string
	statuses    []string
	pollCode    int

	triggers atomic.Int32
	polls    atomic.Int32
	auth     atomic.Value
}

func (f *fakeRender) server(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/services/{service}/deploys", func(w http.ResponseWriter, r *http.Request) {
		f.triggers.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		if f.triggerCode != 0 {
			http.Error(w, "nope", f.triggerCode)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": f.triggerID, "status": "created"})
	})
	r.Get("/services/{service}/deploys/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.polls.Add(1))
		if f.pollCode != 0 {
			http.Error(w, "poll broke", f.pollCode)
			return
		}
		s := f.statuses[len(f.statuses)-1]
		if n <= len(f.statuses) {
			s = f.statuses[n-1]
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": chi.URLParam(r, "id"), "status": s})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func client(url string, attempts uint, secrets map[string]string) *Client {
	c := NewClient(url, poll.Policy{Interval: time.Millisecond, MaxAttempts: attempts}, time.Second)
	c.Secrets = func(name string) (string, bool) {
		v, ok := secrets[name]
		return v, ok
	}
	return c
}

var staging = Environment{Name: "staging", ServiceID: "srv-1", APIKeySecret: "RENDER_WORKER_STAGING_API_KEY"}

var keys = map[string]string{"RENDER_WORKER_STAGING_API_KEY": "k3y"}

func TestDeployReachesLive(t *testing.T) {
	f := &fakeRender{triggerID: "dep-42", statuses: []string{"queued", "build_in_progress", "live"}}
	srv := f.server(t)

	out := client(srv.URL, 30, keys).Deploy(context.Background(), staging)

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "dep-42", out.DeployID)
	assert.Equal(t, StatusLive, out.FinalStatus)
	assert.Equal(t, "staging", out.Environment)
	assert.Equal(t, int32(3), f.polls.Load())
	assert.Equal(t, "Bearer k3y", f.auth.Load())
}

func TestDeployMissingSecretMakesNoCall(t *testing.T) {
	f := &fakeRender{triggerID: "dep-1", statuses: []string{"live"}}
	srv := f.server(t)

	out := client(srv.URL, 30, nil).Deploy(context.Background(), staging)

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "RENDER_WORKER_STAGING_API_KEY")
	assert.Equal(t, int32(0), f.triggers.Load())
}

func TestDeployTriggerRejected(t *testing.T) {
	f := &fakeRender{triggerCode: http.StatusUnauthorized}
	srv := f.server(t)

	out := client(srv.URL, 30, keys).Deploy(context.Background(), staging)

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "401")
	assert.Equal(t, int32(0), f.polls.Load())
}

func TestDeployWithoutID(t *testing.T) {
	f := &fakeRender{statuses: []string{"live"}}
	srv := f.server(t)

	out := client(srv.URL, 30, keys).Deploy(context.Background(), staging)

	assert.False(t, out.Success)
	assert.Equal(t, "no deploy id returned", out.Error)
}

func TestDeployFailureTerminal(t *testing.T) {
	for _, status := range []string{StatusBuildFailed, StatusDeactivated, StatusCanceled} {
		t.Run(status, func(t *testing.T) {
			f := &fakeRender{triggerID: "dep-7", statuses: []string{"queued", status}}
			srv := f.server(t)

			out := client(srv.URL, 30, keys).Deploy(context.Background(), staging)

			assert.False(t, out.Success)
			assert.Equal(t, status, out.FinalStatus)
			assert.Equal(t, int32(2), f.polls.Load())
		})
	}
}

func TestDeployBudgetExhausted(t *testing.T) {
	f := &fakeRender{triggerID: "dep-9", statuses: []string{"build_in_progress"}}
	srv := f.server(t)

	out := client(srv.URL, 4, keys).Deploy(context.Background(), staging)

	assert.False(t, out.Success)
	assert.Equal(t, "build_in_progress", out.FinalStatus)
	assert.Contains(t, out.Error, `last status "build_in_progress"`)
	assert.Equal(t, int32(4), f.polls.Load())
}

func TestDeployPollErrorAborts(t *testing.T) {
	f := &fakeRender{triggerID: "dep-3", pollCode: http.StatusBadGateway}
	srv := f.server(t)

	out := client(srv.URL, 30, keys).Deploy(context.Background(), staging)

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "502")
	assert.Equal(t, int32(1), f.polls.Load())
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal("live"))
	assert.True(t, Terminal("canceled"))
	assert.False(t, Terminal("queued"))
	assert.False(t, Terminal(""))
}
