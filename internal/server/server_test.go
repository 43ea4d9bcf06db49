package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/metrics"
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/internal/session"
	"github.com/vk/wirestate/internal/store"
	"github.com/zclconf/go-cty/cty"
)

type doubleInput struct {
	Count int `wire:"count"`
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	zero := cty.NumberIntVal(0)
	model := &config.Model{
		Components: map[string]*config.ComponentDefinition{
			"counter": {
				Name: "counter",
				Properties: map[string]*config.PropertyDefinition{
					"count": {Name: "count", Type: cty.Number, Cast: "integer", Default: &zero},
				},
				Computed: map[string]*config.ComputedDefinition{
					"double": {Name: "double", Handler: "Double"},
				},
			},
		},
	}

	reg := registry.New()
	reg.RegisterComputed("Double", &registry.RegisteredComputed{
		NewInput:  func() any { return new(doubleInput) },
		InputType: reflect.TypeOf(doubleInput{}),
		Fn: func(ctx context.Context, in *doubleInput) (int, error) {
			return in.Count * 2, nil
		},
	})
	reg.PopulateDefinitionsFromModel(model)
	require.NoError(t, reg.Validate(context.Background()))

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	sess := session.New(reg, store.New(), m)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	srv := httptest.NewServer(New(sess, m, promReg, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postUpdate(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/wirestate/update", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleUpdate_OK(t *testing.T) {
	srv := testServer(t)

	resp := postUpdate(t, srv, `{"component":"counter","updates":{"count":21}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out session.UpdateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "counter", out.Component)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, float64(21), out.State["count"])
	assert.Equal(t, float64(42), out.Computed["double"])
}

func TestHandleUpdate_ValidationErrorIs422(t *testing.T) {
	srv := testServer(t)

	resp := postUpdate(t, srv, `{"component":"counter","updates":{"count":1.5}}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out struct {
		Kind     string `json:"kind"`
		Property string `json:"property"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "validation", out.Kind)
	assert.Equal(t, "count", out.Property)
}

func TestHandleUpdate_UnknownComponentIs404(t *testing.T) {
	srv := testServer(t)

	resp := postUpdate(t, srv, `{"component":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleUpdate_MalformedBodyIs400(t *testing.T) {
	srv := testServer(t)

	resp := postUpdate(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postUpdate(t, srv, `{"updates":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing component name")
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)

	// Run one cycle so the counters exist.
	resp := postUpdate(t, srv, `{"component":"counter","updates":{"count":1}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "wirestate_cycles_total")
}
