package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/game"
	"github.com/xtding233/defuse-backend/internal/metrics"
	"github.com/xtding233/defuse-backend/internal/puzzle"
	"github.com/xtding233/defuse-backend/internal/session"
)

func newSession(t *testing.T, sink events.Sink) *session.Session {
	t.Helper()
	s, err := session.New(game.Params{
		Countdown:  bomb.CountdownConfig{Total: 10, SlowInterval: 1, FastInterval: 0.5},
		KeypadID:   "keypad",
		KeypadCode: "7",
		TapeID:     "tape",
		Tape:       puzzle.CutSensorConfig{RequiredDistance: 0.1, RequiredTime: 0.5},
		ShapesID:   "shapes",
		Sockets:    []puzzle.SocketConfig{{ID: "s1", Accepts: "cube"}},
		WiresID:    "wires",
		WireIDs:    []string{"red", "blue", "green", "yellow"},
		DefuseWire: "blue",
		Pliers:     puzzle.DefaultPliersConfig(),
		DrillID:    "drill",
		DrillRPM:   60,
		Screw:      puzzle.ScrewConfig{ThreadPitch: 0.01, UnscrewDistance: 0.01, Direction: 1},
		Lids:       []puzzle.LidConfig{{ID: "lid", TotalScrews: 1}},
	}, session.WithSink(sink))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndSnapshot(t *testing.T) {
	sess := newSession(t, nil)
	h := New(sess)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"pending"`)

	rec = do(t, h, http.MethodGet, "/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, sess.ID(), snap.ID)
	assert.Equal(t, "idle", snap.State)
}

func TestArmOnlyOnce(t *testing.T) {
	h := New(newSession(t, nil))

	rec := do(t, h, http.MethodPost, "/v1/session/arm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"armed"`)

	rec = do(t, h, http.MethodPost, "/v1/session/arm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignals(t *testing.T) {
	sess := newSession(t, nil)
	h := New(sess)

	rec := do(t, h, http.MethodPost, "/v1/signals", `{"kind":"shape_place","target":"s1","shape":"cube"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	sess.Tick(0)
	assert.True(t, sess.Snapshot().Sockets[0].Filled)

	cases := map[string]string{
		"unknown kind":  `{"kind":"teleport"}`,
		"missing side":  `{"kind":"pliers_grab","on":true}`,
		"unknown field": `{"kind":"arm","force":true}`,
		"not json":      `kind=arm`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/signals", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestMetricsAndScenarios(t *testing.T) {
	c := metrics.New()
	sess := newSession(t, c)
	h := New(sess,
		WithMetrics(c.Handler()),
		WithScenarios(func() ([]string, error) { return []string{"training"}, nil }),
	)
	require.True(t, sess.Arm())

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "defuse_armed_total 1")

	rec = do(t, h, http.MethodGet, "/v1/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"scenarios":["training"]}`, rec.Body.String())

	failing := New(sess, WithScenarios(func() ([]string, error) { return nil, errors.New("disk gone") }))
	rec = do(t, failing, http.MethodGet, "/v1/scenarios", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	rec := do(t, New(newSession(t, nil)), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
