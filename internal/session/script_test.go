package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/game"
)

func TestParseScriptRejectsBadSignals(t *testing.T) {
	_, err := ParseScript(strings.NewReader("steps:\n  - signals:\n      - {kind: teleport}\n"))
	assert.ErrorIs(t, err, ErrBadSignal)

	_, err = ParseScript(strings.NewReader("steps:\n  - {dt: 1, wait: 2}\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestRunScriptStopsAtOutcome(t *testing.T) {
	sc, err := ParseScript(strings.NewReader(`
steps:
  - signals: [{kind: arm}]
  - {dt: 30, repeat: 5}
  - signals: [{kind: key, key: "1"}]
`))
	require.NoError(t, err)

	s, _ := newSession(t)
	snap, err := RunScript(s, sc)
	require.NoError(t, err)
	assert.Equal(t, "exploded", snap.Outcome)
	assert.Equal(t, uint64(3), snap.Frames, "arm frame plus two 30 s frames")
	assert.Zero(t, snap.Keypad.Entered)
}

func TestShippedScripts(t *testing.T) {
	_, params, err := game.NewLoader(filepath.Join("..", "..", "configs")).Resolve("", game.Overrides{})
	require.NoError(t, err)

	for name, want := range map[string]string{
		"defuse.yaml":     "defused",
		"wrong-wire.yaml": "exploded",
	} {
		t.Run(name, func(t *testing.T) {
			f, err := os.Open(filepath.Join("..", "..", "configs", "scripts", name))
			require.NoError(t, err)
			defer f.Close()
			sc, err := ParseScript(f)
			require.NoError(t, err)

			rec := &events.Recorder{}
			s, err := New(params, WithSink(rec))
			require.NoError(t, err)
			snap, err := RunScript(s, sc)
			require.NoError(t, err)
			assert.Equal(t, want, snap.Outcome, "reason: %s", snap.Reason)
			assert.Len(t, rec.OfType(events.BombOutcome), 1)
		})
	}
}
