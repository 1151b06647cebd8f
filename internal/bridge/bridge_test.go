package bridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/game"
	"github.com/xtding233/defuse-backend/internal/puzzle"
	"github.com/xtding233/defuse-backend/internal/session"
)

func testParams() game.Params {
	return game.Params{
		Version:    "bridge-test",
		Countdown:  bomb.CountdownConfig{Total: 30, SlowInterval: 1, FastInterval: 0.5},
		KeypadID:   "keypad",
		KeypadCode: "42",
		TapeID:     "tape",
		Tape:       puzzle.CutSensorConfig{RequiredDistance: 0.1, RequiredTime: 0.5},
		ShapesID:   "shapes",
		Sockets:    []puzzle.SocketConfig{{ID: "s1", Accepts: "star"}},
		WiresID:    "wires",
		WireIDs:    []string{"wire-1", "wire-2", "wire-3", "wire-4"},
		DefuseWire: "wire-2",
		Pliers:     puzzle.DefaultPliersConfig(),
		DrillID:    "drill",
		DrillRPM:   60,
		Screw:      puzzle.ScrewConfig{ThreadPitch: 0.01, UnscrewDistance: 0.01, Direction: 1},
		Lids:       []puzzle.LidConfig{{ID: "lid", TotalScrews: 1, ReleaseHold: 0.2}},
	}
}

type rig struct {
	sess   *session.Session
	bus    *events.Bus
	client *Client
}

func newRig(t *testing.T) *rig {
	t.Helper()
	bus := events.NewBus(16)
	sess, err := session.New(testParams(), session.WithSink(bus))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(sess, bus, zerolog.Nop()).ServeListener(ctx, lis) }()

	client, conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		require.NoError(t, <-done)
		bus.Close()
		sess.Close()
	})
	return &rig{sess: sess, bus: bus, client: client}
}

func TestArmReturnsSnapshot(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	snap, err := r.client.Arm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "armed", snap.State)
	assert.Equal(t, "pending", snap.Outcome)
	assert.Equal(t, r.sess.ID(), snap.ID)
	assert.Equal(t, "bridge-test", snap.Version)
	assert.InDelta(t, 30, snap.Total, 1e-9)
	assert.Len(t, snap.Wires, 4)
	require.Len(t, snap.Lids, 1)
	assert.Equal(t, "lid-screw-1", snap.Lids[0].Screws[0].ID)

	again, err := r.client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "armed", again.State)
}

func TestSendQueuesSignal(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	_, err := r.client.Arm(ctx)
	require.NoError(t, err)

	require.NoError(t, r.client.Send(ctx, session.Signal{Kind: session.SigShapePlace, Target: "s1", Shape: "star"}))
	require.NoError(t, r.client.Send(ctx, session.Signal{Kind: session.SigHands, Left: session.Vec{0, 1, 0}, Right: session.Vec{0.1, 1, 0}}))
	r.sess.Tick(0)

	snap, err := r.client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Sockets, 1)
	assert.True(t, snap.Sockets[0].Filled)
}

func TestSendRejectsBadSignal(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	err := r.client.Send(ctx, session.Signal{Kind: "warp"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = r.client.Send(ctx, session.Signal{Kind: session.SigPliersGrab, Side: "middle"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestWatchStreamsEvents(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan events.Event, 8)
	done := make(chan error, 1)
	go func() { done <- r.client.Watch(ctx, func(e events.Event) { got <- e }) }()
	require.Eventually(t, func() bool { return r.bus.Subscribers() == 1 }, 5*time.Second, 5*time.Millisecond)

	r.sess.Arm()

	select {
	case e := <-got:
		assert.Equal(t, events.BombArmed, e.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no event streamed")
	}

	cancel()
	err := <-done
	assert.Equal(t, codes.Canceled, status.Code(err))
}

func TestDecodeSignal(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{
		"kind":     "trigger_enter",
		"tag":      "Cutter",
		"position": []any{0.5, 0, 0},
		"at":       1.25,
	})
	require.NoError(t, err)

	sig, err := decodeSignal(msg)
	require.NoError(t, err)
	assert.Equal(t, session.SigTriggerEnter, sig.Kind)
	assert.Equal(t, session.Vec{0.5, 0, 0}, sig.Position)
	require.NotNil(t, sig.At)
	assert.InDelta(t, 1.25, *sig.At, 1e-12)

	_, err = decodeSignal(nil)
	assert.ErrorIs(t, err, session.ErrBadSignal)

	bad, err := structpb.NewStruct(map[string]any{"kind": "key", "key": 7.0})
	require.NoError(t, err)
	_, err = decodeSignal(bad)
	assert.ErrorIs(t, err, session.ErrBadSignal)
}
