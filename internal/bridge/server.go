package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/session"
)

// DefaultAddr keeps the bridge on loopback: the engine runs on the same machine.
const DefaultAddr = "127.0.0.1:7421"

// Server implements BridgeServer on top of one session.
type Server struct {
	sess *session.Session
	bus  *events.Bus
	log  zerolog.Logger
}

// NewServer serves sess; Watch streams whatever is emitted on bus.
func NewServer(sess *session.Session, bus *events.Bus, log zerolog.Logger) *Server {
	return &Server{sess: sess, bus: bus, log: log.With().Str("component", "bridge").Logger()}
}

func (s *Server) Arm(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.sess.Arm()
	return s.snapshot()
}

func (s *Server) Send(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	sig, err := decodeSignal(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.sess.Submit(sig); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.snapshot()
}

func (s *Server) Watch(_ *emptypb.Empty, stream Bridge_WatchServer) error {
	ch, cancel := s.bus.Subscribe()
	defer cancel()
	s.log.Debug().Msg("watch started")
	defer s.log.Debug().Msg("watch ended")

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := encode(ev)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (s *Server) snapshot() (*structpb.Struct, error) {
	msg, err := encode(s.sess.Snapshot())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return msg, nil
}

// Serve listens on addr and serves until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge listen: %w", err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is done.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	g := grpc.NewServer()
	RegisterBridgeServer(g, s)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			g.GracefulStop()
		case <-stop:
		}
	}()

	s.log.Info().Str("addr", lis.Addr().String()).Msg("bridge listening")
	if err := g.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	s.log.Info().Msg("bridge stopped")
	return nil
}

// encode converts a JSON-tagged value to a Struct.
func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(b, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// decode converts a Struct back into a JSON-tagged value.
func decode(msg *structpb.Struct, v any) error {
	b, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func decodeSignal(msg *structpb.Struct) (session.Signal, error) {
	var sig session.Signal
	if msg == nil {
		return sig, fmt.Errorf("%w: empty message", session.ErrBadSignal)
	}
	if err := decode(msg, &sig); err != nil {
		return sig, fmt.Errorf("%w: %v", session.ErrBadSignal, err)
	}
	return sig, nil
}
