package bridge

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/session"
)

// Client talks to a bridge server, e.g. from the send command or tests.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Dial connects to addr without transport security; the bridge is loopback only.
func Dial(addr string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(conn), conn, nil
}

// Arm arms the bomb and returns the resulting snapshot.
func (c *Client) Arm(ctx context.Context) (session.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodArm, &emptypb.Empty{}, out); err != nil {
		return session.Snapshot{}, err
	}
	var snap session.Snapshot
	err := decode(out, &snap)
	return snap, err
}

// Send submits one signal.
func (c *Client) Send(ctx context.Context, sig session.Signal) error {
	in, err := encode(sig)
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, methodSend, in, new(emptypb.Empty))
}

// Snapshot fetches the session state.
func (c *Client) Snapshot(ctx context.Context) (session.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodSnapshot, &emptypb.Empty{}, out); err != nil {
		return session.Snapshot{}, err
	}
	var snap session.Snapshot
	err := decode(out, &snap)
	return snap, err
}

// Watch calls fn for every outbound event until the stream or ctx ends.
func (c *Client) Watch(ctx context.Context, fn func(events.Event)) error {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], methodWatch)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var ev events.Event
		if err := decode(msg, &ev); err != nil {
			return err
		}
		fn(ev)
	}
}
