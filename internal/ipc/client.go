package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 2 * time.Second

// Send delivers one command to the timer listening on socketPath and
// returns its response. A response with Success false is not an error here;
// callers decide how to report it.
func Send(ctx context.Context, socketPath string, cmd Command) (Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("failed to connect to timer socket (%s), is the timer running with --control?: %w", socketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("failed to send command %s: %w", cmd.Name, err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to receive response: %w", err)
	}
	return resp, nil
}
