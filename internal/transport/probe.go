package transport

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// probeEndpoints are well-known resolvers used only to confirm the network
// is reachable before a run burns its retry budget on every item.
var probeEndpoints = []string{
	"8.8.8.8:53",
	"1.1.1.1:53",
	"208.67.222.222:53",
}

const probeTimeout = 3 * time.Second

// Probe confirms basic internet connectivity. It returns a *Error with kind
// ErrNoConnectivity when none of the probe endpoints accept a connection,
// which is fatal to the whole run.
func Probe(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: probeTimeout}
	for _, endpoint := range probeEndpoints {
		conn, err := dialer.DialContext(ctx, "tcp", endpoint)
		if err == nil {
			conn.Close()
			return nil
		}
		slog.Debug("Connectivity probe failed", "endpoint", endpoint, "err", err)
		if ctx.Err() != nil {
			return &Error{Kind: ErrCancelled, Err: ctx.Err()}
		}
	}
	return &Error{Kind: ErrNoConnectivity}
}
