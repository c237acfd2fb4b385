package relay

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailedWriteDropsRegistration(t *testing.T) {
	r, _, url := startRelay(t)
	ws := dial(t, url)
	register(t, ws, "p1")

	c, ok := r.Registry().Lookup("p1")
	require.True(t, ok)
	tcp, ok := c.ws.NetConn().(*net.TCPConn)
	require.True(t, ok)
	require.NoError(t, tcp.CloseWrite())

	require.True(t, c.Send([]byte(`{"type":"PING"}`)))
	waitFor(t, func() bool { return r.Registry().Len() == 0 })
}
