package unix

import (
	"net"
	"strings"
	"time"

	"github.com/ValentinKolb/dRide/rpc/common"
	"github.com/ValentinKolb/dRide/rpc/transport"
	"github.com/ValentinKolb/dRide/rpc/transport/base"
)

const dialTimeout = 5 * time.Second

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

// Connect dials the endpoint, a leading unix:// is ignored
func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	return dialer.Dial("unix", strings.TrimPrefix(endpoint, "unix://"))
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.SocketConfig) error {
	return base.UpgradeUnixConn(conn, config)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new Unix client transport
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
