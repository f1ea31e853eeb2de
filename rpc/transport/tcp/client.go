package tcp

import (
	"net"
	"strings"
	"time"

	"github.com/ValentinKolb/dRide/rpc/common"
	"github.com/ValentinKolb/dRide/rpc/transport"
	"github.com/ValentinKolb/dRide/rpc/transport/base"
)

const dialTimeout = 5 * time.Second

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

// Connect dials the endpoint, a leading tcp:// is ignored
func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	return dialer.Dial("tcp", strings.TrimPrefix(endpoint, "tcp://"))
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.SocketConfig) error {
	return base.UpgradeTCPConn(conn, config)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPClientTransport creates a new TCP client transport
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
