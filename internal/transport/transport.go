// Package transport implements the peer-to-peer UDP protocol described
// in spec section 6: broadcast-based host discovery, a handshake that
// negotiates clock offset, and a game-data channel carrying timestamped
// event datagrams. This is new surface the teacher repo has no analog
// for; its exact wire semantics are grounded on the original Python
// multiplayer connection module, its Go idiom (net.ListenUDP, JSON
// envelopes, goroutine-per-worker) on standalone UDP game server
// reference code reviewed alongside the teacher.
package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/time/rate"

	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/event"
	"arena/internal/spatial"
)

// DiscoveryMessage is broadcast by the host at DiscoveryHz.
type DiscoveryMessage struct {
	HostIP string `json:"host_ip"`
}

// HandshakeRequest is sent by the client to the host's control port.
type HandshakeRequest struct {
	Request string `json:"request"`
}

// HandshakeReply is the host's response, carrying its synced time so
// the client can compute rtt/2 offset.
type HandshakeReply struct {
	Status   string  `json:"status"`
	HostTime float64 `json:"host_time"`
}

// GameDatagram envelopes an event with the synced send timestamp.
type GameDatagram struct {
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Transport owns the UDP sockets and the thread-safe inbox that
// decoded events are pushed into; the simulation thread drains it once
// per render frame (spec section 5).
type Transport struct {
	cfg   config.TransportConfig
	clock *clock.Clock

	isHost    bool
	peerAddr  *net.UDPAddr
	gameConn  *net.UDPConn
	ingestLim *rate.Limiter

	Inbox *spatial.Queue[event.Event]
}

// New creates a Transport for role isHost with cfg and shared clock.
func New(cfg config.TransportConfig, clk *clock.Clock, isHost bool, inboxCapacity int) *Transport {
	return &Transport{
		cfg:       cfg,
		clock:     clk,
		isHost:    isHost,
		ingestLim: rate.NewLimiter(200, 50),
		Inbox:     spatial.NewQueue[event.Event](inboxCapacity),
	}
}

// discoveryAddr returns the address discovery datagrams are sent to:
// the real broadcast address normally, or the loopback variant port
// (P+1) when LocalTest is set for same-host testing.
func (t *Transport) discoveryAddr() string {
	if t.cfg.LocalTest {
		return fmt.Sprintf("127.0.0.1:%d", t.cfg.LoopbackPort())
	}
	return fmt.Sprintf("255.255.255.255:%d", t.cfg.ControlPort())
}

// BroadcastHost advertises this process as host at DiscoveryHz until
// stop is closed. Run as a goroutine on the host only.
func (t *Transport) BroadcastHost(localIP string, stop <-chan struct{}) {
	addr, err := net.ResolveUDPAddr("udp4", t.discoveryAddr())
	if err != nil {
		log.Printf("transport: resolve discovery addr: %v", err)
		return
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		log.Printf("transport: dial discovery addr: %v", err)
		return
	}
	defer conn.Close()

	msg, err := json.Marshal(DiscoveryMessage{HostIP: localIP})
	if err != nil {
		return
	}

	interval := time.Duration(float64(time.Second) / t.cfg.DiscoveryHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := conn.Write(msg); err != nil {
				log.Printf("transport: broadcast discovery: %v", err)
			}
		}
	}
}

// DiscoverHost listens for a discovery datagram and returns the
// announced host IP, or an error if timeout elapses first.
func DiscoverHost(cfg config.TransportConfig, timeout time.Duration) (string, error) {
	addr := fmt.Sprintf(":%d", cfg.ControlPort())
	if cfg.LocalTest {
		addr = fmt.Sprintf(":%d", cfg.LoopbackPort())
	}
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return "", fmt.Errorf("resolve discovery listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return "", fmt.Errorf("listen for discovery: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 512)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		return "", fmt.Errorf("no host discovered: %w", err)
	}

	var msg DiscoveryMessage
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		return "", fmt.Errorf("malformed discovery datagram: %w", err)
	}
	return msg.HostIP, nil
}

// ListenForHandshake blocks on the control port until it receives one
// valid connect request, replies with the host's current synced time,
// and returns the client's IP and the host_time sent in the reply
// (callers derive the shared deck seed and game-start instant from the
// latter). stop aborts the wait, returning an error.
func (t *Transport) ListenForHandshake(stop <-chan struct{}) (peerIP string, hostTime float64, err error) {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf(":%d", t.cfg.ControlPort()))
	if err != nil {
		return "", 0, fmt.Errorf("resolve handshake listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return "", 0, fmt.Errorf("listen for handshake: %w", err)
	}
	defer conn.Close()

	buf := make([]byte, 512)
	for {
		select {
		case <-stop:
			return "", 0, fmt.Errorf("handshake listen aborted")
		default:
		}
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue // timeout or transient error: transport-recoverable, keep listening
		}

		var req HandshakeRequest
		if err := json.Unmarshal(buf[:n], &req); err != nil || req.Request != "connect" {
			continue
		}

		t.peerAddr = remote
		hostTime = t.clock.SyncedNow()
		reply, err := json.Marshal(HandshakeReply{Status: "connected", HostTime: hostTime})
		if err != nil {
			continue
		}
		if _, err := conn.WriteToUDP(reply, remote); err != nil {
			log.Printf("transport: handshake reply: %v", err)
		}
		return remote.IP.String(), hostTime, nil
	}
}

// ConnectAsClient performs the client side of the handshake:
// sends a connect request to hostIP's control port, measures round-trip time, and
// returns the negotiated offset, rtt and the host's reported time
// (callers derive the shared deck seed from the latter).
func ConnectAsClient(cfg config.TransportConfig, hostIP string, timeout time.Duration) (offset, rtt, hostTime float64, err error) {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", hostIP, cfg.ControlPort()))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("resolve host addr: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dial host: %w", err)
	}
	defer conn.Close()

	req, err := json.Marshal(HandshakeRequest{Request: "connect"})
	if err != nil {
		return 0, 0, 0, err
	}

	t1 := float64(time.Now().UnixNano()) / 1e9
	if _, err := conn.Write(req); err != nil {
		return 0, 0, 0, fmt.Errorf("send handshake request: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("no handshake reply: %w", err)
	}
	t3 := float64(time.Now().UnixNano()) / 1e9

	var reply HandshakeReply
	if err := json.Unmarshal(buf[:n], &reply); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed handshake reply: %w", err)
	}

	offset, rtt = clock.NegotiateOffset(t1, reply.HostTime, t3)
	return offset, rtt, reply.HostTime, nil
}

// StartGameChannel opens this peer's game-data port (P+10 for the host,
// P+11 for the client) and begins decoding inbound datagrams into the
// Inbox. peerIP is the other peer's IP; Send targets that IP on the
// other role's game-data port.
func (t *Transport) StartGameChannel(peerIP string, stop <-chan struct{}) error {
	var ownPort, peerPort int
	if t.isHost {
		ownPort, peerPort = t.cfg.HostGamePort(), t.cfg.ClientGamePort()
	} else {
		ownPort, peerPort = t.cfg.ClientGamePort(), t.cfg.HostGamePort()
	}

	peerAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", peerIP, peerPort))
	if err != nil {
		return fmt.Errorf("resolve peer game addr: %w", err)
	}
	t.peerAddr = peerAddr

	listenAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf(":%d", ownPort))
	if err != nil {
		return fmt.Errorf("resolve own game addr: %w", err)
	}
	conn, err := net.ListenUDP("udp4", listenAddr)
	if err != nil {
		return fmt.Errorf("listen game channel: %w", err)
	}
	t.gameConn = conn

	go t.receiveLoop(conn, stop)
	return nil
}

func (t *Transport) receiveLoop(conn *net.UDPConn, stop <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			conn.Close()
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue // timeout or malformed: transport-recoverable, drop and keep listening
		}
		if !t.ingestLim.Allow() {
			continue // flood protection: datagram dropped
		}

		var dg GameDatagram
		if err := json.Unmarshal(buf[:n], &dg); err != nil {
			log.Printf("transport: malformed game datagram: %v", err)
			continue
		}
		var evt event.Event
		if err := json.Unmarshal(dg.Data, &evt); err != nil {
			log.Printf("transport: malformed event payload: %v", err)
			continue
		}
		var payload event.SpawnPayload
		if err := json.Unmarshal(evt.Data, &payload); err == nil {
			evt.Owner = payload.PlayerID
		}
		t.Inbox.TryPush(evt)
	}
}

// Send marshals evt as a GameDatagram with the current synced time and
// sends it to the peer's game-data port.
func (t *Transport) Send(evt event.Event) error {
	if t.gameConn == nil || t.peerAddr == nil {
		return fmt.Errorf("game channel not started")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	dg := GameDatagram{Timestamp: t.clock.SyncedNow(), Data: data}
	payload, err := json.Marshal(dg)
	if err != nil {
		return err
	}
	_, err = t.gameConn.WriteToUDP(payload, t.peerAddr)
	return err
}

// Close releases the game-data socket.
func (t *Transport) Close() {
	if t.gameConn != nil {
		t.gameConn.Close()
	}
}
