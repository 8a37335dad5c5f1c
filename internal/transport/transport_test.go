package transport

import (
	"testing"
	"time"

	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/event"
)

func testCfg(basePort int) config.TransportConfig {
	cfg := config.DefaultTransport()
	cfg.BasePort = basePort
	cfg.LocalTest = true
	return cfg
}

func TestDiscoverHostReceivesBroadcast(t *testing.T) {
	cfg := testCfg(20100)
	clk := clock.New()
	host := New(cfg, clk, true, 16)

	stop := make(chan struct{})
	defer close(stop)
	go host.BroadcastHost("127.0.0.1", stop)

	ip, err := DiscoverHost(cfg, 3*time.Second)
	if err != nil {
		t.Fatalf("DiscoverHost: %v", err)
	}
	if ip != "127.0.0.1" {
		t.Fatalf("DiscoverHost() = %q, want 127.0.0.1", ip)
	}
}

func TestDiscoverHostTimesOutWithNoBroadcaster(t *testing.T) {
	cfg := testCfg(20110)
	if _, err := DiscoverHost(cfg, 200*time.Millisecond); err == nil {
		t.Fatal("expected timeout error with no host broadcasting")
	}
}

func TestHandshakeNegotiatesOffset(t *testing.T) {
	cfg := testCfg(20120)
	hostClock := clock.New()
	hostClock.SetOffset(0)
	host := New(cfg, hostClock, true, 16)

	stop := make(chan struct{})
	defer close(stop)

	type result struct {
		peerIP   string
		hostTime float64
		err      error
	}
	done := make(chan result, 1)
	go func() {
		ip, ht, err := host.ListenForHandshake(stop)
		done <- result{ip, ht, err}
	}()

	time.Sleep(50 * time.Millisecond) // let the listener bind before dialing
	offset, rtt, hostTime, err := ConnectAsClient(cfg, "127.0.0.1", 2*time.Second)
	if err != nil {
		t.Fatalf("ConnectAsClient: %v", err)
	}
	if rtt < 0 {
		t.Fatalf("rtt = %v, want >= 0", rtt)
	}
	_ = offset

	r := <-done
	if r.err != nil {
		t.Fatalf("ListenForHandshake: %v", r.err)
	}
	if r.peerIP != "127.0.0.1" {
		t.Fatalf("ListenForHandshake peerIP = %q, want 127.0.0.1", r.peerIP)
	}
	if r.hostTime != hostTime {
		t.Fatalf("host_time mismatch: listener saw %v, client saw %v", r.hostTime, hostTime)
	}
}

func TestListenForHandshakeAbortsOnStop(t *testing.T) {
	cfg := testCfg(20130)
	clk := clock.New()
	host := New(cfg, clk, true, 16)

	stop := make(chan struct{})
	close(stop)

	_, _, err := host.ListenForHandshake(stop)
	if err == nil {
		t.Fatal("expected error when stop is already closed")
	}
}

func TestGameChannelRoundTrip(t *testing.T) {
	hostCfg := testCfg(20140)
	clientCfg := testCfg(20140)

	hostClock := clock.New()
	clientClock := clock.New()

	host := New(hostCfg, hostClock, true, 16)
	client := New(clientCfg, clientClock, false, 16)

	stop := make(chan struct{})
	defer close(stop)

	if err := host.StartGameChannel("127.0.0.1", stop); err != nil {
		t.Fatalf("host StartGameChannel: %v", err)
	}
	if err := client.StartGameChannel("127.0.0.1", stop); err != nil {
		t.Fatalf("client StartGameChannel: %v", err)
	}

	evt, err := event.NewSpawnEvent(1.0, event.SpawnPayload{
		EntityType:   event.Caballero,
		GridPosition: [2]int{3, 3},
		PlayerID:     "2",
	})
	if err != nil {
		t.Fatalf("NewSpawnEvent: %v", err)
	}

	if err := client.Send(evt); err != nil {
		t.Fatalf("client Send: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if v, ok := host.Inbox.TryPop(); ok {
			if v.Owner != "2" {
				t.Fatalf("received event owner = %q, want 2", v.Owner)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for event to arrive in host inbox")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSendWithoutGameChannelFails(t *testing.T) {
	cfg := testCfg(20150)
	clk := clock.New()
	tr := New(cfg, clk, true, 16)

	evt, err := event.NewSpawnEvent(0, event.SpawnPayload{
		EntityType:   event.Caballero,
		GridPosition: [2]int{0, 0},
		PlayerID:     "1",
	})
	if err != nil {
		t.Fatalf("NewSpawnEvent: %v", err)
	}
	if err := tr.Send(evt); err == nil {
		t.Fatal("expected Send to fail before StartGameChannel")
	}
}
