package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"arena/internal/board"
	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/game"
	"arena/internal/menu"
	"arena/internal/transport"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found, using environment variables only")
		}
	}

	if len(os.Args) < 2 || (os.Args[1] != "1" && os.Args[1] != "2") {
		fmt.Fprintln(os.Stderr, "usage: arena 1|2   (1 = host, 2 = client)")
		os.Exit(1)
	}
	owner := os.Args[1]
	isHost := owner == "1"

	appCfg := config.Load()
	log.Println("================================")
	log.Println(" ARENA — lockstep simulation core")
	log.Printf(" role: player %s (%s)", owner, roleName(isHost))
	log.Println("================================")

	var (
		clk      *clock.Clock
		g        *game.Game
		stopGame = make(chan struct{})
	)

	if isHost {
		clk = clock.New()
		tr := transport.New(appCfg.Transport, clk, true, appCfg.Limits.InboxCapacity)

		localIP, err := outboundIP()
		if err != nil {
			log.Fatalf("determine local IP: %v", err)
		}
		go tr.BroadcastHost(localIP, stopGame)

		log.Println("waiting for a client to connect...")
		peerIP, hostTime, err := tr.ListenForHandshake(stopGame)
		if err != nil {
			log.Fatalf("handshake: %v", err)
		}
		log.Printf("client connected from %s", peerIP)

		if err := tr.StartGameChannel(peerIP, stopGame); err != nil {
			log.Fatalf("start game channel: %v", err)
		}

		deckSeed := menu.DeckSeedFromHostTime(hostTime)
		g = game.New(appCfg, owner, true, clk, tr, deckSeed, hostTime)
	} else {
		clk = clock.New()

		var (
			hostIP           string
			offset, _, hTime float64
			connected        bool
		)
		for attempt := 1; attempt <= appCfg.Transport.HandshakeRetries; attempt++ {
			log.Printf("discovering host (attempt %d/%d)...", attempt, appCfg.Transport.HandshakeRetries)
			ip, err := transport.DiscoverHost(appCfg.Transport, 2*time.Second)
			if err != nil {
				log.Printf("no host discovered: %v", err)
				time.Sleep(time.Duration(appCfg.Transport.HandshakeInterval * float64(time.Second)))
				continue
			}

			off, rtt, ht, err := transport.ConnectAsClient(appCfg.Transport, ip, 2*time.Second)
			if err != nil {
				log.Printf("handshake with %s failed: %v", ip, err)
				time.Sleep(time.Duration(appCfg.Transport.HandshakeInterval * float64(time.Second)))
				continue
			}

			hostIP, offset, hTime = ip, off, ht
			log.Printf("connected to host %s (rtt=%.3fs, offset=%.3fs)", ip, rtt, off)
			connected = true
			break
		}
		if !connected {
			log.Println("failed to connect after retries")
			os.Exit(1)
		}

		clk.SetOffset(offset)
		tr := transport.New(appCfg.Transport, clk, false, appCfg.Limits.InboxCapacity)
		if err := tr.StartGameChannel(hostIP, stopGame); err != nil {
			log.Fatalf("start game channel: %v", err)
		}

		deckSeed := menu.DeckSeedFromHostTime(hTime)
		g = game.New(appCfg, owner, false, clk, tr, deckSeed, hTime)
	}

	if err := g.Start(); err != nil {
		log.Fatalf("start game: %v", err)
	}
	log.Println("game ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(40 * time.Millisecond) // render-frame cadence, 25 Hz
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			log.Println("shutting down...")
			close(stopGame)
			g.Close()
			log.Println("goodbye")
			return
		case <-ticker.C:
			g.DrainInbox()
			g.Advance(clk.SyncedNow())

			switch g.Winner() {
			case board.Won:
				log.Println("victory")
				close(stopGame)
				g.Close()
				return
			case board.Lost:
				log.Println("defeat")
				close(stopGame)
				g.Close()
				return
			}
		}
	}
}

func roleName(isHost bool) string {
	if isHost {
		return "host"
	}
	return "client"
}

// outboundIP returns the local IP that would be used to reach the
// public internet, without sending any traffic: dialing UDP never
// transmits a packet until Write is called.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
