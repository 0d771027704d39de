// Fakehaproxy is a stand-in HAProxy stats endpoint for running haproxy-status
// locally. It serves "show stat" CSV over HTTP and, with -socket, over a unix
// socket. The single server of the "www" pool flaps between UP and DOWN every -flap.
//
// Usage:
//
//	go run fakehaproxy.go -port 9000 -socket /tmp/haproxy.sock -flap 45s
//
// Then point haproxy.stats_url at http://127.0.0.1:9000/stats or
// file:///tmp/haproxy.sock.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/angeloszaimis/haproxy-status/pkg/logger"
)

const header = "# pxname,svname,status,lastchg,\n"

type pool struct {
	mutex   sync.Mutex
	started time.Time
	flapped time.Time
	down    bool
}

func (p *pool) flap() (down bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.down = !p.down
	p.flapped = time.Now()
	return p.down
}

func (p *pool) showStat() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := time.Now()
	up := int(now.Sub(p.started) / time.Second)
	flapped := int(now.Sub(p.flapped) / time.Second)

	// www is single-homed on srv2, so its pool follows it.
	status := "UP"
	if p.down {
		status = "DOWN"
	}

	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "www,FRONTEND,OPEN,,\n")
	fmt.Fprintf(&b, "www,srv2,%s,%d,\n", status, flapped)
	fmt.Fprintf(&b, "www,BACKEND,%s,%d,\n", status, flapped)
	fmt.Fprintf(&b, "api__blue,FRONTEND,OPEN,,\n")
	fmt.Fprintf(&b, "api__blue,web1,UP,%d,\n", up)
	fmt.Fprintf(&b, "api__blue,BACKEND,UP,%d,\n", up)
	return b.String()
}

func main() {
	port := flag.Int("port", 9000, "http port to listen on")
	socket := flag.String("socket", "", "optional unix socket path")
	flapEvery := flag.Duration("flap", 45*time.Second, "how often www/srv2 changes state")
	flag.Parse()

	log := logger.New(os.Stdout, "debug", false, "dev", "fakehaproxy")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	now := time.Now()
	p := &pool{started: now, flapped: now}

	go func() {
		ticker := time.NewTicker(*flapEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info("www/srv2 flapped", slog.Bool("down", p.flap()))
			}
		}
	}()

	if *socket != "" {
		go serveSocket(ctx, *socket, p, log)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		log.Debug("stats request", slog.String("from", r.RemoteAddr))
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, p.showStat())
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Info("starting fake haproxy", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func serveSocket(ctx context.Context, path string, p *pool, log *slog.Logger) {
	os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		log.Error("socket listen failed", slog.String("path", path), slog.Any("err", err))
		return
	}
	go func() {
		<-ctx.Done()
		ln.Close()
		os.Remove(path)
	}()

	log.Info("serving stats socket", slog.String("path", path))
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))

			cmd, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return
			}
			if strings.TrimSpace(cmd) != "show stat" {
				io.WriteString(conn, "Unknown command.\n")
				return
			}
			io.WriteString(conn, p.showStat())
		}(conn)
	}
}
