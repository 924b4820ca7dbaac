package indication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// maxDatagram is the largest telemetry blob accepted in one datagram.
const maxDatagram = 64 * 1024

// messageBuffer is the listener's channel depth; when the pipeline lags,
// older blobs are dropped in favor of newer ones.
const messageBuffer = 16

// Listener receives telemetry blobs over UDP and hands them off as complete
// UTF-8 strings. It owns its receive goroutine; the pipeline only ever sees
// parsed text, never shared buffers.
type Listener struct {
	conn     *net.UDPConn
	logger   *slog.Logger
	messages chan string
	wg       sync.WaitGroup
}

// Listen binds a UDP port and starts the receive loop. The loop stops when
// ctx is cancelled or Close is called.
func Listen(ctx context.Context, port int, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind telemetry port %d: %w", port, err)
	}
	l := &Listener{
		conn:     conn,
		logger:   logger,
		messages: make(chan string, messageBuffer),
	}
	l.wg.Add(1)
	go l.receive()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	go func() {
		l.wg.Wait()
		stop()
	}()

	logger.Info("telemetry listener started", "port", l.Port())
	return l, nil
}

// Port returns the bound UDP port.
func (l *Listener) Port() int {
	if addr, ok := l.conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}

// Messages is the stream of received blobs, NFC-normalized. The channel is
// closed when the listener stops.
func (l *Listener) Messages() <-chan string {
	return l.messages
}

// Close stops the receive loop and waits for it to drain.
func (l *Listener) Close() error {
	err := l.conn.Close()
	l.wg.Wait()
	return err
}

func (l *Listener) receive() {
	defer l.wg.Done()
	defer close(l.messages)
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				l.logger.Error("telemetry receive failed", "error", err)
			}
			return
		}
		if n == 0 {
			continue
		}
		blob := norm.NFC.String(string(buf[:n]))
		select {
		case l.messages <- blob:
		default:
			// Drop the oldest queued blob so the newest always wins.
			select {
			case <-l.messages:
			default:
			}
			select {
			case l.messages <- blob:
			default:
			}
		}
		l.logger.Debug("telemetry blob received", "from", addr, "bytes", n)
	}
}
