package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// chunkSize bounds each INSTREAM chunk; clamd's StreamMaxLength still applies to the total
const chunkSize = 64 * 1024

// ClamAVScanner streams uploads to a clamd daemon
type ClamAVScanner struct {
	address string        // TCP address (host:port) or Unix socket path
	timeout time.Duration // Connection and scan timeout
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner.
// address: TCP "localhost:3310" or Unix socket "/var/run/clamav/clamd.sock"
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{
		address: address,
		timeout: timeout,
	}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

// Available sends PING and expects PONG
func (c *ClamAVScanner) Available(ctx context.Context) bool {
	conn, err := c.dial(ctx, 5*time.Second)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return false
	}
	reply, err := readReply(conn)
	return err == nil && reply == "PONG"
}

// Scan sends data with the zINSTREAM command
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	fail := func(err error) ScanResult {
		result.Infected = true
		result.Error = err
		return result
	}

	conn, err := c.dial(ctx, c.timeout)
	if err != nil {
		return fail(fmt.Errorf("clamav: connect: %w", err))
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return fail(fmt.Errorf("clamav: send command: %w", err))
	}
	if err := writeChunks(conn, data); err != nil {
		return fail(fmt.Errorf("clamav: stream %q: %w", filename, err))
	}

	reply, err := readReply(conn)
	if err != nil {
		return fail(fmt.Errorf("clamav: read reply: %w", err))
	}

	threat, infected, err := parseReply(reply)
	if err != nil {
		return fail(err)
	}
	result.Infected = infected
	result.ThreatName = threat
	return result
}

func (c *ClamAVScanner) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	network := "tcp"
	if strings.HasPrefix(c.address, "/") {
		network = "unix"
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, c.address)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// writeChunks frames data as big-endian length-prefixed chunks followed by a zero-length terminator
func writeChunks(w io.Writer, data io.Reader) error {
	buf := make([]byte, chunkSize)
	header := make([]byte, 4)
	for {
		n, err := data.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(header, uint32(n))
			if _, werr := w.Write(header); werr != nil {
				return werr
			}
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{0, 0, 0, 0})
	return err
}

// readReply reads one NUL-terminated reply
func readReply(r io.Reader) (string, error) {
	reply, err := bufio.NewReader(r).ReadString(0)
	if err != nil && !(errors.Is(err, io.EOF) && reply != "") {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(reply, "\x00")), nil
}

// parseReply interprets "stream: OK", "stream: <threat> FOUND" and "... ERROR"
func parseReply(reply string) (threat string, infected bool, err error) {
	body := reply
	if _, rest, ok := strings.Cut(reply, ":"); ok {
		body = strings.TrimSpace(rest)
	}

	switch {
	case body == "OK":
		return "", false, nil
	case strings.HasSuffix(body, " FOUND"):
		return strings.TrimSuffix(body, " FOUND"), true, nil
	case strings.HasSuffix(body, " ERROR"):
		return "", true, fmt.Errorf("clamav: scan error: %s", strings.TrimSuffix(body, " ERROR"))
	default:
		return "", true, fmt.Errorf("clamav: unexpected reply %q", reply)
	}
}
