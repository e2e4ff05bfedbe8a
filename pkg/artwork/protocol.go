package artwork

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Dialer opens the control connection to MPD. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// AckError is an error acknowledgement sent by MPD, e.g.
// "ACK [50@0] {albumart} No file exists".
type AckError struct {
	Code    int
	Index   int
	Command string
	Message string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("mpd ack %d {%s}: %s", e.Code, e.Command, e.Message)
}

var ackLine = regexp.MustCompile(`^ACK \[(\d+)@(\d+)\] \{([^}]*)\}\s*(.*)$`)

func parseAck(line string) *AckError {
	m := ackLine.FindStringSubmatch(line)
	if m == nil {
		return &AckError{Message: strings.TrimSpace(strings.TrimPrefix(line, "ACK"))}
	}
	code, _ := strconv.Atoi(m[1])
	index, _ := strconv.Atoi(m[2])
	return &AckError{Code: code, Index: index, Command: m[3], Message: m[4]}
}

// binaryResponse is one framed reply to albumart or readpicture.
type binaryResponse struct {
	Size int // total size of the image, -1 when not reported
	Data []byte
}

// mpdConn is a short-lived control connection owned by a single stage.
type mpdConn struct {
	nc      net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

func dialMPD(ctx context.Context, d Dialer, addr, password string, timeout time.Duration) (*mpdConn, error) {
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial mpd: %w", err)
	}

	c := &mpdConn{nc: nc, r: bufio.NewReader(nc), timeout: timeout}
	if err := c.deadline(ctx); err != nil {
		_ = nc.Close()
		return nil, err
	}

	greeting, err := c.readLine()
	if err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if !strings.HasPrefix(greeting, "OK MPD ") {
		_ = nc.Close()
		return nil, fmt.Errorf("unexpected greeting %q", greeting)
	}

	if password != "" {
		if err := c.simple(ctx, "password "+quote(password)); err != nil {
			_ = nc.Close()
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	return c, nil
}

// deadline bounds the next round trip by the per-chunk timeout or the
// context deadline, whichever is sooner.
func (c *mpdConn) deadline(ctx context.Context) error {
	d := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		d = dl
	}
	return c.nc.SetDeadline(d)
}

func (c *mpdConn) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// simple sends a command that answers with a bare OK or ACK.
func (c *mpdConn) simple(ctx context.Context, cmd string) error {
	if err := c.deadline(ctx); err != nil {
		return err
	}
	if _, err := io.WriteString(c.nc, cmd+"\n"); err != nil {
		return err
	}
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		switch {
		case line == "OK":
			return nil
		case strings.HasPrefix(line, "ACK "):
			return parseAck(line)
		}
	}
}

// binary issues `<cmd> "<file>" <offset>` and reads one framed response:
// key/value header lines, then exactly `binary: N` raw bytes, a newline, and
// the closing OK.
func (c *mpdConn) binary(ctx context.Context, cmd, file string, offset int) (binaryResponse, error) {
	resp := binaryResponse{Size: -1}

	if err := c.deadline(ctx); err != nil {
		return resp, err
	}
	if _, err := fmt.Fprintf(c.nc, "%s %s %d\n", cmd, quote(file), offset); err != nil {
		return resp, fmt.Errorf("write %s: %w", cmd, err)
	}

	for {
		line, err := c.readLine()
		if err != nil {
			return resp, fmt.Errorf("read %s response: %w", cmd, err)
		}

		if line == "OK" {
			return resp, nil
		}
		if strings.HasPrefix(line, "ACK ") {
			return resp, parseAck(line)
		}

		key, value, found := strings.Cut(line, ": ")
		if !found {
			return resp, fmt.Errorf("unexpected %s response line %q", cmd, line)
		}

		switch key {
		case "size":
			if n, err := strconv.Atoi(value); err == nil {
				resp.Size = n
			}
		case "binary":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return resp, fmt.Errorf("invalid binary length %q", value)
			}
			resp.Data = make([]byte, n)
			if _, err := io.ReadFull(c.r, resp.Data); err != nil {
				return resp, fmt.Errorf("read %d byte chunk: %w", n, err)
			}
			if b, err := c.r.ReadByte(); err != nil || b != '\n' {
				return resp, fmt.Errorf("missing terminator after binary chunk")
			}
		}
	}
}

func (c *mpdConn) Close() error {
	_ = c.nc.SetDeadline(time.Now().Add(c.timeout))
	_, _ = io.WriteString(c.nc, "close\n")
	return c.nc.Close()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
