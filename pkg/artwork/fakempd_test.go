package artwork

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeMPD is a loopback server speaking enough of the MPD protocol for the
// artwork stages. handle writes the reply for every command except close.
type fakeMPD struct {
	l      net.Listener
	handle func(cmd string, w io.Writer)

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

func newFakeMPD(t *testing.T, handle func(cmd string, w io.Writer)) *fakeMPD {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeMPD{l: l, handle: handle}
	f.wg.Add(1)
	go f.accept()

	t.Cleanup(func() {
		_ = l.Close()
		f.wg.Wait()
	})
	return f
}

func (f *fakeMPD) Addr() string { return f.l.Addr().String() }

func (f *fakeMPD) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeMPD) accept() {
	defer f.wg.Done()
	for {
		conn, err := f.l.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.serve(conn)
	}
}

func (f *fakeMPD) serve(conn net.Conn) {
	defer f.wg.Done()
	defer conn.Close()

	_, _ = io.WriteString(conn, "OK MPD 0.23.5\n")
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\n")
		if cmd == "close" {
			return
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		f.handle(cmd, conn)
	}
}

// writeChunk replies with one binary frame of data[offset:offset+chunk].
func writeChunk(w io.Writer, data []byte, offset, chunk int, withSize bool) {
	end := offset + chunk
	if end > len(data) {
		end = len(data)
	}
	if offset > len(data) {
		offset = len(data)
	}
	part := data[offset:end]

	if withSize {
		fmt.Fprintf(w, "size: %d\n", len(data))
	}
	fmt.Fprintf(w, "type: image/png\nbinary: %d\n", len(part))
	_, _ = w.Write(part)
	_, _ = io.WriteString(w, "\nOK\n")
}

// commandOffset extracts the trailing offset argument of a binary command.
func commandOffset(cmd string) int {
	i := strings.LastIndex(cmd, " ")
	n, _ := strconv.Atoi(cmd[i+1:])
	return n
}

func pngImage(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	for i := 8; i < size; i++ {
		data[i] = byte(i % 251)
	}
	return data
}
