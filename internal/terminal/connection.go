package terminal

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/render"
)

// conn adapts a raw net.Conn into notify.Connection, rendering each
// pushed event as a single unbordered line in the stream surface's CRLF
// discipline. Writes are serialized since the broker's fan-out may call
// Send concurrently with the session's own reply writes.
type conn struct {
	net.Conn
	w      *bufio.Writer
	mu     sync.Mutex
	closed atomic.Bool
}

func newConn(c net.Conn) *conn {
	return &conn{Conn: c, w: bufio.NewWriter(c)}
}

func (c *conn) writeLine(ctx render.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.WriteString(render.RenderText(text, "", ctx) + render.GetLineEnding(ctx)); err != nil {
		return err
	}
	return c.w.Flush()
}

// Send renders event as a single uncolored notice line.
func (c *conn) Send(event notify.Event) error {
	ctx := render.Context{Surface: render.SurfaceTelnet, Width: 80, MaxWidth: 80}
	return c.writeLine(ctx, eventLine(event))
}

func (c *conn) Closed() bool {
	return c.closed.Load()
}

func (c *conn) markClosed() {
	c.closed.Store(true)
}

func eventLine(event notify.Event) string {
	return "*** " + string(event.Type) + " ***"
}
