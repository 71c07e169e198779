package terminal

import (
	"bufio"
	"context"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/boardops/boardops/internal/frame"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/render"
)

var streamCtx = render.Context{Surface: render.SurfaceTelnet, Width: 80, MaxWidth: 80, Style: frame.StyleSingle, Padding: 1}

// session drives one accepted connection through the welcome banner and
// command loop until it disconnects.
type session struct {
	conn      *conn
	deps      Dependencies
	userID    string
	clientID  string
	doorSess  string // non-empty while a door game is in progress
}

func newSession(netConn net.Conn, deps Dependencies) *session {
	return &session{conn: newConn(netConn), deps: deps, userID: uuid.NewString()}
}

func (s *session) run() {
	defer s.cleanup()

	s.clientID = s.deps.Broker.RegisterClient(s.conn, s.userID)
	s.deps.Broker.AuthenticateClient(s.clientID, s.userID)

	s.writeFrame(welcomeLines())

	scanner := bufio.NewScanner(s.conn.Conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.dispatch(line) {
			return
		}
	}
}

func (s *session) cleanup() {
	ctx := context.Background()
	if s.doorSess != "" {
		_ = s.deps.Doors.Disconnect(ctx, s.doorSess)
	}
	s.conn.markClosed()
	s.deps.Broker.UnregisterClient(s.clientID)
	_ = s.conn.Conn.Close()
}

// dispatch handles one line of input, returning false when the session
// should end.
func (s *session) dispatch(line string) bool {
	ctx := context.Background()

	if s.doorSess != "" {
		output, err := s.deps.Doors.Step(ctx, s.doorSess, line)
		if err != nil {
			s.writeLine("door error: " + err.Error())
			s.doorSess = ""
			return true
		}
		s.writeLine(output)
		return true
	}

	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "bye", "logoff":
		s.writeLine("Goodbye.")
		return false
	case "help":
		s.writeLine("Commands: help, bases, enter <door>, page <message>, quit")
	case "bases":
		s.listBases()
	case "enter":
		if len(args) == 0 {
			s.writeLine("usage: enter <door>")
			return true
		}
		s.enterDoor(args[0])
	case "page":
		s.pageSysop(strings.Join(args, " "))
	default:
		s.writeLine("unknown command: " + cmd)
	}
	return true
}

func (s *session) listBases() {
	bases, err := s.deps.DB.ListMessageBases()
	if err != nil {
		s.writeLine("error listing message bases")
		return
	}
	if len(bases) == 0 {
		s.writeLine("no message bases yet")
		return
	}
	for _, b := range bases {
		s.writeLine(b.Name + " - " + b.Description)
	}
}

func (s *session) enterDoor(doorID string) {
	ctx := context.Background()
	output, sessionID, err := s.deps.Doors.Enter(ctx, s.userID, doorID)
	if err != nil {
		s.writeLine("cannot enter " + doorID + ": " + err.Error())
		return
	}
	s.doorSess = sessionID
	s.writeLine(output)
}

func (s *session) pageSysop(message string) {
	if message == "" {
		s.writeLine("usage: page <message>")
		return
	}
	response, err := s.deps.Pager.Page(context.Background(), message)
	if err != nil {
		s.writeLine("sysop did not respond in time")
		return
	}
	s.writeLine(response)
}

func (s *session) writeLine(text string) {
	_ = s.conn.writeLine(streamCtx, text)
}

func (s *session) writeFrame(lines []frame.Line) {
	out, err := render.RenderFrame(lines, streamCtx)
	if err != nil {
		return
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	_, _ = s.conn.w.WriteString(out + render.GetLineEnding(streamCtx))
	_ = s.conn.w.Flush()
}

func welcomeLines() []frame.Line {
	return []frame.Line{
		{Text: "Welcome to Board Ops", Align: frame.AlignCenter},
		{Text: "Type 'help' for a list of commands", Align: frame.AlignCenter},
	}
}

var _ notify.Connection = (*conn)(nil)
