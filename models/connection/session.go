package connection

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
)

const (
	maxWriteWsRetries  uint8         = 2
	backOffFactor      uint8         = 2
	defaultGracePeriod time.Duration = time.Minute * 2
)

const (
	MessageTypeBytes uint8 = iota
	MessageTypeJSON
)

// What the session loop should do after a connection error
const (
	ConnLoopBreak uint8 = iota
	ConnLoopRetry
	ConnLoopAbnormalClosureRetry
	ConnLoopContinue
	ConnInvalidMsgType
	ConnGracePeriodOver
)

// SessionConnErr tells the session manager why the connection of
// a session failed. For an abnormal closure it keeps the conn that
// failed, so a conn swapped in by a reconnection is not waited for.
type SessionConnErr struct {
	action    uint8
	sessionId string
	conn      *websocket.Conn
	cause     error
}

func newSessionConnErr(s *Session, action uint8, cause error) SessionConnErr {
	return SessionConnErr{action: action, sessionId: s.id, cause: cause}
}

func (e SessionConnErr) Error() string {
	return fmt.Sprintf("session %s connection error - action: %d\tcause: %v", e.sessionId, e.action, e.cause)
}

func (e SessionConnErr) Unwrap() error {
	return e.cause
}

func (e SessionConnErr) Action() uint8 {
	return e.action
}

type ConnectionHandler interface {
	reconnectionAfterAbnormalClosure(conn *websocket.Conn)
	handleReadFromConnErr(err error, retries uint8) uint8
	writeToConnWithRetry(msg interface{}, msgType uint8) error
	waitForReconnection(failed *websocket.Conn) error
	onConnErr(err error) uint8
}

// A session is one player firing at one board. The session
// read loop is the only goroutine that touches the board.
type Session struct {
	id                     string
	conn                   *websocket.Conn
	board                  *mb.Board
	reconnectionSignalChan chan bool
	gracePeriod            time.Duration
	createdAt              time.Time
	mu                     sync.Mutex
}

func NewSession(id string, conn *websocket.Conn, gracePeriod time.Duration) *Session {
	return &Session{
		id:                     id,
		conn:                   conn,
		reconnectionSignalChan: make(chan bool),
		gracePeriod:            gracePeriod,
		createdAt:              time.Now(),
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) Board() *mb.Board {
	return s.board
}

func (s *Session) SetBoard(board *mb.Board) {
	s.board = board
}

// Reports whether conn was replaced by a reconnection
func (s *Session) replaced(conn *websocket.Conn) bool {
	return s.Conn() != conn
}

func (s *Session) onConnErr(err error) uint8 {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		log.Println("timeout error:", err)
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		log.Println("high server load/traffic error:", err)
		return ConnLoopRetry
	}

	// Happens if the IOS client goes to background
	if websocket.IsCloseError(err, websocket.CloseAbnormalClosure) {
		log.Println("abnormal closure error:", err)
		return ConnLoopAbnormalClosureRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Println("close error:", err)
		return ConnLoopBreak
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		log.Println("critical error:", err)
		return ConnLoopBreak
	}

	// Binary frames, broken UTF-8 and oversized messages come from
	// clients that are not ours; not worth keeping the loop alive.
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseNoStatusReceived) {
		log.Println("non-critical error:", err)
		return ConnLoopBreak
	}

	log.Println("unexpected error:", err)
	return ConnLoopBreak
}

// Writes to the connection of that session. It also
// handles the abnormal or other types of errors of
// writing to a websocket connection.
func (s *Session) writeToConnWithRetry(msg interface{}, msgType uint8) error {
	var retries uint8

writeLoop:
	for {
		var err error
		conn := s.Conn()

		switch msgType {
		case MessageTypeJSON:
			err = conn.WriteJSON(msg)

		case MessageTypeBytes:
			respBytes, ok := msg.([]byte)
			if !ok {
				return newSessionConnErr(s, ConnInvalidMsgType, fmt.Errorf("msg type expected: []byte got %T", msg))
			}
			err = conn.WriteMessage(websocket.TextMessage, respBytes)

		default:
			return newSessionConnErr(s, ConnInvalidMsgType, fmt.Errorf("invalid message type to write with retry: %d", msgType))
		}

		if err == nil {
			return nil
		}

		// The player reconnected while writing; the new conn gets the message
		if s.replaced(conn) {
			continue writeLoop
		}

		switch s.onConnErr(err) {
		case ConnLoopRetry:
			if retries < maxWriteWsRetries {
				retries++
				log.Printf("writing to ws failed [%s]; retrying... (retry no. %d)\n", conn.RemoteAddr().String(), retries)
				time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
				continue writeLoop
			}
			log.Printf("max retries reached for writing to ws [%s]:%s", conn.RemoteAddr().String(), err)
			return newSessionConnErr(s, ConnLoopBreak, err)

		case ConnLoopAbnormalClosureRetry:
			connErr := newSessionConnErr(s, ConnLoopAbnormalClosureRetry, err)
			connErr.conn = conn
			return connErr

		default:
			return newSessionConnErr(s, ConnLoopBreak, err)
		}
	}
}

// Maps a read error to what the session loop should do next
func (s *Session) handleReadFromConnErr(err error, retries uint8) uint8 {
	switch s.onConnErr(err) {
	case ConnLoopAbnormalClosureRetry:
		return ConnLoopAbnormalClosureRetry

	case ConnLoopRetry:
		if retries < maxWriteWsRetries {
			log.Printf("failed to read from ws conn of session %s; retrying... (retry no. %d)\n", s.id, retries)
			time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
			return ConnLoopContinue
		}
		return ConnLoopBreak

	default:
		log.Printf("break ws conn loop of session %s due to: %s\n", s.id, err)
		return ConnLoopBreak
	}
}

// Waits for the player to come back within the grace period.
// Returns at once if failed was already replaced. The board
// survives the reconnection.
func (s *Session) waitForReconnection(failed *websocket.Conn) error {
	s.mu.Lock()
	if s.conn != failed {
		s.mu.Unlock()
		return nil
	}
	signal := s.reconnectionSignalChan
	s.mu.Unlock()

	timer := time.NewTimer(s.gracePeriod)
	defer timer.Stop()

	select {
	case <-timer.C:
		log.Printf("session terminated: %s\n", s.id)
		return newSessionConnErr(s, ConnGracePeriodOver, fmt.Errorf("grace period of %s is over", s.gracePeriod))

	case <-signal:
		log.Printf("player reconnected, session: %s\n", s.id)
		return nil
	}
}

// Swaps in the new conn and closes the previous one, which
// unblocks a read loop still waiting on it.
func (s *Session) reconnectionAfterAbnormalClosure(conn *websocket.Conn) {
	s.mu.Lock()
	previous := s.conn

	// Signal for reconnection
	close(s.reconnectionSignalChan)

	s.conn = conn
	s.reconnectionSignalChan = make(chan bool)
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
}

var _ ConnectionHandler = (*Session)(nil)
