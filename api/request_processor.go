package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saeidalz13/battleship-board/db/sqlc"
	cerr "github.com/saeidalz13/battleship-board/internal/error"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
	mc "github.com/saeidalz13/battleship-board/models/connection"
	"github.com/sqlc-dev/pqtype"
)

const (
	URLQuerySessionIDKeyword string = "sessionID"
)

var (
	upgrader = websocket.Upgrader{

		// good average time since this is not a high-latency operation such as video streaming
		HandshakeTimeout: time.Second * 5,

		// a rendered board is a few hundred bytes
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
)

type RequestProcessor struct {
	sessionManager mc.SessionManager
	boardManager   mb.BoardManager
	dbManager      sqlc.DbManager
	defaultFleet   []mb.Placement
	ipnet          net.IPNet
}

type Option func(*RequestProcessor)

func WithQuerier(q sqlc.Querier) Option {
	return func(rp *RequestProcessor) {
		rp.dbManager = sqlc.NewDbManager(q)
	}
}

// Fleet used by boards created without placements
func WithDefaultFleet(placements []mb.Placement) Option {
	return func(rp *RequestProcessor) {
		rp.defaultFleet = placements
	}
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	boardManager mb.BoardManager,
	opts ...Option,
) RequestProcessor {
	rp := RequestProcessor{
		sessionManager: sessionManager,
		boardManager:   boardManager,
		defaultFleet:   mb.CanonicalFleet(),
	}
	for _, opt := range opts {
		opt(&rp)
	}

	ipnet, err := findServerIpNet()
	if err != nil {
		log.Println(err, "; analytics fall back to loopback")
		ipnet = net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(32, 32)}
	}
	rp.ipnet = ipnet

	return rp
}

// First non-loopback IPv4 address of an interface that is up.
// Analytics rows are keyed by it.
func findServerIpNet() (net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			return net.IPNet{}, err
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipnet.IP.To4(); ip != nil && !ip.IsLoopback() {
				return net.IPNet{IP: ip, Mask: net.CIDRMask(32, 32)}, nil
			}
		}
	}

	return net.IPNet{}, &net.AddrError{Err: "no non-loopback ipv4 address found", Addr: "ipnet"}
}

// Expose this method to use it in testing
func (rp RequestProcessor) GetIpNet() net.IPNet {
	return rp.ipnet
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// use Upgrade method to make a websocket connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	sessionIdQuery := r.URL.Query().Get(URLQuerySessionIDKeyword)
	switch sessionIdQuery {
	case "":
		log.Println("a new connection established\tRemote Addr: ", conn.RemoteAddr().String())
		rp.processSessionRequests(rp.sessionManager.GenerateNewSession(conn))

	default:
		if err := rp.sessionManager.ReconnectSession(sessionIdQuery, conn); err != nil {
			log.Println(err)
		}
	}
}

func (rp RequestProcessor) recordAnalytics(record func(context.Context, pqtype.Inet) error) {
	if !rp.dbManager.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()

	// for now not killing the session for it
	if err := record(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		log.Println(err)
	}
}

// One loop per session. The loop is the only writer of the
// session board, so shots are resolved one at a time in the
// order the player sent them.
func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	sessionId := session.Id()

	defer func() {
		if board := session.Board(); board != nil {
			rp.boardManager.TerminateBoard(board.Uuid())
		}
		if conn := session.Conn(); conn != nil {
			conn.Close()
		}
		rp.sessionManager.TerminateSession(sessionId)
		log.Println("session closed:", sessionId)
	}()

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: sessionId})
	if err := rp.sessionManager.WriteToSessionConn(session, resp, mc.MessageTypeJSON); err != nil {
		return
	}

sessionLoop:
	for {
		// A WebSocket frame can be one of 6 types: text=1, binary=2, ping=9, pong=10, close=8 and continuation=0
		// https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			break sessionLoop
		}

		code, err := rp.sessionManager.FetchCodeFromMsg(payload)
		if err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		switch code {

		// A new board replaces the previous one of this session
		case mc.CodeCreateBoard:
			board, respMsg := NewRequest(payload).HandleCreateBoard(rp.boardManager, rp.defaultFleet)
			if board != nil {
				if previous := session.Board(); previous != nil {
					rp.boardManager.TerminateBoard(previous.Uuid())
				}
				session.SetBoard(board)
				rp.recordAnalytics(rp.dbManager.Analytics.IncrementBoardsCreatedCount)
			}

			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

		// After every shot the board is checked; once every
		// ship is sunk an end game message follows the result.
		case mc.CodeFire:
			board := session.Board()
			if board == nil {
				if err := rp.writeBoardAbsent(session, mc.CodeFire); err != nil {
					break sessionLoop
				}
				continue sessionLoop
			}

			respMsg := NewRequest(payload).HandleFire(board)
			if respMsg.Error == nil {
				rp.recordAnalytics(rp.dbManager.Analytics.IncrementShotsFiredCount)
			}
			if err := rp.sessionManager.WriteToSessionConn(session, respMsg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

			if respMsg.Error == nil && board.IsDefeated() {
				respEndGame := mc.NewMessage[mc.RespEndGame](mc.CodeEndGame)
				respEndGame.AddPayload(mc.RespEndGame{ShotsFired: board.ShotsFired()})
				if err := rp.sessionManager.WriteToSessionConn(session, respEndGame, mc.MessageTypeJSON); err != nil {
					break sessionLoop
				}
			}

		case mc.CodeRender:
			board := session.Board()
			if board == nil {
				if err := rp.writeBoardAbsent(session, mc.CodeRender); err != nil {
					break sessionLoop
				}
				continue sessionLoop
			}

			if err := rp.sessionManager.WriteToSessionConn(session, NewRequest().HandleRender(board), mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			if err := rp.sessionManager.WriteToSessionConn(session, respInvalidSignal, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
		}
	}
}

func (rp RequestProcessor) writeBoardAbsent(session *mc.Session, requestCode uint8) error {
	msg := mc.NewMessage[mc.NoPayload](mc.CodeBoardAbsent)
	msg.AddError(cerr.ErrSessionHasNoBoard(session.Id()).Error(), "create a board first")
	log.Printf("request code %d without board, session: %s", requestCode, session.Id())
	return rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON)
}
