package api

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"
	"github.com/saeidalz13/battleship-board/db/sqlc"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
	mc "github.com/saeidalz13/battleship-board/models/connection"
	"github.com/sqlc-dev/pqtype"
)

var dialer = websocket.Dialer{
	HandshakeTimeout: 10 * time.Second,
}

type testServer struct {
	rp             RequestProcessor
	boardManager   *mb.BattleshipBoardManager
	sessionManager *mc.BattleshipSessionManager
	wsUrl          string
}

func newTestServer(t *testing.T, opts ...Option) testServer {
	t.Helper()
	return newTestServerWithSessions(t, mc.NewBattleshipSessionManager(), opts...)
}

func newTestServerWithSessions(t *testing.T, bsm *mc.BattleshipSessionManager, opts ...Option) testServer {
	t.Helper()

	bbm := mb.NewBattleshipBoardManager()
	rp := NewRequestProcessor(bsm, bbm, opts...)

	mux := http.NewServeMux()
	mux.Handle("GET /battleship", rp)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return testServer{
		rp:             rp,
		boardManager:   bbm,
		sessionManager: bsm,
		wsUrl:          "ws" + strings.TrimPrefix(srv.URL, "http") + "/battleship",
	}
}

func (ts testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _ := ts.dialSession(t)
	return conn
}

// Dials a new session and consumes the session id message
func (ts testServer) dialSession(t *testing.T) (*websocket.Conn, string) {
	t.Helper()

	conn := ts.dialUrl(t, ts.wsUrl)

	var respSessionId mc.Message[mc.RespSessionId]
	if err := conn.ReadJSON(&respSessionId); err != nil {
		t.Fatal(err)
	}
	if respSessionId.Code != mc.CodeSessionID || respSessionId.Payload.SessionID == "" {
		t.Fatalf("expected a session id message, got: %+v", respSessionId)
	}
	return conn, respSessionId.Payload.SessionID
}

// Reconnection gets no session id message
func (ts testServer) reconnect(t *testing.T, sessionId string) *websocket.Conn {
	t.Helper()
	return ts.dialUrl(t, ts.wsUrl+"?"+URLQuerySessionIDKeyword+"="+sessionId)
}

func (ts testServer) dialUrl(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func roundTrip[T, K any](t *testing.T, conn *websocket.Conn, req mc.Message[T]) mc.Message[K] {
	t.Helper()

	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	var resp mc.Message[K]
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func createBoard(t *testing.T, conn *websocket.Conn, payload mc.ReqCreateBoard) mc.Message[mc.RespCreateBoard] {
	t.Helper()
	req := mc.NewMessage[mc.ReqCreateBoard](mc.CodeCreateBoard)
	req.AddPayload(payload)
	return roundTrip[mc.ReqCreateBoard, mc.RespCreateBoard](t, conn, req)
}

func fire(t *testing.T, conn *websocket.Conn, row, column int) mc.Message[mc.RespFire] {
	t.Helper()
	req := mc.NewMessage[mc.ReqFire](mc.CodeFire)
	req.AddPayload(mc.NewReqFire(row, column))
	return roundTrip[mc.ReqFire, mc.RespFire](t, conn, req)
}

func TestInvalidCode(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	tests := []struct {
		name         string
		reqCode      uint8
		expectedCode uint8
	}{
		{name: "random invalid code", reqCode: 255, expectedCode: mc.CodeInvalidSignal},
		{name: "fire without board", reqCode: mc.CodeFire, expectedCode: mc.CodeBoardAbsent},
		{name: "render without board", reqCode: mc.CodeRender, expectedCode: mc.CodeBoardAbsent},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := roundTrip[mc.NoPayload, mc.NoPayload](t, conn, mc.NewMessage[mc.NoPayload](test.reqCode))
			if resp.Code != test.expectedCode {
				t.Fatalf("expected code: %d\t got: %d", test.expectedCode, resp.Code)
			}
			if resp.Error == nil {
				t.Fatal("expected an error in the response")
			}
		})
	}

	rawTests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "fire!"},
		{name: "json without code", payload: `{"payload": {"row": 0, "column": 0}}`},
	}

	for _, test := range rawTests {
		t.Run(test.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(test.payload)); err != nil {
				t.Fatal(err)
			}
			var resp mc.Message[mc.NoPayload]
			if err := conn.ReadJSON(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != mc.CodeSignalAbsent {
				t.Fatalf("expected code: %d\t got: %d", mc.CodeSignalAbsent, resp.Code)
			}
		})
	}
}

func TestCreateBoard(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name               string
		payload            mc.ReqCreateBoard
		expectBoard        bool
		expectedViolations int
	}{
		{
			name:        "server fleet",
			payload:     mc.ReqCreateBoard{},
			expectBoard: true,
		},
		{
			name:        "custom valid fleet",
			payload:     mc.ReqCreateBoard{Placements: mb.CanonicalFleet()},
			expectBoard: true,
		},
		{
			name:    "invalid fleet",
			payload: mc.ReqCreateBoard{Placements: []mb.Placement{mb.NewPlacement(0, 0, 0, 0)}},
		},
		{
			name: "invalid fleet allowed",
			payload: mc.ReqCreateBoard{
				Placements:           []mb.Placement{mb.NewPlacement(0, 0, 0, 0)},
				AllowFleetViolations: true,
			},
			expectBoard: true,
			// total count and one per size
			expectedViolations: 5,
		},
		{
			name:    "invalid placement",
			payload: mc.ReqCreateBoard{Placements: []mb.Placement{mb.NewPlacement(0, 0, 0, 9)}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := ts.dial(t)
			resp := createBoard(t, conn, test.payload)

			if resp.Code != mc.CodeCreateBoard {
				t.Fatalf("expected code: %d\t got: %d", mc.CodeCreateBoard, resp.Code)
			}

			if !test.expectBoard {
				if resp.Error == nil {
					t.Fatal("expected an error in the response")
				}
				return
			}

			if resp.Error != nil {
				t.Fatalf("error: %s", resp.Error.ErrorDetails)
			}
			if _, err := ts.boardManager.GetBoard(resp.Payload.BoardUuid); err != nil {
				t.Fatal(err)
			}
			if len(resp.Payload.Violations) != test.expectedViolations {
				t.Fatalf("expected violations: %d\tgot: %v", test.expectedViolations, resp.Payload.Violations)
			}
		})
	}
}

func TestFireAndRender(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	if resp := createBoard(t, conn, mc.ReqCreateBoard{}); resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}

	tests := []struct {
		row, column    int
		expectedResult mb.ShotResult
	}{
		{0, 4, mb.ShotResultMiss},
		{0, 3, mb.ShotResultHit},
		{0, 2, mb.ShotResultHit},
		{0, 1, mb.ShotResultHit},
		{0, 0, mb.ShotResultSunk},
		{0, 0, mb.ShotResultSunk},
		{42, 42, mb.ShotResultMiss},
	}

	for _, test := range tests {
		resp := fire(t, conn, test.row, test.column)
		if resp.Code != mc.CodeFire || resp.Error != nil {
			t.Fatalf("unexpected fire response: %+v", resp)
		}
		if resp.Payload.Result != string(test.expectedResult) {
			t.Fatalf("fire at (%d, %d): expected %s\tgot: %s", test.row, test.column, test.expectedResult, resp.Payload.Result)
		}
	}

	respRender := roundTrip[mc.NoPayload, mc.RespRender](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeRender))
	if respRender.Code != mc.CodeRender {
		t.Fatalf("expected code: %d\t got: %d", mc.CodeRender, respRender.Code)
	}
	if len(respRender.Payload.Rows) != mb.GridSize {
		t.Fatalf("expected %d rows, got: %d", mb.GridSize, len(respRender.Payload.Rows))
	}
	if respRender.Payload.Rows[0] != "x x x x ~ □ □ ~ □ □" {
		t.Fatalf("unexpected first row: %q", respRender.Payload.Rows[0])
	}
}

func TestEndGame(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	if resp := createBoard(t, conn, mc.ReqCreateBoard{}); resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}

	shots := 0
	for _, placement := range mb.CanonicalFleet() {
		ship := mb.NewShip(0, placement)
		for _, deck := range ship.Decks() {
			resp := fire(t, conn, deck.Row, deck.Column)
			shots++
			if resp.Error != nil {
				t.Fatalf("error: %s", resp.Error.ErrorDetails)
			}
		}
	}

	var respEndGame mc.Message[mc.RespEndGame]
	if err := conn.ReadJSON(&respEndGame); err != nil {
		t.Fatal(err)
	}
	if respEndGame.Code != mc.CodeEndGame {
		t.Fatalf("expected code: %d\t got: %d", mc.CodeEndGame, respEndGame.Code)
	}
	if respEndGame.Payload.ShotsFired != shots {
		t.Fatalf("expected shots fired: %d\tgot: %d", shots, respEndGame.Payload.ShotsFired)
	}
}

func TestAnalytics(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ts := newTestServer(t, WithQuerier(sqlc.New(db)))
	conn := ts.dial(t)

	serverIp := pqtype.Inet{IPNet: ts.rp.GetIpNet(), Valid: true}
	mock.ExpectExec(`INSERT INTO board_server_analytics \(server_ip, boards_created\)`).
		WithArgs(serverIp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO board_server_analytics \(server_ip, shots_fired\)`).
		WithArgs(serverIp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if resp := createBoard(t, conn, mc.ReqCreateBoard{}); resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}
	if resp := fire(t, conn, 5, 5); resp.Payload.Result != string(mb.ShotResultMiss) {
		t.Fatalf("expected %s, got: %s", mb.ShotResultMiss, resp.Payload.Result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func TestFireWithoutCoordinates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ts := newTestServer(t, WithQuerier(sqlc.New(db)))
	conn := ts.dial(t)

	mock.ExpectExec(`INSERT INTO board_server_analytics \(server_ip, boards_created\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	respCreate := createBoard(t, conn, mc.ReqCreateBoard{})
	if respCreate.Error != nil {
		t.Fatalf("error: %s", respCreate.Error.ErrorDetails)
	}
	board, err := ts.boardManager.GetBoard(respCreate.Payload.BoardUuid)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{name: "no payload", payload: `{"code": 3}`},
		{name: "empty payload", payload: `{"code": 3, "payload": {}}`},
		{name: "row only", payload: `{"code": 3, "payload": {"row": 0}}`},
		{name: "column only", payload: `{"code": 3, "payload": {"column": 0}}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(test.payload)); err != nil {
				t.Fatal(err)
			}
			var resp mc.Message[mc.RespFire]
			if err := conn.ReadJSON(&resp); err != nil {
				t.Fatal(err)
			}

			if resp.Code != mc.CodeFire {
				t.Fatalf("expected code: %d\t got: %d", mc.CodeFire, resp.Code)
			}
			if resp.Error == nil {
				t.Fatal("expected an error in the response")
			}
			if resp.Payload.Result != "" {
				t.Fatalf("expected no result, got: %s", resp.Payload.Result)
			}
		})
	}

	if board.ShotsFired() != 0 {
		t.Fatalf("expected no shots fired, got: %d", board.ShotsFired())
	}
	if _, ok := board.ShipAt(mb.NewCoordinates(0, 0)); !ok {
		t.Fatal("expected a ship at (0, 0)")
	}
	if board.Render()[0][0] != mb.PositionStateIntact {
		t.Fatal("deck at (0, 0) must stay intact")
	}

	// no shots fired row was recorded
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func TestReconnectLiveSession(t *testing.T) {
	ts := newTestServer(t)
	oldConn, sessionId := ts.dialSession(t)

	respCreate := createBoard(t, oldConn, mc.ReqCreateBoard{})
	if respCreate.Error != nil {
		t.Fatalf("error: %s", respCreate.Error.ErrorDetails)
	}
	if resp := fire(t, oldConn, 0, 4); resp.Payload.Result != string(mb.ShotResultMiss) {
		t.Fatalf("expected %s, got: %s", mb.ShotResultMiss, resp.Payload.Result)
	}

	newConn := ts.reconnect(t, sessionId)
	if resp := fire(t, newConn, 0, 3); resp.Payload.Result != string(mb.ShotResultHit) {
		t.Fatalf("expected %s, got: %s", mb.ShotResultHit, resp.Payload.Result)
	}

	board, err := ts.boardManager.GetBoard(respCreate.Payload.BoardUuid)
	if err != nil {
		t.Fatal(err)
	}
	if board.ShotsFired() != 2 {
		t.Fatalf("expected the board to survive reconnection with 2 shots, got: %d", board.ShotsFired())
	}

	// the server closed the replaced conn
	_ = oldConn.SetReadDeadline(time.Now().Add(time.Second * 5))
	_, _, err = oldConn.ReadMessage()
	if err == nil {
		t.Fatal("expected the old conn to be closed")
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		t.Fatal("old conn was left open")
	}
}

func TestReconnectAfterAbnormalClosure(t *testing.T) {
	ts := newTestServer(t)
	oldConn, sessionId := ts.dialSession(t)

	if resp := createBoard(t, oldConn, mc.ReqCreateBoard{}); resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}

	// no close frame, the server sees an abnormal closure
	oldConn.UnderlyingConn().Close()

	newConn := ts.reconnect(t, sessionId)
	if resp := fire(t, newConn, 9, 9); resp.Payload.Result != string(mb.ShotResultSunk) {
		t.Fatalf("expected %s, got: %s", mb.ShotResultSunk, resp.Payload.Result)
	}
}

func TestGracePeriodOver(t *testing.T) {
	ts := newTestServerWithSessions(t, mc.NewBattleshipSessionManager(mc.WithGracePeriod(time.Millisecond*50)))
	oldConn, sessionId := ts.dialSession(t)

	if resp := createBoard(t, oldConn, mc.ReqCreateBoard{}); resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}
	oldConn.UnderlyingConn().Close()

	deadline := time.Now().Add(time.Second * 5)
	for {
		_, err := ts.sessionManager.FindSession(sessionId)
		if err != nil && ts.boardManager.CountBoards() == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session and board should be terminated after the grace period")
		}
		time.Sleep(time.Millisecond * 20)
	}

	conn := ts.reconnect(t, sessionId)
	var resp mc.Message[mc.NoPayload]
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != mc.CodeReceivedInvalidSessionID {
		t.Fatalf("expected code: %d\t got: %d", mc.CodeReceivedInvalidSessionID, resp.Code)
	}
}
