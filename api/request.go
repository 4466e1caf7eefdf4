package api

import (
	"encoding/json"
	"errors"

	cerr "github.com/saeidalz13/battleship-board/internal/error"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
	mc "github.com/saeidalz13/battleship-board/models/connection"
)

type RequestHandler interface {
	HandleCreateBoard(boardManager mb.BoardManager, defaultFleet []mb.Placement) (*mb.Board, mc.Message[mc.RespCreateBoard])
	HandleFire(board *mb.Board) mc.Message[mc.RespFire]
	HandleRender(board *mb.Board) mc.Message[mc.RespRender]
}

// Every incoming valid request will have this structure
type Request struct {
	payload []byte
}

var _ RequestHandler = (*Request)(nil)

func NewRequest(payload ...[]byte) Request {
	if len(payload) == 0 {
		return Request{}
	}
	return Request{payload: payload[0]}
}

// Builds a board from the placements in the payload. Without
// placements the server fleet is used.
func (r Request) HandleCreateBoard(boardManager mb.BoardManager, defaultFleet []mb.Placement) (*mb.Board, mc.Message[mc.RespCreateBoard]) {
	resp := mc.NewMessage[mc.RespCreateBoard](mc.CodeCreateBoard)

	var reqCreateBoard mc.Message[mc.ReqCreateBoard]
	if err := json.Unmarshal(r.payload, &reqCreateBoard); err != nil {
		resp.AddError(err.Error(), "failed to unmarshal create board request")
		return nil, resp
	}

	placements := reqCreateBoard.Payload.Placements
	if len(placements) == 0 {
		placements = defaultFleet
	}

	var opts []mb.BoardOption
	if reqCreateBoard.Payload.AllowFleetViolations {
		opts = append(opts, mb.WithFleetViolationsAllowed())
	}

	board, err := boardManager.CreateBoard(placements, opts...)
	if err != nil {
		var placementErr *cerr.InvalidPlacementError
		var fleetErr *cerr.InvalidFleetError

		switch {
		case errors.As(err, &placementErr):
			resp.AddError(err.Error(), "invalid ship placement")
		case errors.As(err, &fleetErr):
			resp.AddError(err.Error(), "fleet breaks the battleship rules")
		default:
			resp.AddError(err.Error(), "failed to create board")
		}
		return nil, resp
	}

	resp.AddPayload(mc.RespCreateBoard{
		BoardUuid:  board.Uuid(),
		Violations: board.Violations(),
	})
	return board, resp
}

func (r Request) HandleFire(board *mb.Board) mc.Message[mc.RespFire] {
	resp := mc.NewMessage[mc.RespFire](mc.CodeFire)

	var reqFire mc.Message[mc.ReqFire]
	if err := json.Unmarshal(r.payload, &reqFire); err != nil {
		resp.AddError(err.Error(), "failed to unmarshal fire request")
		return resp
	}

	if reqFire.Payload.Row == nil || reqFire.Payload.Column == nil {
		resp.AddError(cerr.ErrFireCoordinatesAbsent().Error(), "no shot was fired")
		return resp
	}

	target := mb.NewCoordinates(*reqFire.Payload.Row, *reqFire.Payload.Column)
	result := board.Fire(target)

	resp.AddPayload(mc.RespFire{
		Row:         target.Row,
		Column:      target.Column,
		Result:      string(result),
		SunkenShips: board.SunkenShips(),
	})
	return resp
}

func (r Request) HandleRender(board *mb.Board) mc.Message[mc.RespRender] {
	resp := mc.NewMessage[mc.RespRender](mc.CodeRender)
	resp.AddPayload(mc.RespRender{Rows: board.Render().Rows()})
	return resp
}
