package battleship

import (
	"sync"

	cerr "github.com/saeidalz13/battleship-board/internal/error"
)

type BoardManager interface {
	CreateBoard(placements []Placement, opts ...BoardOption) (*Board, error)
	GetBoard(boardUuid string) (*Board, error)
	TerminateBoard(boardUuid string)
	CountBoards() int
}

// Keeps track of the boards of every live session. The manager
// guards its map only; a board itself must be driven by one
// caller at a time.
type BattleshipBoardManager struct {
	boards map[string]*Board
	mu     sync.RWMutex
}

var _ BoardManager = (*BattleshipBoardManager)(nil)

func NewBattleshipBoardManager() *BattleshipBoardManager {
	return &BattleshipBoardManager{
		boards: make(map[string]*Board, 10),
	}
}

func (bbm *BattleshipBoardManager) CreateBoard(placements []Placement, opts ...BoardOption) (*Board, error) {
	board, err := NewBoard(placements, opts...)
	if err != nil {
		return nil, err
	}

	bbm.mu.Lock()
	bbm.boards[board.Uuid()] = board
	bbm.mu.Unlock()

	return board, nil
}

func (bbm *BattleshipBoardManager) GetBoard(boardUuid string) (*Board, error) {
	bbm.mu.RLock()
	board, prs := bbm.boards[boardUuid]
	bbm.mu.RUnlock()
	if !prs {
		return nil, cerr.ErrBoardNotExists(boardUuid)
	}

	if board == nil {
		return nil, cerr.ErrBoardIsNil(boardUuid)
	}

	return board, nil
}

func (bbm *BattleshipBoardManager) TerminateBoard(boardUuid string) {
	bbm.mu.Lock()
	delete(bbm.boards, boardUuid)
	bbm.mu.Unlock()
}

func (bbm *BattleshipBoardManager) CountBoards() int {
	bbm.mu.RLock()
	defer bbm.mu.RUnlock()
	return len(bbm.boards)
}
