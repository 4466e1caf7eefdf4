package connection

const (
	CodeSessionID uint8 = iota
	CodeReceivedInvalidSessionID

	// Create a board from the payload placements, or from
	// the server fleet if the payload carries none
	CodeCreateBoard
	CodeFire
	CodeRender

	// Every ship of the session board is sunk
	CodeEndGame
	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent

	// Fire or render before any board was created
	CodeBoardAbsent
)

// Only used to read the code of an incoming message;
// nil means the message has no "code" field.
type Signal struct {
	Code *uint8 `json:"code"`
}
