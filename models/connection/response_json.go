package connection

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespCreateBoard struct {
	BoardUuid  string   `json:"board_uuid"`
	Violations []string `json:"violations,omitempty"`
}

type RespFire struct {
	Row         int    `json:"row"`
	Column      int    `json:"column"`
	Result      string `json:"result"`
	SunkenShips int    `json:"sunken_ships"`
}

type RespRender struct {
	Rows []string `json:"rows"`
}

type RespEndGame struct {
	ShotsFired int `json:"shots_fired"`
}

type RespErr struct {
	ErrorDetails string `json:"error_details,omitempty"`
	Message      string `json:"message,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{
		ErrorDetails: errorDetails,
		Message:      message,
	}
}
