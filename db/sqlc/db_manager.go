package sqlc

import "time"

const (
	QuerierCtxTimeout = time.Second * 10
)

type DbManager struct {
	Analytics *AnalyticsManager
}

// A nil querier gives a manager without analytics; every
// AnalyticsManager call site must check DbManager.Enabled first.
func NewDbManager(queries Querier) DbManager {
	if queries == nil {
		return DbManager{}
	}
	return DbManager{
		Analytics: NewAnalyticsManager(queries),
	}
}

func (d DbManager) Enabled() bool {
	return d.Analytics != nil
}
