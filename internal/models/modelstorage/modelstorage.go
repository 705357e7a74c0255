// Package modelstorage provides types for psql storage entries.

package modelstorage

type (
	SessionStorageEntry struct {
		ID              int64
		SessionID       string
		UserID          string
		Username        string
		JoinedAt        string
		StartedAt       string
		EndedAt         string
		WaitSeconds     float64
		DurationSeconds float64
		SpeedCount      int64
		DirectionCount  int64
		HornCount       int64
		BellCount       int64
		LightsCount     int64
		EmergencyCount  int64
	}
	RuntimeConfigStorageEntry struct {
		ID                     int64
		SlotDurationSeconds    int
		AllowInfiniteWhenAlone bool
		ControlsJSON           string
		UpdatedAt              string
	}
	JobStorageEntry struct {
		ID             string
		Name           string
		Description    string
		Script         string
		CronExpression string
		Enabled        bool
		CreatedAt      string
		LastRun        string
		LastResult     string
		RunCount       int
	}
)
