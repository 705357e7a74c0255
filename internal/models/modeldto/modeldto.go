// Package modeldto provides types for data interchange between services and clients.

package modeldto

type (
	QueueEntry struct {
		UserID        string   `json:"user_id"`
		Username      string   `json:"username"`
		Position      int      `json:"position"`
		IsActive      bool     `json:"is_active"`
		TimeRemaining *float64 `json:"time_remaining"`
		JoinedAt      string   `json:"joined_at"`
	}
	QueueStatus struct {
		Queue               []QueueEntry `json:"queue"`
		QueueLength         int          `json:"queue_length"`
		CurrentController   string       `json:"current_controller,omitempty"`
		SlotDurationSeconds int          `json:"slot_duration_seconds"`
	}
	JoinRequest struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	JoinResponse struct {
		Position    int `json:"position"`
		QueueLength int `json:"queue_length"`
	}
	LeaveRequest struct {
		UserID string `json:"user_id"`
	}
	SpeedRequest struct {
		UserID string `json:"user_id"`
		Speed  int    `json:"speed"`
	}
	DirectionRequest struct {
		UserID    string `json:"user_id"`
		Direction string `json:"direction"`
	}
	HornRequest struct {
		UserID string `json:"user_id"`
	}
	BellRequest struct {
		UserID string `json:"user_id"`
		State  bool   `json:"state"`
	}
	LightsRequest struct {
		UserID string `json:"user_id"`
		State  bool   `json:"state"`
	}
	EmergencyStopRequest struct {
		UserID string `json:"user_id"`
	}
	ConnectRequest struct {
		Address string `json:"address"`
	}
	DeviceStatus struct {
		Connected bool   `json:"connected"`
		Speed     int    `json:"speed"`
		Direction string `json:"direction"`
		Bell      bool   `json:"bell"`
		Lights    bool   `json:"lights"`
		MockMode  bool   `json:"mock_mode"`
		Address   string `json:"address,omitempty"`
	}
	DiscoveredTrain struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	ScanResult struct {
		Trains []DiscoveredTrain `json:"trains"`
		Count  int               `json:"count"`
	}
	RuntimeConfig struct {
		SlotDurationSeconds    int  `json:"slot_duration_seconds"`
		AllowInfiniteWhenAlone bool `json:"allow_infinite_when_alone"`
	}
	Controls struct {
		Speed            bool `json:"speed"`
		Direction        bool `json:"direction"`
		Horn             bool `json:"horn"`
		Bell             bool `json:"bell"`
		Lights           bool `json:"lights"`
		EmergencyStopAll bool `json:"emergency_stop_all"`
	}
	AdminLoginRequest struct {
		Password string `json:"password"`
	}
	ScriptRequest struct {
		UserID string `json:"user_id"`
		Script string `json:"script"`
	}
	Job struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Description    string `json:"description"`
		Script         string `json:"script"`
		CronExpression string `json:"cron_expression"`
		Enabled        bool   `json:"enabled"`
		CreatedAt      string `json:"created_at"`
		LastRun        string `json:"last_run,omitempty"`
		LastResult     string `json:"last_result,omitempty"`
		RunCount       int    `json:"run_count"`
	}
	NewJob struct {
		Name           string `json:"name"`
		Description    string `json:"description"`
		Script         string `json:"script"`
		CronExpression string `json:"cron_expression"`
		Enabled        bool   `json:"enabled"`
	}
	Stats struct {
		TotalSessions     int              `json:"total_sessions"`
		TotalUsers        int              `json:"total_users"`
		AvgWaitSeconds    float64          `json:"avg_wait_time"`
		AvgSessionSeconds float64          `json:"avg_session_duration"`
		ControlUsage      map[string]int64 `json:"total_control_usage"`
		PeakHours         map[int]int      `json:"peak_hours"`
		BusiestDay        string           `json:"busiest_day,omitempty"`
		TopUsers          map[string]int   `json:"top_users"`
	}
	PushMessage struct {
		Type string      `json:"type"`
		Data QueueStatus `json:"data"`
	}
)
