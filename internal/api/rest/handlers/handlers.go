// Package handlers provides API endpoint handling functionality.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"sync"
	"time"

	handlersErrors "github.com/danilovkiri/dk-go-trainqueue/internal/api/rest/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/metrics"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/broadcast/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1"
	deviceErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/filter/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/queue/v1"
	queueErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/queue/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1"
	schedulerErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1"
	scriptErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/secretary/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/errors"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
)

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	queue        queue.Manager
	device       device.Controller
	broker       *broadcast.Broker
	runner       script.Interpreter
	scheduler    scheduler.Scheduler
	filter       *filter.Filter
	secretary    secretary.Secretary
	analytics    analytics.Recorder
	storage      storage.Storage
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
	mu           sync.Mutex
	controls     modeldto.Controls
}

// InitHandlers initializes a handler object with all collaborating services.
func InitHandlers(queueService queue.Manager, deviceService device.Controller, broker *broadcast.Broker, runner script.Interpreter, schedulerService scheduler.Scheduler, filterService *filter.Filter, secretaryService secretary.Secretary, analyticsService analytics.Recorder, st storage.Storage, serverConfig *config.ServerConfig, log *zerolog.Logger) (*Handler, error) {
	if queueService == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil queue manager was passed to handlers initializer"}
	}
	if deviceService == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil device controller was passed to handlers initializer"}
	}
	if broker == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil push broker was passed to handlers initializer"}
	}
	return &Handler{
		queue:        queueService,
		device:       deviceService,
		broker:       broker,
		runner:       runner,
		scheduler:    schedulerService,
		filter:       filterService,
		secretary:    secretaryService,
		analytics:    analyticsService,
		storage:      st,
		serverConfig: serverConfig,
		log:          log,
		controls: modeldto.Controls{
			Speed:            true,
			Direction:        true,
			Horn:             true,
			Bell:             true,
			Lights:           true,
			EmergencyStopAll: true,
		},
	}, nil
}

// SetControls replaces the current per-control enable flags.
func (h *Handler) SetControls(controls modeldto.Controls) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controls = controls
}

// Controls returns the current per-control enable flags.
func (h *Handler) Controls() modeldto.Controls {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.controls
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	err = json.Unmarshal(b, dst)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	resBody, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(resBody)
	if err != nil {
		h.log.Error().Err(err).Msg("writing response body failed")
	}
}

// HandleJoinQueue processes queue join requests.
func (h *Handler) HandleJoinQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.JoinRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if h.filter.ContainsProfanity(ctx, request.Username) {
			h.log.Warn().Msg(fmt.Sprintf("rejected username for user %s", request.UserID))
			http.Error(w, "Username contains inappropriate language", http.StatusUnprocessableEntity)
			return
		}
		position, err := h.queue.Join(request.UserID, request.Username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleJoinQueue failed")
			var duplicateUserError *queueErrors.DuplicateUserError
			var emptyUserIDError *queueErrors.EmptyUserIDError
			if errors.As(err, &duplicateUserError) {
				http.Error(w, err.Error(), http.StatusConflict)
			} else if errors.As(err, &emptyUserIDError) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		status := h.queue.Status(time.Now())
		h.writeJSON(w, http.StatusOK, modeldto.JoinResponse{Position: position, QueueLength: status.QueueLength})
	}
}

// HandleLeaveQueue processes queue leave requests.
func (h *Handler) HandleLeaveQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request modeldto.LeaveRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		err := h.queue.Leave(request.UserID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLeaveQueue failed")
			var notInQueueError *queueErrors.NotInQueueError
			if errors.As(err, &notInQueueError) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

// HandleQueueStatus processes queue status requests.
func (h *Handler) HandleQueueStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, h.queue.Status(time.Now()))
	}
}

// requireControl verifies the user holds the active slot, writing a 403
// response otherwise.
func (h *Handler) requireControl(w http.ResponseWriter, userID string) bool {
	if !h.queue.HasControl(userID) {
		err := &queueErrors.NotActiveError{UserID: userID}
		h.log.Warn().Msg(err.Error())
		http.Error(w, err.Error(), http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) mapDeviceError(w http.ResponseWriter, err error) {
	var invalidSpeedError *deviceErrors.InvalidSpeedError
	var invalidDirectionError *deviceErrors.InvalidDirectionError
	var invalidScanDurationError *deviceErrors.InvalidScanDurationError
	var notConnectedError *deviceErrors.NotConnectedError
	if errors.As(err, &invalidSpeedError) || errors.As(err, &invalidDirectionError) || errors.As(err, &invalidScanDurationError) {
		http.Error(w, err.Error(), http.StatusBadRequest)
	} else if errors.As(err, &notConnectedError) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	} else {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleSetSpeed processes train speed commands.
func (h *Handler) HandleSetSpeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.SpeedRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().Speed {
			http.Error(w, "Speed control is disabled", http.StatusForbidden)
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		err := h.device.SetSpeed(ctx, request.Speed)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleSetSpeed failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlSpeed)
		metrics.TrackControlCommand(analytics.ControlSpeed)
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleSetDirection processes train direction commands.
func (h *Handler) HandleSetDirection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.DirectionRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().Direction {
			http.Error(w, "Direction control is disabled", http.StatusForbidden)
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		_, err := h.device.SetDirection(ctx, request.Direction)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleSetDirection failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlDirection)
		metrics.TrackControlCommand(analytics.ControlDirection)
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleHorn processes train horn commands.
func (h *Handler) HandleHorn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.HornRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().Horn {
			http.Error(w, "Horn control is disabled", http.StatusForbidden)
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		err := h.device.Horn(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleHorn failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlHorn)
		metrics.TrackControlCommand(analytics.ControlHorn)
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

// HandleBell processes train bell commands.
func (h *Handler) HandleBell() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.BellRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().Bell {
			http.Error(w, "Bell control is disabled", http.StatusForbidden)
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		err := h.device.Bell(ctx, request.State)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleBell failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlBell)
		metrics.TrackControlCommand(analytics.ControlBell)
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleLights processes train lights commands.
func (h *Handler) HandleLights() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.LightsRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().Lights {
			http.Error(w, "Lights control is disabled", http.StatusForbidden)
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		err := h.device.Lights(ctx, request.State)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLights failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlLights)
		metrics.TrackControlCommand(analytics.ControlLights)
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleEmergencyStop processes emergency stop commands. Any queued user may
// stop the train, the queue itself is untouched.
func (h *Handler) HandleEmergencyStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.EmergencyStopRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.Controls().EmergencyStopAll && !h.queue.HasControl(request.UserID) {
			http.Error(w, "Emergency stop is restricted to the active user", http.StatusForbidden)
			return
		}
		if !h.queue.InQueue(request.UserID) {
			http.Error(w, "Only queued users may stop the train", http.StatusForbidden)
			return
		}
		err := h.device.EmergencyStop(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleEmergencyStop failed")
			h.mapDeviceError(w, err)
			return
		}
		h.analytics.TrackControl(request.UserID, analytics.ControlEmergency)
		metrics.TrackControlCommand(analytics.ControlEmergency)
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleTrainStatus processes device status requests.
func (h *Handler) HandleTrainStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleScan processes train discovery requests.
func (h *Handler) HandleScan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		durationSeconds := 5
		if raw := r.URL.Query().Get("duration"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "Scan duration must be an integer", http.StatusBadRequest)
				return
			}
			durationSeconds = parsed
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(durationSeconds+5)*time.Second)
		defer cancel()
		result, err := h.device.Scan(ctx, durationSeconds)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleScan failed")
			h.mapDeviceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
	}
}

// HandleConnect processes train connection requests.
func (h *Handler) HandleConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		var request modeldto.ConnectRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		err := h.device.Connect(ctx, request.Address)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleConnect failed")
			h.mapDeviceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, h.device.Status())
	}
}

// HandleGetConfig processes runtime configuration queries.
func (h *Handler) HandleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, h.queue.Config())
	}
}

// HandleUpdateConfig processes runtime configuration updates.
func (h *Handler) HandleUpdateConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.RuntimeConfig
		if !h.decodeJSON(w, r, &request) {
			return
		}
		err := h.queue.UpdateConfig(request.SlotDurationSeconds, request.AllowInfiniteWhenAlone)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateConfig failed")
			var invalidConfigError *queueErrors.InvalidConfigError
			if errors.As(err, &invalidConfigError) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.persistRuntimeConfig(ctx)
		h.writeJSON(w, http.StatusOK, h.queue.Config())
	}
}

// HandleGetControls processes control flag queries.
func (h *Handler) HandleGetControls() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, h.Controls())
	}
}

// HandleUpdateControls processes control flag updates.
func (h *Handler) HandleUpdateControls() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.Controls
		if !h.decodeJSON(w, r, &request) {
			return
		}
		h.SetControls(request)
		h.persistRuntimeConfig(ctx)
		h.writeJSON(w, http.StatusOK, h.Controls())
	}
}

func (h *Handler) persistRuntimeConfig(ctx context.Context) {
	controlsJSON, err := json.Marshal(h.Controls())
	if err != nil {
		h.log.Error().Err(err).Msg("could not serialize control flags")
		return
	}
	cfg := h.queue.Config()
	entry := modelstorage.RuntimeConfigStorageEntry{
		SlotDurationSeconds:    cfg.SlotDurationSeconds,
		AllowInfiniteWhenAlone: cfg.AllowInfiniteWhenAlone,
		ControlsJSON:           string(controlsJSON),
		UpdatedAt:              time.Now().Format(time.RFC3339),
	}
	err = h.storage.SaveRuntimeConfig(ctx, entry)
	if err != nil {
		h.log.Error().Err(err).Msg("could not persist runtime configuration")
	}
}

// HandleAdminLogin processes admin login requests.
func (h *Handler) HandleAdminLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request modeldto.AdminLoginRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		token, err := h.secretary.Login(request.Password)
		if err != nil {
			h.log.Warn().Msg("failed admin login attempt")
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// HandleStats processes analytics statistics queries.
func (h *Handler) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				http.Error(w, "Days must be a non-negative integer", http.StatusBadRequest)
				return
			}
			days = parsed
		}
		stats, err := h.analytics.Stats(ctx, days)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleStats failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, stats)
	}
}

// HandleControlBreakdown processes control usage breakdown queries.
func (h *Handler) HandleControlBreakdown() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		stats, err := h.analytics.Stats(ctx, 0)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleControlBreakdown failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var total int64
		for _, count := range stats.ControlUsage {
			total += count
		}
		type controlShare struct {
			Count      int64   `json:"count"`
			Percentage float64 `json:"percentage"`
		}
		breakdown := make(map[string]controlShare, len(stats.ControlUsage))
		for control, count := range stats.ControlUsage {
			share := controlShare{Count: count}
			if total > 0 {
				share.Percentage = float64(count) / float64(total) * 100
			}
			breakdown[control] = share
		}
		h.writeJSON(w, http.StatusOK, breakdown)
	}
}

// HandlePurgeAnalytics processes analytics purge requests.
func (h *Handler) HandlePurgeAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		err := h.analytics.Purge(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandlePurgeAnalytics failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

func (h *Handler) mapSchedulerError(w http.ResponseWriter, err error) {
	var invalidCronError *schedulerErrors.InvalidCronError
	var invalidJobError *schedulerErrors.InvalidJobError
	var syntaxError *scriptErrors.SyntaxError
	var notFoundError *storageErrors.NotFoundError
	var alreadyExistsError *storageErrors.AlreadyExistsError
	var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
	if errors.As(err, &invalidCronError) || errors.As(err, &invalidJobError) || errors.As(err, &syntaxError) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	} else if errors.As(err, &notFoundError) {
		http.Error(w, err.Error(), http.StatusNotFound)
	} else if errors.As(err, &alreadyExistsError) {
		http.Error(w, err.Error(), http.StatusConflict)
	} else if errors.As(err, &contextTimeoutExceededError) {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	} else {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleListJobs processes scheduled job listing requests.
func (h *Handler) HandleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		jobs, err := h.scheduler.ListJobs(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleListJobs failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, jobs)
	}
}

// HandleCreateJob processes scheduled job creation requests.
func (h *Handler) HandleCreateJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		var request modeldto.NewJob
		if !h.decodeJSON(w, r, &request) {
			return
		}
		job, err := h.scheduler.CreateJob(ctx, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleCreateJob failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, job)
	}
}

// HandleGetJob processes single scheduled job queries.
func (h *Handler) HandleGetJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		jobID := chi.URLParam(r, "jobID")
		job, err := h.scheduler.GetJob(ctx, jobID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetJob failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, job)
	}
}

// HandleUpdateJob processes scheduled job update requests.
func (h *Handler) HandleUpdateJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		jobID := chi.URLParam(r, "jobID")
		var request modeldto.NewJob
		if !h.decodeJSON(w, r, &request) {
			return
		}
		job, err := h.scheduler.UpdateJob(ctx, jobID, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateJob failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, job)
	}
}

// HandleDeleteJob processes scheduled job deletion requests.
func (h *Handler) HandleDeleteJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		jobID := chi.URLParam(r, "jobID")
		err := h.scheduler.DeleteJob(ctx, jobID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeleteJob failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

// HandleRunJob processes immediate job execution requests.
func (h *Handler) HandleRunJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		err := h.scheduler.RunNow(r.Context(), jobID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRunJob failed")
			h.mapSchedulerError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

// HandleRunScript processes script execution requests from the active user.
func (h *Handler) HandleRunScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request modeldto.ScriptRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if !h.requireControl(w, request.UserID) {
			return
		}
		count, err := h.runner.Run(r.Context(), request.Script)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRunScript failed")
			var syntaxError *scriptErrors.SyntaxError
			var alreadyRunningError *scriptErrors.AlreadyRunningError
			if errors.As(err, &syntaxError) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else if errors.As(err, &alreadyRunningError) {
				http.Error(w, err.Error(), http.StatusConflict)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]int{"commands_executed": count})
	}
}

// HandleValidateScript processes script validation requests.
func (h *Handler) HandleValidateScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request modeldto.ScriptRequest
		if !h.decodeJSON(w, r, &request) {
			return
		}
		err := h.runner.Validate(request.Script)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeJSON(w, http.StatusOK, struct{}{})
	}
}

// HandlePing processes health check requests.
func (h *Handler) HandlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		err := h.storage.Ping(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandlePing failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
