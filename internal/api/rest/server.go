// Package rest provides functionality for initializing an API server.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/api/rest/handlers"
	"github.com/danilovkiri/dk-go-trainqueue/internal/api/rest/middleware"
	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/metrics"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelqueue"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1"
	analyticsImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1/analytics"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/broadcast/v1"
	deviceImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1/device"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/filter/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/queue/v1/queue"
	schedulerImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1/scheduler"
	scriptImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1/script"
	secretaryImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/secretary/v1/secretary"
	storageErrors "github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/inpsql"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
)

const tickInterval = 1 * time.Second

// InitServer returns a http.Server object ready to be listening and serving with all
// collaborating services wired together.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger, wg *sync.WaitGroup) (server *http.Server, err error) {
	st, err := inpsql.InitStorage(ctx, cfg.StorageConfig, log, wg)
	if err != nil {
		return nil, err
	}
	secretaryService, err := secretaryImpl.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}
	tokenHandler, err := middleware.NewTokenHandler(secretaryService, cfg.SecretConfig)
	if err != nil {
		return nil, err
	}
	events := make(chan modelqueue.Event, 64)
	queueService, err := queue.InitQueue(cfg.QueueConfig, log, events)
	if err != nil {
		return nil, err
	}
	deviceService, err := deviceImpl.InitController(cfg.DeviceConfig, log)
	if err != nil {
		return nil, err
	}
	broker := broadcast.InitBroker(ctx, log, wg)
	filterService := filter.InitFilter(log, nil)
	runner, err := scriptImpl.InitRunner(deviceService, log)
	if err != nil {
		return nil, err
	}
	schedulerService, err := schedulerImpl.InitScheduler(ctx, st, runner, log, wg)
	if err != nil {
		return nil, err
	}
	analyticsService := analyticsImpl.InitRecorder(st, log)
	mainHandler, err := handlers.InitHandlers(queueService, deviceService, broker, runner, schedulerService, filterService, secretaryService, analyticsService, st, cfg.ServerConfig, log)
	if err != nil {
		return nil, err
	}
	restoreRuntimeConfig(ctx, queueService, mainHandler, st, log)
	schedulerService.Start()
	pumpEvents(ctx, events, queueService, deviceService, broker, analyticsService, log, wg)
	tickQueue(ctx, queueService, wg)

	r := chi.NewRouter()
	r.Use(middleware.CompressHandle)
	r.Use(middleware.DecompressHandle)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/queue/join", mainHandler.HandleJoinQueue())
		r.Post("/queue/leave", mainHandler.HandleLeaveQueue())
		r.Get("/queue/status", mainHandler.HandleQueueStatus())
		r.Get("/queue/events", mainHandler.HandleQueueEvents())
		r.Get("/ws", mainHandler.HandleWebSocket())
		r.Post("/train/speed", mainHandler.HandleSetSpeed())
		r.Post("/train/direction", mainHandler.HandleSetDirection())
		r.Post("/train/horn", mainHandler.HandleHorn())
		r.Post("/train/bell", mainHandler.HandleBell())
		r.Post("/train/lights", mainHandler.HandleLights())
		r.Post("/train/emergency-stop", mainHandler.HandleEmergencyStop())
		r.Get("/train/status", mainHandler.HandleTrainStatus())
		r.Get("/train/scan", mainHandler.HandleScan())
		r.Post("/train/connect", mainHandler.HandleConnect())
		r.Get("/config", mainHandler.HandleGetConfig())
		r.Get("/config/controls", mainHandler.HandleGetControls())
		r.Post("/admin/login", mainHandler.HandleAdminLogin())
		r.Get("/analytics/stats", mainHandler.HandleStats())
		r.Get("/analytics/controls", mainHandler.HandleControlBreakdown())
		r.Get("/jobs", mainHandler.HandleListJobs())
		r.Get("/jobs/{jobID}", mainHandler.HandleGetJob())
		r.Post("/script/run", mainHandler.HandleRunScript())
		r.Post("/script/validate", mainHandler.HandleValidateScript())
		r.Get("/ping", mainHandler.HandlePing())
		r.Group(func(r chi.Router) {
			r.Use(tokenHandler.TokenHandle)
			r.Post("/config", mainHandler.HandleUpdateConfig())
			r.Post("/config/controls", mainHandler.HandleUpdateControls())
			r.Post("/jobs", mainHandler.HandleCreateJob())
			r.Put("/jobs/{jobID}", mainHandler.HandleUpdateJob())
			r.Delete("/jobs/{jobID}", mainHandler.HandleDeleteJob())
			r.Post("/jobs/{jobID}/run", mainHandler.HandleRunJob())
			r.Delete("/analytics", mainHandler.HandlePurgeAnalytics())
		})
	})
	r.Method("GET", "/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}

// restoreRuntimeConfig applies the persisted runtime configuration on startup,
// storing the compile-time defaults when no row exists yet.
func restoreRuntimeConfig(ctx context.Context, queueService *queue.Queue, mainHandler *handlers.Handler, st *inpsql.Storage, log *zerolog.Logger) {
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	entry, err := st.GetRuntimeConfig(loadCtx)
	if err != nil {
		var notFoundError *storageErrors.NotFoundError
		if !errors.As(err, &notFoundError) {
			log.Error().Err(err).Msg("could not load persisted runtime configuration")
			return
		}
		controlsJSON, marshalErr := json.Marshal(mainHandler.Controls())
		if marshalErr != nil {
			log.Error().Err(marshalErr).Msg("could not serialize control flags")
			return
		}
		cfg := queueService.Config()
		saveErr := st.SaveRuntimeConfig(loadCtx, modelstorage.RuntimeConfigStorageEntry{
			SlotDurationSeconds:    cfg.SlotDurationSeconds,
			AllowInfiniteWhenAlone: cfg.AllowInfiniteWhenAlone,
			ControlsJSON:           string(controlsJSON),
			UpdatedAt:              time.Now().Format(time.RFC3339),
		})
		if saveErr != nil {
			log.Error().Err(saveErr).Msg("could not store default runtime configuration")
		}
		return
	}
	err = queueService.UpdateConfig(entry.SlotDurationSeconds, entry.AllowInfiniteWhenAlone)
	if err != nil {
		log.Error().Err(err).Msg("persisted runtime configuration was rejected")
	}
	var controls modeldto.Controls
	err = json.Unmarshal([]byte(entry.ControlsJSON), &controls)
	if err != nil {
		log.Error().Err(err).Msg("persisted control flags could not be parsed")
		return
	}
	mainHandler.SetControls(controls)
}

// pumpEvents consumes queue state transitions, driving analytics sessions,
// device safety stops, metrics and push notifications.
func pumpEvents(ctx context.Context, events <-chan modelqueue.Event, queueService *queue.Queue, deviceService *deviceImpl.Controller, broker *broadcast.Broker, analyticsService analytics.Recorder, log *zerolog.Logger, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				now := time.Now()
				switch event.Kind {
				case modelqueue.EventPromoted:
					analyticsService.StartSession(event.UserID, event.Username, event.JoinedAt, now)
				case modelqueue.EventLeft:
					if event.WasActive {
						stopForHandover(ctx, deviceService, log)
						analyticsService.EndSession(ctx, event.UserID, now)
					}
				case modelqueue.EventExpired:
					stopForHandover(ctx, deviceService, log)
					analyticsService.EndSession(ctx, event.UserID, now)
					metrics.TrackSlotExpiry()
				}
				status := queueService.Status(now)
				metrics.SetQueueLength(status.QueueLength)
				metrics.SetPushSubscribers(broker.SubscriberCount())
				broker.Publish(modeldto.PushMessage{Type: "queue_update", Data: status})
			}
		}
	}()
}

func stopForHandover(ctx context.Context, deviceService *deviceImpl.Controller, log *zerolog.Logger) {
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := deviceService.EmergencyStop(stopCtx)
	if err != nil {
		log.Error().Err(err).Msg("could not stop the train on control handover")
	}
}

// tickQueue advances queue timekeeping so that expired slots are released
// even without incoming requests.
func tickQueue(ctx context.Context, queueService *queue.Queue, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				queueService.Tick(t)
			}
		}
	}()
}
