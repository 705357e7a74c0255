package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelqueue"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	analyticsImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1/analytics"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/broadcast/v1"
	deviceImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1/device"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/filter/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/service/queue/v1/queue"
	schedulerImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/scheduler/v1/scheduler"
	scriptImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1/script"
	secretaryImpl "github.com/danilovkiri/dk-go-trainqueue/internal/service/secretary/v1/secretary"
	storageErrors "github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1/errors"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	mu       sync.Mutex
	sessions []modelstorage.SessionStorageEntry
	runtime  *modelstorage.RuntimeConfigStorageEntry
	jobs     map[string]modelstorage.JobStorageEntry
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{jobs: make(map[string]modelstorage.JobStorageEntry)}
}

func (f *fakeStorage) SaveSession(_ context.Context, session modelstorage.SessionStorageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeStorage) GetSessions(_ context.Context, _ string) ([]modelstorage.SessionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *fakeStorage) PurgeSessions(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = nil
	return nil
}

func (f *fakeStorage) GetRuntimeConfig(_ context.Context) (*modelstorage.RuntimeConfigStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runtime == nil {
		return nil, &storageErrors.NotFoundError{ID: "runtime_config"}
	}
	return f.runtime, nil
}

func (f *fakeStorage) SaveRuntimeConfig(_ context.Context, entry modelstorage.RuntimeConfigStorageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runtime = &entry
	return nil
}

func (f *fakeStorage) AddJob(_ context.Context, job modelstorage.JobStorageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStorage) GetJob(_ context.Context, jobID string) (*modelstorage.JobStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: jobID}
	}
	return &job, nil
}

func (f *fakeStorage) GetJobs(_ context.Context) ([]modelstorage.JobStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jobs := make([]modelstorage.JobStorageEntry, 0, len(f.jobs))
	for _, job := range f.jobs {
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (f *fakeStorage) UpdateJob(_ context.Context, job modelstorage.JobStorageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.ID]; !ok {
		return &storageErrors.NotFoundError{ID: job.ID}
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStorage) DeleteJob(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[jobID]; !ok {
		return &storageErrors.NotFoundError{ID: jobID}
	}
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeStorage) Ping(_ context.Context) error {
	return nil
}

type testEnv struct {
	handler *Handler
	queue   *queue.Queue
	storage *fakeStorage
	router  chi.Router
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.InitLog("test")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wg := &sync.WaitGroup{}
	st := newFakeStorage()
	queueCfg := &config.QueueConfig{SlotDurationSeconds: 300, AllowInfiniteWhenAlone: false}
	events := make(chan modelqueue.Event, 64)
	queueService, err := queue.InitQueue(queueCfg, log, events)
	require.NoError(t, err)
	deviceService, err := deviceImpl.InitController(&config.DeviceConfig{}, log)
	require.NoError(t, err)
	broker := broadcast.InitBroker(ctx, log, wg)
	filterService := filter.InitFilter(log, []string{"blockedword"})
	filterService.SetOffline(true)
	runner, err := scriptImpl.InitRunner(deviceService, log)
	require.NoError(t, err)
	schedulerService, err := schedulerImpl.InitScheduler(ctx, st, runner, log, wg)
	require.NoError(t, err)
	secretaryService, err := secretaryImpl.NewSecretaryService(&config.SecretConfig{SecretKey: "test_key", AdminPassword: "test_password"})
	require.NoError(t, err)
	analyticsService := analyticsImpl.InitRecorder(st, log)
	h, err := InitHandlers(queueService, deviceService, broker, runner, schedulerService, filterService, secretaryService, analyticsService, st, &config.ServerConfig{}, log)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Post("/queue/join", h.HandleJoinQueue())
	r.Post("/queue/leave", h.HandleLeaveQueue())
	r.Get("/queue/status", h.HandleQueueStatus())
	r.Post("/train/speed", h.HandleSetSpeed())
	r.Post("/train/horn", h.HandleHorn())
	r.Post("/train/emergency-stop", h.HandleEmergencyStop())
	r.Get("/train/status", h.HandleTrainStatus())
	r.Post("/admin/login", h.HandleAdminLogin())
	r.Post("/config", h.HandleUpdateConfig())
	r.Get("/jobs", h.HandleListJobs())
	r.Post("/jobs", h.HandleCreateJob())
	r.Delete("/jobs/{jobID}", h.HandleDeleteJob())
	r.Post("/script/run", h.HandleRunScript())
	r.Post("/script/validate", h.HandleValidateScript())
	r.Get("/ping", h.HandlePing())
	return &testEnv{handler: h, queue: queueService, storage: st, router: r}
}

func (env *testEnv) do(t *testing.T, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleJoinQueue(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	var response modeldto.JoinResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Position)
	assert.Equal(t, 1, response.QueueLength)
}

func TestHandleJoinQueueDuplicate(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	rec := env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleJoinQueueProfaneUsername(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "BlockedWordFan"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleJoinQueueEmptyUserID(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{Username: "Alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLeaveQueueUnknownUser(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/queue/leave", modeldto.LeaveRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleQueueStatus(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user2", Username: "Bob"})
	rec := env.do(t, http.MethodGet, "/queue/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status modeldto.QueueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.QueueLength)
	assert.Equal(t, "user1", status.CurrentController)
}

func TestHandleSetSpeedRequiresControl(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user2", Username: "Bob"})
	rec := env.do(t, http.MethodPost, "/train/speed", modeldto.SpeedRequest{UserID: "user2", Speed: 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/train/speed", modeldto.SpeedRequest{UserID: "user1", Speed: 10})
	require.Equal(t, http.StatusOK, rec.Code)
	var status modeldto.DeviceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 10, status.Speed)
}

func TestHandleSetSpeedOutOfRange(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	rec := env.do(t, http.MethodPost, "/train/speed", modeldto.SpeedRequest{UserID: "user1", Speed: 99})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHornDisabledControl(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	controls := env.handler.Controls()
	controls.Horn = false
	env.handler.SetControls(controls)
	rec := env.do(t, http.MethodPost, "/train/horn", modeldto.HornRequest{UserID: "user1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleEmergencyStopFromWaitingUser(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user2", Username: "Bob"})
	env.do(t, http.MethodPost, "/train/speed", modeldto.SpeedRequest{UserID: "user1", Speed: 20})
	rec := env.do(t, http.MethodPost, "/train/emergency-stop", modeldto.EmergencyStopRequest{UserID: "user2"})
	require.Equal(t, http.StatusOK, rec.Code)
	var status modeldto.DeviceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 0, status.Speed)
}

func TestHandleEmergencyStopRequiresQueueMembership(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/train/emergency-stop", modeldto.EmergencyStopRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleAdminLogin(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/admin/login", modeldto.AdminLoginRequest{Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/admin/login", modeldto.AdminLoginRequest{Password: "test_password"})
	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response["token"])
}

func TestHandleUpdateConfig(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/config", modeldto.RuntimeConfig{SlotDurationSeconds: 5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = env.do(t, http.MethodPost, "/config", modeldto.RuntimeConfig{SlotDurationSeconds: 120, AllowInfiniteWhenAlone: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120, env.queue.Config().SlotDurationSeconds)
	require.NotNil(t, env.storage.runtime)
	assert.Equal(t, 120, env.storage.runtime.SlotDurationSeconds)
}

func TestHandleCreateJobValidation(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/jobs", modeldto.NewJob{Name: "morning run", Script: "speed 50\nwait 1\nspeed 0", CronExpression: "not a cron"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = env.do(t, http.MethodPost, "/jobs", modeldto.NewJob{Name: "morning run", Script: "speed 50\nwait 1\nspeed 0", CronExpression: "0 9 * * *", Enabled: true})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job modeldto.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	recList := env.do(t, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, recList.Code)
	var jobs []modeldto.Job
	require.NoError(t, json.Unmarshal(recList.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestHandleDeleteJobNotFound(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/jobs/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRunScriptRequiresControl(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/script/run", modeldto.ScriptRequest{UserID: "ghost", Script: "horn"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleRunScript(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodPost, "/queue/join", modeldto.JoinRequest{UserID: "user1", Username: "Alice"})
	rec := env.do(t, http.MethodPost, "/script/run", modeldto.ScriptRequest{UserID: "user1", Script: "speed 50\nhorn\nspeed 0"})
	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response["commands_executed"])
}

func TestHandleValidateScript(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodPost, "/script/validate", modeldto.ScriptRequest{Script: "speed 200"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/script/validate", modeldto.ScriptRequest{Script: "speed 50\nwait 0.5\nspeed 0"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePing(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
