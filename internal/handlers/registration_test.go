package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klubhaus/event-signup-api/internal/constants"
	"github.com/klubhaus/event-signup-api/internal/dto"
	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"github.com/klubhaus/event-signup-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type registrationTestEnv struct {
	db      *gorm.DB
	handler *RegistrationHandler
}

func setupRegistrationTestEnv(t *testing.T) registrationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
	)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	service := services.NewRegistrationService(userRepo, eventRepo, regRepo, nil)
	handler := NewRegistrationHandler(service)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return registrationTestEnv{db: db, handler: handler}
}

// newRegistrationRouter wires the handler behind a middleware that plants the
// given user ID, standing in for the session-backed RequireAuth.
func newRegistrationRouter(env registrationTestEnv, userID uint64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	asUser := func(c *gin.Context) {
		if userID != 0 {
			c.Set(constants.ContextKeyUserID, userID)
		}
		c.Next()
	}
	r.POST("/api/events/:id/register", asUser, env.handler.Register)
	r.DELETE("/api/events/:id/registration", asUser, env.handler.Cancel)
	return r
}

func (env registrationTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env registrationTestEnv) createActiveEvent(t *testing.T, capacity *int) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:                "Monthly Meetup",
		Capacity:             capacity,
		RegistrationDeadline: time.Now().Add(time.Hour),
		StartTime:            time.Now().Add(240 * time.Hour),
		Status:               models.EventStatusActive,
	}
	require.NoError(t, env.db.Create(event).Error)
	return event
}

func TestRegistrationHandler_Register(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	event := env.createActiveEvent(t, nil)
	r := newRegistrationRouter(env, user.ID)

	body := []byte(`{"additional_data":{"diet":"vegan"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/events/1/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.RegistrationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.ID, response.UserID)
	require.Equal(t, event.ID, response.EventID)
	require.JSONEq(t, `{"diet":"vegan"}`, string(response.AdditionalData))
}

func TestRegistrationHandler_Register_NoBody(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	env.createActiveEvent(t, nil)
	r := newRegistrationRouter(env, user.ID)

	req := httptest.NewRequest(http.MethodPost, "/api/events/1/register", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRegistrationHandler_Register_Unauthenticated(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	env.createActiveEvent(t, nil)
	r := newRegistrationRouter(env, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/events/1/register", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationHandler_Register_EventFull(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	capacity := 1
	event := env.createActiveEvent(t, &capacity)

	first := env.createUser(t, "first@example.com")
	require.NoError(t, env.db.Create(&models.Registration{
		UserID:       first.ID,
		EventID:      event.ID,
		RegisteredAt: time.Now(),
	}).Error)

	user := env.createUser(t, "late@example.com")
	r := newRegistrationRouter(env, user.ID)

	req := httptest.NewRequest(http.MethodPost, "/api/events/1/register", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRegistrationHandler_Register_DeadlinePassed(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	event := env.createActiveEvent(t, nil)
	require.NoError(t, env.db.Model(event).
		Update("registration_deadline", time.Now().Add(-time.Minute)).Error)

	r := newRegistrationRouter(env, user.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/events/1/register", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRegistrationHandler_Cancel(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	event := env.createActiveEvent(t, nil)
	require.NoError(t, env.db.Create(&models.Registration{
		UserID:       user.ID,
		EventID:      event.ID,
		RegisteredAt: time.Now(),
	}).Error)

	r := newRegistrationRouter(env, user.ID)
	body := []byte(`{"reason":"can no longer attend"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/events/1/registration", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var reg models.Registration
	require.NoError(t, env.db.Where("user_id = ? AND event_id = ?", user.ID, event.ID).First(&reg).Error)
	require.NotNil(t, reg.CancelledAt)
}

func TestRegistrationHandler_Cancel_MissingReason(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	env.createActiveEvent(t, nil)

	r := newRegistrationRouter(env, user.ID)
	req := httptest.NewRequest(http.MethodDelete, "/api/events/1/registration", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandler_Cancel_NotRegistered(t *testing.T) {
	env := setupRegistrationTestEnv(t)
	user := env.createUser(t, "a@example.com")
	env.createActiveEvent(t, nil)

	r := newRegistrationRouter(env, user.ID)
	body := []byte(`{"reason":"never signed up"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/events/1/registration", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
