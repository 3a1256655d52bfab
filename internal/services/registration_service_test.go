package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/klubhaus/event-signup-api/internal/audit"
	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RegistrationServiceTestSuite defines the test suite for RegistrationService
type RegistrationServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *RegistrationService
}

// SetupTest runs before each test
func (suite *RegistrationServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
		&models.ActivityLog{},
	)
	suite.Require().NoError(err)

	userRepo := repository.NewUserRepository(suite.db)
	eventRepo := repository.NewEventRepository(suite.db)
	regRepo := repository.NewRegistrationRepository(suite.db)
	suite.service = NewRegistrationService(userRepo, eventRepo, regRepo, nil)
}

// TearDownTest runs after each test
func (suite *RegistrationServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RegistrationServiceTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *RegistrationServiceTestSuite) createTestEvent(capacity *int, deadline, start time.Time) *models.Event {
	event := &models.Event{
		Title:                "Test Event",
		Capacity:             capacity,
		RegistrationDeadline: deadline,
		StartTime:            start,
		Status:               models.EventStatusActive,
	}
	suite.db.Create(event)
	return event
}

func intPtr(v int) *int { return &v }

func (suite *RegistrationServiceTestSuite) TestRegister_Success() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(intPtr(10), time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	reg, err := suite.service.Register(user.ID, event.ID, `{"diet":"vegetarian"}`, "")
	suite.Require().NoError(err)
	suite.NotZero(reg.ID)
	suite.Nil(reg.CancelledAt)
	suite.Equal(`{"diet":"vegetarian"}`, reg.AdditionalData)
}

func (suite *RegistrationServiceTestSuite) TestRegister_UserNotFound() {
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(9999, event.ID, "", "")
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *RegistrationServiceTestSuite) TestRegister_BlockedUser() {
	user := suite.createTestUser("blocked@example.com")
	suite.db.Model(user).Update("is_blocked", true)
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrUserBlocked)
}

func (suite *RegistrationServiceTestSuite) TestRegister_DraftEvent() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))
	suite.db.Model(event).Update("status", models.EventStatusDraft)

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrEventNotActive)
}

func (suite *RegistrationServiceTestSuite) TestRegister_MissingEvent() {
	user := suite.createTestUser("a@example.com")

	_, err := suite.service.Register(user.ID, 9999, "", "")
	suite.ErrorIs(err, ErrEventNotActive)
}

// Deadline enforcement beats capacity: an expired deadline always wins, even
// with free seats.
func (suite *RegistrationServiceTestSuite) TestRegister_DeadlineExpired() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(intPtr(100), time.Now().Add(-time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrDeadlineExpired)
}

func (suite *RegistrationServiceTestSuite) TestRegister_AlreadyRegistered() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.Require().NoError(err)

	_, err = suite.service.Register(user.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrAlreadyRegistered)
}

func (suite *RegistrationServiceTestSuite) TestRegister_UnlimitedCapacity() {
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		user := suite.createTestUser(email)
		_, err := suite.service.Register(user.ID, event.ID, "", "")
		suite.Require().NoError(err, "registration %d", i)
	}
}

// The requesting client's address ends up on the activity log row.
func (suite *RegistrationServiceTestSuite) TestRegister_AuditRecordsClientIP() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewAuditor(suite.db, logger)
	service := NewRegistrationService(
		repository.NewUserRepository(suite.db),
		repository.NewEventRepository(suite.db),
		repository.NewRegistrationRepository(suite.db),
		auditor,
	)

	_, err := service.Register(user.ID, event.ID, "", "203.0.113.7")
	suite.Require().NoError(err)

	var entry models.ActivityLog
	suite.Require().NoError(suite.db.Where("action_type = ?", "event.register").First(&entry).Error)
	suite.Require().NotNil(entry.IP)
	suite.Equal("203.0.113.7", *entry.IP)
}

// At most one row per (user, event) pair, no matter the call sequence.
func (suite *RegistrationServiceTestSuite) TestUniqueness_AfterChurn() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.service.Cancel(user.ID, event.ID, "plans changed", ""))
	_, err = suite.service.Register(user.ID, event.ID, "", "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.service.Cancel(user.ID, event.ID, "changed again", ""))

	var count int64
	suite.db.Model(&models.Registration{}).
		Where("user_id = ? AND event_id = ?", user.ID, event.ID).
		Count(&count)
	suite.Equal(int64(1), count)
}

// register → cancel → register yields the original row, reactivated.
func (suite *RegistrationServiceTestSuite) TestReactivation_PreservesID() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	first, err := suite.service.Register(user.ID, event.ID, `{"v":1}`, "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Cancel(user.ID, event.ID, "plans changed", ""))

	second, err := suite.service.Register(user.ID, event.ID, `{"v":2}`, "")
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.Nil(second.CancelledAt)
	suite.Nil(second.CancellationReason)
	suite.Equal(`{"v":2}`, second.AdditionalData)
}

func (suite *RegistrationServiceTestSuite) TestCancel_NotRegistered() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	err := suite.service.Cancel(user.ID, event.ID, "whatever", "")
	suite.ErrorIs(err, ErrRegistrationNotFound)
}

// Cancellation is rejected once the event is three days out or closer.
func (suite *RegistrationServiceTestSuite) TestCancel_TooLate() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(48*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.Require().NoError(err)

	err = suite.service.Cancel(user.ID, event.ID, "too late anyway", "")
	suite.ErrorIs(err, ErrCancellationTooLate)
}

func (suite *RegistrationServiceTestSuite) TestCancel_SetsReason() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	_, err := suite.service.Register(user.ID, event.ID, "", "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Cancel(user.ID, event.ID, "sick", ""))

	var reg models.Registration
	suite.db.Where("user_id = ? AND event_id = ?", user.ID, event.ID).First(&reg)
	suite.NotNil(reg.CancelledAt)
	suite.Require().NotNil(reg.CancellationReason)
	suite.Equal("sick", *reg.CancellationReason)
}

// Full occupancy churn on a two-seat event: fill it, cancel a seat, refill
// it with a new row and a reactivated one.
func (suite *RegistrationServiceTestSuite) TestCapacityChurn() {
	userA := suite.createTestUser("a@example.com")
	userB := suite.createTestUser("b@example.com")
	userC := suite.createTestUser("c@example.com")
	event := suite.createTestEvent(intPtr(2), time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	regA, err := suite.service.Register(userA.ID, event.ID, "", "")
	suite.Require().NoError(err)
	_, err = suite.service.Register(userB.ID, event.ID, "", "")
	suite.Require().NoError(err)

	_, err = suite.service.Register(userC.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrEventFull)

	suite.Require().NoError(suite.service.Cancel(userA.ID, event.ID, "making room", ""))

	_, err = suite.service.Register(userC.ID, event.ID, "", "")
	suite.Require().NoError(err)

	// The event is full again; A cannot come back in...
	_, err = suite.service.Register(userA.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrEventFull)

	// ...until another seat frees up, at which point A's old row revives.
	suite.Require().NoError(suite.service.Cancel(userB.ID, event.ID, "making room", ""))
	regA2, err := suite.service.Register(userA.ID, event.ID, "", "")
	suite.Require().NoError(err)
	suite.Equal(regA.ID, regA2.ID)
}

// A row inserted behind the service's back (a concurrent winner) surfaces as
// AlreadyRegistered, never as a second row for the pair.
func (suite *RegistrationServiceTestSuite) TestRegister_ConstraintRace() {
	user := suite.createTestUser("a@example.com")
	event := suite.createTestEvent(nil, time.Now().Add(time.Hour), time.Now().Add(240*time.Hour))

	now := time.Now()
	err := suite.db.Create(&models.Registration{
		UserID:       user.ID,
		EventID:      event.ID,
		RegisteredAt: now,
	}).Error
	suite.Require().NoError(err)

	_, err = suite.service.Register(user.ID, event.ID, "", "")
	suite.ErrorIs(err, ErrAlreadyRegistered)

	var count int64
	suite.db.Model(&models.Registration{}).
		Where("user_id = ? AND event_id = ?", user.ID, event.ID).
		Count(&count)
	suite.Equal(int64(1), count)
}

func TestRegistrationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceTestSuite))
}
