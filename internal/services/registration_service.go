package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/klubhaus/event-signup-api/internal/audit"
	"github.com/klubhaus/event-signup-api/internal/constants"
	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserBlocked          = errors.New("account is blocked")
	ErrEventNotActive       = errors.New("event is not open for registration")
	ErrDeadlineExpired      = errors.New("registration deadline has passed")
	ErrEventFull            = errors.New("event is fully booked")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrRegistrationConflict = errors.New("registration conflicted with a concurrent request")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrCancellationTooLate  = errors.New("cancellation window has closed")

	// ErrStoreUnavailable wraps store-level failures; callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RegistrationService is the reactivate-or-insert/cancel state machine for
// (user, event) pairs. All coordination goes through the store: the unique
// index stops duplicate rows for the same user, and occupancy is re-checked
// right before the committing write. Two different users racing for the last
// seat can still slip through that window; that is an accepted limit of the
// store's single-statement atomicity, not something patched with locks.
type RegistrationService struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
	regRepo   repository.RegistrationRepository
	auditor   *audit.Auditor
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	auditor *audit.Auditor,
) *RegistrationService {
	return &RegistrationService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		regRepo:   regRepo,
		auditor:   auditor,
	}
}

// Register signs a user up for an event. If a cancelled row exists for the
// pair it is reactivated in place, preserving its ID. ip is the requesting
// client's address, recorded on the audit trail.
func (s *RegistrationService) Register(userID, eventID uint64, payload, ip string) (*models.Registration, error) {
	now := time.Now()

	event, err := s.guard(userID, eventID, now)
	if err != nil {
		return nil, err
	}

	reg, err := s.commit(userID, event, payload, now, true)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(audit.ActionEventRegister, &userID, map[string]any{
		"event_id":        eventID,
		"registration_id": reg.ID,
	}, ip)

	return reg, nil
}

// guard runs the pre-write eligibility checks in order, short-circuiting on
// the first failure. Its capacity and duplicate reads are advisory; the
// committing path re-checks both.
func (s *RegistrationService) guard(userID, eventID uint64, now time.Time) (*models.Event, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", ErrStoreUnavailable, err)
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotActive
		}
		return nil, fmt.Errorf("%w: find event: %v", ErrStoreUnavailable, err)
	}
	if event.Status != models.EventStatusActive {
		return nil, ErrEventNotActive
	}

	if now.After(event.RegistrationDeadline) {
		return nil, ErrDeadlineExpired
	}

	if err := s.ensureCapacity(event); err != nil {
		return nil, err
	}

	if _, err := s.regRepo.FindActiveByPair(userID, eventID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: find registration: %v", ErrStoreUnavailable, err)
	}

	return event, nil
}

// commit is the ledger write. It looks up any row for the pair, then inserts
// or reactivates. A duplicate-key rejection means a concurrent writer won the
// insert; the lookup is retried exactly once before surfacing a conflict.
func (s *RegistrationService) commit(userID uint64, event *models.Event, payload string, now time.Time, retry bool) (*models.Registration, error) {
	existing, err := s.regRepo.FindByPair(userID, event.ID)
	switch {
	case err == nil && existing.IsActive():
		return nil, ErrAlreadyRegistered

	case err == nil:
		// Cancelled row: reuse it. Re-check occupancy immediately before the
		// write to shrink the race window.
		if err := s.ensureCapacity(event); err != nil {
			return nil, err
		}
		if err := s.regRepo.Reactivate(existing, payload, now); err != nil {
			return nil, fmt.Errorf("%w: reactivate registration: %v", ErrStoreUnavailable, err)
		}
		return existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.ensureCapacity(event); err != nil {
			return nil, err
		}
		reg := &models.Registration{
			UserID:         userID,
			EventID:        event.ID,
			AdditionalData: payload,
			RegisteredAt:   now,
		}
		if err := s.regRepo.Create(reg); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if retry {
					return s.commit(userID, event, payload, now, false)
				}
				return nil, ErrRegistrationConflict
			}
			return nil, fmt.Errorf("%w: create registration: %v", ErrStoreUnavailable, err)
		}
		return reg, nil

	default:
		return nil, fmt.Errorf("%w: find registration: %v", ErrStoreUnavailable, err)
	}
}

// ensureCapacity derives occupancy live from active row counts. A cached
// counter would drift under partial failure.
func (s *RegistrationService) ensureCapacity(event *models.Event) error {
	if event.Unlimited() {
		return nil
	}

	occupancy, err := s.regRepo.CountActiveByEvent(event.ID)
	if err != nil {
		return fmt.Errorf("%w: count occupancy: %v", ErrStoreUnavailable, err)
	}
	if occupancy >= int64(*event.Capacity) {
		return ErrEventFull
	}
	return nil
}

// Cancel marks the user's active registration cancelled. Allowed only while
// the event's start is more than the notice period away.
func (s *RegistrationService) Cancel(userID, eventID uint64, reason, ip string) error {
	now := time.Now()

	reg, err := s.regRepo.FindActiveByPair(userID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("%w: find registration: %v", ErrStoreUnavailable, err)
	}

	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("%w: find event: %v", ErrStoreUnavailable, err)
	}

	if event.StartTime.Sub(now) <= constants.CancellationNotice {
		return ErrCancellationTooLate
	}

	if err := s.regRepo.Cancel(reg, now, reason); err != nil {
		return fmt.Errorf("%w: cancel registration: %v", ErrStoreUnavailable, err)
	}

	s.auditor.Record(audit.ActionEventCancel, &userID, map[string]any{
		"event_id":        eventID,
		"registration_id": reg.ID,
		"reason":          reason,
	}, ip)

	return nil
}
