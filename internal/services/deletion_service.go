package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klubhaus/event-signup-api/internal/audit"
	"github.com/klubhaus/event-signup-api/internal/constants"
	"github.com/klubhaus/event-signup-api/internal/models"
	"github.com/klubhaus/event-signup-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrDeletionAlreadyScheduled = errors.New("account deletion is already scheduled")
)

// DeletionDecision is the outcome of an eligibility evaluation.
type DeletionDecision struct {
	Immediate  bool
	DeleteDate time.Time
}

// DeletionService decides when a user's data may be destroyed, persists
// deferred-destruction intents, and sweeps them when due. It keeps no state
// of its own; an external clock drives the sweep.
type DeletionService struct {
	userRepo     repository.UserRepository
	regRepo      repository.RegistrationRepository
	deletionRepo repository.DeletionRepository
	auditor      *audit.Auditor
	logger       *slog.Logger
}

// NewDeletionService creates a new DeletionService.
func NewDeletionService(
	userRepo repository.UserRepository,
	regRepo repository.RegistrationRepository,
	deletionRepo repository.DeletionRepository,
	auditor *audit.Auditor,
	logger *slog.Logger,
) *DeletionService {
	return &DeletionService{
		userRepo:     userRepo,
		regRepo:      regRepo,
		deletionRepo: deletionRepo,
		auditor:      auditor,
		logger:       logger,
	}
}

// Evaluate is the sole authority on destruction eligibility, for both the
// immediate and the deferred path. Only active registrations count; a
// cancelled sign-up to a future event does not defer destruction.
func (s *DeletionService) Evaluate(userID uint64, now time.Time) (DeletionDecision, error) {
	regs, err := s.regRepo.ListActiveByUser(userID)
	if err != nil {
		return DeletionDecision{}, fmt.Errorf("%w: list registrations: %v", ErrStoreUnavailable, err)
	}

	if len(regs) == 0 {
		return DeletionDecision{Immediate: true}, nil
	}

	last := regs[0].Event.StartTime
	for _, reg := range regs[1:] {
		if reg.Event.StartTime.After(last) {
			last = reg.Event.StartTime
		}
	}

	if last.Before(now) && now.Sub(last) >= constants.DeletionGracePeriod {
		return DeletionDecision{Immediate: true}, nil
	}

	return DeletionDecision{DeleteDate: last.Add(constants.DeletionGracePeriod)}, nil
}

// RequestDeletion handles a user's account-deletion request. Eligible users
// are destroyed on the spot; everyone else gets a pending-deletion row and a
// blocked account until the retention window runs out. ip is the requesting
// client's address, recorded on the audit trail.
func (s *DeletionService) RequestDeletion(userID uint64, ip string) (DeletionDecision, error) {
	now := time.Now()

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeletionDecision{}, ErrUserNotFound
		}
		return DeletionDecision{}, fmt.Errorf("%w: find user: %v", ErrStoreUnavailable, err)
	}

	if _, err := s.deletionRepo.FindByUser(userID); err == nil {
		return DeletionDecision{}, ErrDeletionAlreadyScheduled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DeletionDecision{}, fmt.Errorf("%w: find pending deletion: %v", ErrStoreUnavailable, err)
	}

	decision, err := s.Evaluate(userID, now)
	if err != nil {
		return DeletionDecision{}, err
	}

	if decision.Immediate {
		if err := s.destroy(userID, now); err != nil {
			return DeletionDecision{}, err
		}
		s.auditor.Record(audit.ActionDeletionRequested, nil, map[string]any{
			"immediate": true,
		}, ip)
		return decision, nil
	}

	pending := &models.PendingDeletion{
		UserID:       userID,
		DeletionDate: decision.DeleteDate,
	}
	if err := s.deletionRepo.Schedule(pending); err != nil {
		if errors.Is(err, repository.ErrScheduleConflict) {
			return DeletionDecision{}, ErrDeletionAlreadyScheduled
		}
		return DeletionDecision{}, fmt.Errorf("%w: schedule deletion: %v", ErrStoreUnavailable, err)
	}

	s.auditor.Record(audit.ActionDeletionScheduled, &userID, map[string]any{
		"deletion_date": decision.DeleteDate,
	}, ip)

	return decision, nil
}

// SweepDueDeletions destroys every user whose pending deletion has come due.
// One user's failure never aborts the rest; each outcome is logged on its
// own. Returns the number of successful destructions.
func (s *DeletionService) SweepDueDeletions(now time.Time) (int, error) {
	due, err := s.deletionRepo.FindDue(now)
	if err != nil {
		return 0, fmt.Errorf("%w: find due deletions: %v", ErrStoreUnavailable, err)
	}

	succeeded := 0
	for _, pending := range due {
		if err := s.destroy(pending.UserID, now); err != nil {
			s.logger.Error("deletion sweep: destroy failed",
				"user_id", pending.UserID, "error", err)
			continue
		}
		s.logger.Info("deletion sweep: user destroyed", "user_id", pending.UserID)
		succeeded++
	}

	return succeeded, nil
}

// destroy runs the destruction batch. A user that no longer exists has
// already been destroyed; any pending row left behind is dropped so the sweep
// queue does not keep re-reporting it.
func (s *DeletionService) destroy(userID uint64, now time.Time) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.deletionRepo.ClearPending(userID); err != nil {
				return fmt.Errorf("%w: clear pending deletion: %v", ErrStoreUnavailable, err)
			}
			return nil
		}
		return fmt.Errorf("%w: find user: %v", ErrStoreUnavailable, err)
	}

	archive, err := s.buildArchive(user, now)
	if err != nil {
		return err
	}

	if err := s.deletionRepo.DestroyUser(userID, archive); err != nil {
		return fmt.Errorf("%w: destroy user: %v", ErrStoreUnavailable, err)
	}

	s.auditor.Record(audit.ActionUserDestroyed, nil, map[string]any{
		"events_participated": archive.EventsParticipated,
	}, "")

	return nil
}

// buildArchive assembles the minimal retained record. Only active
// registrations whose event already started count as participation.
func (s *DeletionService) buildArchive(user *models.User, now time.Time) (*models.DeletedUserArchive, error) {
	regs, err := s.regRepo.ListActiveByUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list registrations: %v", ErrStoreUnavailable, err)
	}

	participated := make([]uint64, 0, len(regs))
	for _, reg := range regs {
		if reg.Event.StartTime.Before(now) {
			participated = append(participated, reg.EventID)
		}
	}

	events, err := json.Marshal(participated)
	if err != nil {
		return nil, fmt.Errorf("marshal participated events: %w", err)
	}

	return &models.DeletedUserArchive{
		UserID:             user.ID,
		Name:               user.Name,
		RegisteredAt:       user.CreatedAt,
		DeletedAt:          now,
		EventsParticipated: string(events),
	}, nil
}
