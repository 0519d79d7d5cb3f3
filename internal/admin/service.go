package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/audit"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/notify"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
)

const (
	entityInstitution = "institution"
	notifyTimeout     = 15 * time.Second
)

// Actor is whoever performs an administrative action, taken from token
// claims.
type Actor struct {
	Name string
	Role models.Role
}

func ActorFromClaims(c *token.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{Name: c.Email, Role: c.Role}
}

type Decision struct {
	Institution *models.Institution
	// Changed is false when the request matched the current state and
	// nothing was written.
	Changed bool
}

type Service struct {
	db       *gorm.DB
	mailer   notify.Mailer
	loginURL string
	now      func() time.Time
}

func NewService(db *gorm.DB, mailer notify.Mailer, loginURL string) *Service {
	return &Service{
		db:       db,
		mailer:   mailer,
		loginURL: loginURL,
		now:      time.Now,
	}
}

func (s *Service) Approve(ctx context.Context, actor Actor, id uint) (*Decision, error) {
	return s.Decide(ctx, actor, id, models.StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, actor Actor, id uint, reason string) (*Decision, error) {
	return s.Decide(ctx, actor, id, models.StatusRejected, reason)
}

// Decide moves an institution to APPROVED or REJECTED. Approving an
// already approved institution is a no-op. Concurrent decisions are not
// serialised: the last committed write wins.
func (s *Service) Decide(ctx context.Context, actor Actor, id uint, status models.ApprovalStatus, message string) (*Decision, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.ErrForbidden
	}

	message = strings.TrimSpace(message)
	switch status {
	case models.StatusApproved:
	case models.StatusRejected:
		if message == "" {
			return nil, apperr.Unprocessable("message", "reason required")
		}
	default:
		return nil, apperr.Unprocessable("status", "status must be APPROVED or REJECTED")
	}

	var (
		inst    models.Institution
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inst, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Institution")
			}
			return err
		}

		if inst.Status == models.StatusApproved && status == models.StatusApproved {
			return nil
		}

		before := snapshot(&inst)
		now := s.now()
		inst.Status = status
		inst.StatusReason = message
		inst.ReviewedAt = &now

		err := tx.Model(&inst).Select("Status", "StatusReason", "ReviewedAt").Updates(&inst).Error
		if err != nil {
			return fmt.Errorf("admin: update status: %w", err)
		}
		changed = true

		action := models.AuditActionApprove
		if status == models.StatusRejected {
			action = models.AuditActionReject
		}
		return audit.WriteLog(tx, audit.LogOptions{
			ActorName:   actor.Name,
			ActorRole:   actor.Role,
			EntityType:  entityInstitution,
			EntityID:    inst.ID,
			Action:      action,
			Description: fmt.Sprintf("%s: %s -> %s", inst.RegisteredName, before.Status, status),
			Before:      before,
			After:       snapshot(&inst),
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.With("institution_id", inst.ID, "actor", actor.Name).Info("institution status changed", "status", inst.Status)
		s.notify(ctx, &inst)
	}
	return &Decision{Institution: &inst, Changed: changed}, nil
}

// notify is best effort: the status change is already committed and a
// failed email is only logged.
func (s *Service) notify(ctx context.Context, inst *models.Institution) {
	if s.mailer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, inst.AccountID).Error; err != nil {
		logger.WithError(err).Warn("notify: owner lookup failed", "institution_id", inst.ID)
		return
	}

	msg, err := notify.StatusMessage(acc.Email, notify.StatusData{
		RegisteredName: inst.RegisteredName,
		Status:         inst.Status,
		Reason:         inst.StatusReason,
		Handle:         acc.Handle,
		LoginURL:       s.loginURL,
	})
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.WithError(err).Warn("notify: status email not sent", "institution_id", inst.ID)
	}
}

type statusSnapshot struct {
	Status       models.ApprovalStatus `json:"status"`
	StatusReason string                `json:"status_reason,omitempty"`
}

func snapshot(inst *models.Institution) statusSnapshot {
	return statusSnapshot{Status: inst.Status, StatusReason: inst.StatusReason}
}

func (s *Service) List(ctx context.Context, status models.ApprovalStatus) ([]models.Institution, error) {
	q := s.db.WithContext(ctx).Model(&models.Institution{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var list []models.Institution
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("admin: list institutions: %w", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Institution, error) {
	var inst models.Institution
	if err := s.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Institution")
		}
		return nil, err
	}
	return &inst, nil
}
