package school

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

const credentialsNotice = "Save these credentials now. They will not be shown again."

type Credentials struct {
	Email    string `json:"email"`
	Handle   string `json:"handle"`
	Password string `json:"password"`
	Notice   string `json:"notice"`
}

type RegisterResult struct {
	Message     string               `json:"message"`
	User        *models.Identity     `json:"user"`
	Institution *InstitutionResponse `json:"institution"`
	Credentials Credentials          `json:"credentials"`
}

type InstitutionResponse struct {
	ID                 uint                   `json:"id"`
	AccountID          uint                   `json:"accountId"`
	Type               models.InstitutionType `json:"type"`
	RegisteredName     string                 `json:"registeredName"`
	RegistrationNumber string                 `json:"registrationNumber"`
	AddressLine        string                 `json:"addressLine"`
	City               string                 `json:"city"`
	State              string                 `json:"state"`
	PostalCode         string                 `json:"postalCode"`
	Phone              string                 `json:"phone"`
	Website            string                 `json:"website,omitempty"`
	PrincipalName      string                 `json:"principalName"`
	PrincipalEmail     string                 `json:"principalEmail"`
	PrincipalPhone     string                 `json:"principalPhone"`
	PlanType           models.PlanType        `json:"planType"`
	PlanDuration       models.PlanDuration    `json:"planDuration"`
	Status             models.ApprovalStatus  `json:"status"`
	StatusReason       string                 `json:"statusReason,omitempty"`
	ReviewedAt         *time.Time             `json:"reviewedAt,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
}

func NewInstitutionResponse(inst *models.Institution) *InstitutionResponse {
	return &InstitutionResponse{
		ID:                 inst.ID,
		AccountID:          inst.AccountID,
		Type:               inst.Type,
		RegisteredName:     inst.RegisteredName,
		RegistrationNumber: inst.RegistrationNumber,
		AddressLine:        inst.AddressLine,
		City:               inst.City,
		State:              inst.State,
		PostalCode:         inst.PostalCode,
		Phone:              inst.Phone,
		Website:            inst.Website,
		PrincipalName:      inst.PrincipalName,
		PrincipalEmail:     inst.PrincipalEmail,
		PrincipalPhone:     inst.PrincipalPhone,
		PlanType:           inst.PlanType,
		PlanDuration:       inst.PlanDuration,
		Status:             inst.Status,
		StatusReason:       inst.StatusReason,
		ReviewedAt:         inst.ReviewedAt,
		CreatedAt:          inst.CreatedAt,
	}
}

type Service struct {
	db         *gorm.DB
	v          *validator.Validator
	bcryptCost int
	intn       func(int) int
}

func NewService(db *gorm.DB, v *validator.Validator, bcryptCost int) *Service {
	return &Service{
		db:         db,
		v:          v,
		bcryptCost: bcryptCost,
		intn:       rand.IntN,
	}
}

// registerAttempts bounds how often Register retries after losing a race
// for a login handle.
const registerAttempts = 3

// Register creates the owning account and its pending institution in one
// transaction. Either both rows exist afterwards or neither does. req is
// normalized in place before validation.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	req.Normalize()
	if err := s.v.Struct(req); err != nil {
		return nil, err
	}

	email := auth.NormalizeEmail(req.Email)
	regNo := strings.TrimSpace(req.RegistrationNumber)

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.RegistrationFailed(err)
	}

	var (
		acc  *models.Account
		inst *models.Institution
	)
	for attempt := 1; ; attempt++ {
		acc, inst, err = s.create(ctx, req, email, regNo, hash)
		if err == nil {
			break
		}
		err = s.registrationError(ctx, err, email, regNo)
		if !errors.Is(err, errHandleTaken) {
			return nil, err
		}
		if attempt == registerAttempts {
			return nil, apperr.RegistrationFailed(ErrHandleExhausted)
		}
		logger.With("attempt", attempt).Warn("registration lost a handle race, retrying")
	}

	logger.With("account_id", acc.ID, "institution_id", inst.ID).Info("institution registered", "type", inst.Type)

	return &RegisterResult{
		Message:     "Registration submitted. You can sign in once an administrator approves it.",
		User:        acc.Identity(),
		Institution: NewInstitutionResponse(inst),
		Credentials: Credentials{
			Email:    email,
			Handle:   acc.Handle,
			Password: req.Password,
			Notice:   credentialsNotice,
		},
	}, nil
}

func (s *Service) create(ctx context.Context, req *RegisterRequest, email, regNo, hash string) (*models.Account, *models.Institution, error) {
	var (
		acc  models.Account
		inst models.Institution
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if exists, err := s.exists(tx, &models.Account{}, "email = ?", email); err != nil {
			return err
		} else if exists {
			return apperr.EmailExists()
		}
		if exists, err := s.exists(tx, &models.Institution{}, "registration_number = ?", regNo); err != nil {
			return err
		} else if exists {
			return registrationNumberTaken()
		}

		handle, err := uniqueHandle(tx, BaseHandle(email), s.intn)
		if err != nil {
			return err
		}

		acc = models.Account{
			Email:        email,
			Handle:       handle,
			PasswordHash: &hash,
			Role:         models.RoleSchool,
			Name:         strings.TrimSpace(req.RegisteredName),
		}
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}

		inst = models.Institution{
			AccountID:          acc.ID,
			Type:               req.InstitutionType,
			RegisteredName:     strings.TrimSpace(req.RegisteredName),
			RegistrationNumber: regNo,
			AddressLine:        strings.TrimSpace(req.AddressLine),
			City:               strings.TrimSpace(req.City),
			State:              strings.TrimSpace(req.State),
			PostalCode:         req.PostalCode,
			Phone:              req.Phone,
			Website:            strings.TrimSpace(req.Website),
			PrincipalName:      strings.TrimSpace(req.PrincipalName),
			PrincipalEmail:     auth.NormalizeEmail(req.PrincipalEmail),
			PrincipalPhone:     req.PrincipalPhone,
			PlanType:           req.PlanType,
			PlanDuration:       req.PlanDuration,
			Status:             models.StatusPending,
		}
		return tx.Create(&inst).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &acc, &inst, nil
}

func (s *Service) exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Unscoped().Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

var errHandleTaken = errors.New("school: handle taken concurrently")

// registrationError maps a failed transaction to the error the caller sees.
// A unique violation means a concurrent registration won the race; the
// committed rows tell which key it took. When neither the email nor the
// registration number is taken, the collision was on the handle and
// errHandleTaken is returned so the caller can retry.
func (s *Service) registrationError(ctx context.Context, err error, email, regNo string) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, ErrHandleExhausted) {
		return apperr.RegistrationFailed(err)
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.RegistrationFailed(err)
	}

	db := s.db.WithContext(ctx)
	taken, lookupErr := s.exists(db, &models.Account{}, "email = ?", email)
	if lookupErr != nil {
		return apperr.RegistrationFailed(errors.Join(err, lookupErr))
	}
	if taken {
		return apperr.EmailExists()
	}
	taken, lookupErr = s.exists(db, &models.Institution{}, "registration_number = ?", regNo)
	if lookupErr != nil {
		return apperr.RegistrationFailed(errors.Join(err, lookupErr))
	}
	if taken {
		return registrationNumberTaken()
	}
	return errHandleTaken
}

func registrationNumberTaken() *apperr.Error {
	return &apperr.Error{
		Code:    apperr.CodeValidation,
		Message: "Registration number is already registered",
		Status:  http.StatusConflict,
		Fields:  map[string]string{"registrationNumber": "Registration number is already registered"},
	}
}
