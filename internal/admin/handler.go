package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/auth"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/request"
	"github.com/jattu8602/presentsirweb-sub001/internal/school"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

type DecisionRequest struct {
	Status  models.ApprovalStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Message string                `json:"message,omitempty" validate:"max=500"`
}

type DecisionResponse struct {
	Institution *school.InstitutionResponse `json:"institution"`
	Changed     bool                        `json:"changed"`
}

func statusQuery(c *fiber.Ctx) (models.ApprovalStatus, error) {
	status := models.ApprovalStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		return "", apperr.Validation(map[string]string{"status": "Must be one of: PENDING, APPROVED, REJECTED"})
	}
	return status, nil
}

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation(map[string]string{"id": "Must be a positive integer"})
	}
	return uint(id), nil
}

// GET /api/admin/schools?status=PENDING
func ListInstitutionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := statusQuery(c)
		if err != nil {
			return err
		}

		list, err := svc.List(c.UserContext(), status)
		if err != nil {
			return err
		}

		res := make([]*school.InstitutionResponse, 0, len(list))
		for i := range list {
			res = append(res, school.NewInstitutionResponse(&list[i]))
		}
		return c.JSON(res)
	}
}

func GetInstitutionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		inst, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(school.NewInstitutionResponse(inst))
	}
}

// POST /api/admin/schools/:id/approve {status, message?}
func DecideHandler(svc *Service, v *validator.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		var body DecisionRequest
		if err := request.Bind(c, v, &body); err != nil {
			return err
		}

		d, err := svc.Decide(c.UserContext(), ActorFromClaims(auth.ClaimsFrom(c)), id, body.Status, body.Message)
		if err != nil {
			return err
		}
		return c.JSON(DecisionResponse{
			Institution: school.NewInstitutionResponse(d.Institution),
			Changed:     d.Changed,
		})
	}
}

// GET /api/admin/schools/export?status=APPROVED
func ExportInstitutionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := statusQuery(c)
		if err != nil {
			return err
		}

		data, err := svc.Export(c.UserContext(), status)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("institutions-%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(data)
	}
}
