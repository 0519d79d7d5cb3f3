package admin

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

const exportSheet = "Institutions"

var exportHeader = []any{
	"ID", "Type", "Registered name", "Registration no.", "Status", "Reason",
	"City", "State", "Postal code", "Phone", "Principal", "Principal email",
	"Plan", "Duration", "Registered at", "Reviewed at",
}

// Export writes the institutions matching status (all when empty) to an
// xlsx workbook.
func (s *Service) Export(ctx context.Context, status models.ApprovalStatus) ([]byte, error) {
	list, err := s.List(ctx, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("admin: export: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("admin: export header: %w", err)
	}

	for i, inst := range list {
		reviewed := ""
		if inst.ReviewedAt != nil {
			reviewed = inst.ReviewedAt.Format("2006-01-02 15:04")
		}
		row := []any{
			inst.ID, string(inst.Type), inst.RegisteredName, inst.RegistrationNumber,
			string(inst.Status), inst.StatusReason, inst.City, inst.State, inst.PostalCode,
			inst.Phone, inst.PrincipalName, inst.PrincipalEmail, string(inst.PlanType),
			string(inst.PlanDuration), inst.CreatedAt.Format("2006-01-02 15:04"), reviewed,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("admin: export row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("admin: export write: %w", err)
	}
	return buf.Bytes(), nil
}
