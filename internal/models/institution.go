package models

import "time"

type InstitutionType string

const (
	InstitutionSchool   InstitutionType = "SCHOOL"
	InstitutionCollege  InstitutionType = "COLLEGE"
	InstitutionCoaching InstitutionType = "COACHING"
)

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type PlanType string

const (
	PlanBasic    PlanType = "BASIC"
	PlanStandard PlanType = "STANDARD"
	PlanPremium  PlanType = "PREMIUM"
)

type PlanDuration string

const (
	PlanMonthly PlanDuration = "MONTHLY"
	PlanYearly  PlanDuration = "YEARLY"
)

// Institution is a school, college or coaching centre owned by exactly one
// SCHOOL account. Status only moves through the approval workflow.
type Institution struct {
	ID                 uint            `gorm:"primaryKey"`
	AccountID          uint            `gorm:"uniqueIndex;not null"`
	Type               InstitutionType `gorm:"size:20;not null"`
	RegisteredName     string          `gorm:"size:200;not null"`
	RegistrationNumber string          `gorm:"size:100;uniqueIndex;not null"`

	AddressLine string `gorm:"size:255;not null"`
	City        string `gorm:"size:100;not null"`
	State       string `gorm:"size:100;not null"`
	PostalCode  string `gorm:"size:10;not null"`

	Phone   string `gorm:"size:20;not null"`
	Website string `gorm:"size:255"`

	PrincipalName  string `gorm:"size:150;not null"`
	PrincipalEmail string `gorm:"size:255;not null"`
	PrincipalPhone string `gorm:"size:20;not null"`

	PlanType     PlanType     `gorm:"size:20;not null"`
	PlanDuration PlanDuration `gorm:"size:20;not null"`

	Status       ApprovalStatus `gorm:"size:20;not null;default:PENDING;index"`
	StatusReason string         `gorm:"size:500"`
	ReviewedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
