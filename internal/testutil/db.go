// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jattu8602/presentsirweb-sub001/internal/database"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateAccount stores an account with a bcrypt hash of password (min cost)
// and, when status is non-empty, an institution in that status.
func CreateAccount(t *testing.T, db *gorm.DB, email, password string, role models.Role, status models.ApprovalStatus) *models.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)

	acc := &models.Account{
		Email:        email,
		Handle:       strings.SplitN(email, "@", 2)[0],
		PasswordHash: &h,
		Role:         role,
		Name:         "Test " + string(role),
	}
	require.NoError(t, db.Create(acc).Error)

	if status != "" {
		inst := &models.Institution{
			AccountID:          acc.ID,
			Type:               models.InstitutionSchool,
			RegisteredName:     "Test Public School",
			RegistrationNumber: "REG-" + acc.Handle,
			AddressLine:        "12 Park Street",
			City:               "Kolkata",
			State:              "West Bengal",
			PostalCode:         "700016",
			Phone:              "9876543210",
			PrincipalName:      "R. Sen",
			PrincipalEmail:     "principal@" + strings.SplitN(email, "@", 2)[1],
			PrincipalPhone:     "9876543211",
			PlanType:           models.PlanBasic,
			PlanDuration:       models.PlanYearly,
			Status:             status,
		}
		require.NoError(t, db.Create(inst).Error)
		acc.Institution = inst
	}
	return acc
}
