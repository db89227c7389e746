package testutil

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"baytna-backend/internal/config"
	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-secret"

// OpenTestDB opens a migrated in-memory SQLite database private to the test.
// A single connection keeps every query on the same shared-cache database.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared&_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type UserOption func(*models.User)

func CanApprove(u *models.User)      { u.CanApprove = true }
func CanApproveTrips(u *models.User) { u.CanApproveTrips = true }
func CanAddShortages(u *models.User) { u.CanAddShortages = true }

// CreateUser inserts an active user whose password equals its username.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(username)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Username:     username,
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// Token signs a session token for u with a fresh session id.
func Token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(JWTSecret, u.ID, string(u.Role), uuid.NewString(), time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// Authorize attaches u's session cookie to req.
func Authorize(t *testing.T, req *http.Request, u *models.User) {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: "baytna_session", Value: Token(t, u)})
}
