// Package server implements the HomeBuilder web application: the GORM
// store, sessions, the builder API and the embedded UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/homebuilder/internal/config"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MinPasswordLen is the shortest password accepted for new accounts.
const MinPasswordLen = 10

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,64}$`)

// OpenDB opens the configured database and runs AutoMigrate.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	var where string
	switch cfg.DBDriver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBPath)
		where = cfg.DBPath
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
		where = "(dsn)"
	default:
		return nil, fmt.Errorf("unsupported db_driver %q (use 'sqlite' or 'postgres')", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}, &models.ProjectRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	logging.For("db").Infof("opened %s/%s", cfg.DBDriver, where)
	return db, nil
}

// Store wraps the database with the queries the application needs.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// ── Users ────────────────────────────────────────────────────────────────────

// CountUsers returns the number of accounts, active or not.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// CreateUser adds an active account.
func (s *Store) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	return createUser(s.db.WithContext(ctx), username, password, role)
}

func createUser(tx *gorm.DB, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) || !role.Valid() {
		return nil, ErrInvalidUser
	}
	if len([]rune(password)) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	var n int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role, IsActive: true}
	if err := tx.Create(u).Error; err != nil {
		return nil, fmt.Errorf("creating user %s: %w", username, err)
	}
	return u, nil
}

// SetupFirstAdmin creates the first admin. It only succeeds while no
// account exists.
func (s *Store) SetupFirstAdmin(ctx context.Context, username, password, confirm string) (*models.User, error) {
	if len([]rune(password)) < MinPasswordLen {
		return nil, ErrWeakPassword
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	var created *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrSetupClosed
		}
		u, err := createUser(tx, username, password, models.RoleAdmin)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	return created, err
}

// Authenticate returns the active user matching username and password.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", strings.TrimSpace(username), true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login_at", now).Error; err != nil {
		logging.For("db").WithError(err).Warn("updating last_login_at")
	}
	u.LastLoginAt = &now
	return &u, nil
}

// ActiveUser returns an active account by id.
func (s *Store) ActiveUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &u, err
}

// FirstActiveAdmin returns the lowest-id active admin.
func (s *Store) FirstActiveAdmin(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Order("id asc").First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &u, err
}

// SeedStgUsers creates the staging test accounts that do not exist yet.
func (s *Store) SeedStgUsers(ctx context.Context, password string) error {
	if password == "" {
		return errors.New("stg_test_password is not set")
	}
	seed := []struct {
		name string
		role models.Role
	}{
		{"admin_test", models.RoleAdmin},
		{"subadmin_test", models.RoleSubadmin},
	}
	for i := 1; i <= 5; i++ {
		seed = append(seed, struct {
			name string
			role models.Role
		}{fmt.Sprintf("user%02d", i), models.RoleUser})
	}

	log := logging.For("db")
	for _, u := range seed {
		_, err := s.CreateUser(ctx, u.name, password, u.role)
		switch {
		case err == nil:
			log.WithField("user", u.name).Info("seeded stg user")
		case errors.Is(err, ErrUserExists):
		default:
			return fmt.Errorf("seeding %s: %w", u.name, err)
		}
	}
	return nil
}

// ── Audit log ────────────────────────────────────────────────────────────────

// Audit appends an entry. Failures are logged and never returned: a broken
// audit table must not block the operator.
func (s *Store) Audit(ctx context.Context, u *models.User, action string, details map[string]any) {
	entry := models.AuditLog{Action: action, Details: datatypes.JSON("{}")}
	if u != nil {
		id := u.ID
		entry.UserID = &id
		entry.Username = u.Username
		entry.Role = u.Role
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logging.For("db").WithFields(logrus.Fields{
			"action": action,
			"error":  SanitizeError(err),
		}).Warn("audit log write failed")
	}
}

// RecentAudit returns the newest entries first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}
