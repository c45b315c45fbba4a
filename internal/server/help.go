package server

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/models"
)

// helpLogin signs the request in as an admin for documentation screenshots.
// It reuses the first active admin and otherwise creates the help account,
// falling back to a suffixed name when the plain one is taken.
// Callers must check cfg.HelpModeActive first.
func (s *Server) helpLogin(c *gin.Context) *models.User {
	log := logging.For("help")
	ctx := c.Request.Context()

	u, err := s.store.FirstActiveAdmin(ctx)
	if errors.Is(err, ErrNotFound) {
		u, err = s.createHelpAdmin(c)
	}
	if err != nil {
		log.WithError(errors.New(SanitizeError(err))).Warn("auto login failed")
		return nil
	}

	if _, err := s.setSession(c, u); err != nil {
		log.WithError(err).Warn("auto login failed")
		return nil
	}
	s.store.Audit(ctx, u, models.ActionHelpAutoLogin, map[string]any{"mode": "autologin"})
	log.WithField("user", u.Username).Info("help mode auto login")
	return u
}

func (s *Server) createHelpAdmin(c *gin.Context) (*models.User, error) {
	ctx := c.Request.Context()
	password, err := randomToken(24)
	if err != nil {
		return nil, err
	}

	u, err := s.store.CreateUser(ctx, s.cfg.HelpUsername, password, models.RoleAdmin)
	if err == nil || !errors.Is(err, ErrUserExists) {
		return u, err
	}

	suffix, err := randomToken(3)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, fmt.Sprintf("%s_%s", s.cfg.HelpUsername, suffix), password, models.RoleAdmin)
}
