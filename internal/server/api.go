package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/homebuilder/internal/config"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/models"
	"github.com/vesaa/homebuilder/internal/project"
	"github.com/vesaa/homebuilder/internal/publish"
	"github.com/vesaa/homebuilder/internal/render"
	"github.com/vesaa/homebuilder/internal/sysinfo"
	"gorm.io/gorm"
)

// AuditLimit is how many entries the audit page shows.
const AuditLimit = 200

// Dialer opens the publish destination.
type Dialer func(ctx context.Context) (publish.Writer, error)

// Server is the HomeBuilder web application.
type Server struct {
	cfg        *config.Config
	store      *Store
	workspaces *Workspaces
	live       *Hub
	sys        *sysinfo.Collector
	dial       Dialer
	jwtSecret  []byte
	now        func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithDialer replaces the SFTP dialer, e.g. with a local directory writer.
func WithDialer(d Dialer) Option { return func(s *Server) { s.dial = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New wires a Server over an opened database.
func New(cfg *config.Config, db *gorm.DB, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		store:      NewStore(db),
		workspaces: NewWorkspaces(),
		live:       NewHub(),
		sys:        sysinfo.NewCollector(""),
		dial:       SFTPDialer(cfg),
		jwtSecret:  []byte(cfg.JWTSecret),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.store.now = s.now
	return s
}

// Store exposes the database layer to the CLI.
func (s *Server) Store() *Store { return s.store }

// SFTPDialer dials the sftp_url from cfg with the configured key and known_hosts.
func SFTPDialer(cfg *config.Config) Dialer {
	return func(ctx context.Context) (publish.Writer, error) {
		if cfg.SFTPURL == "" {
			return nil, ErrPublishDisabled
		}
		t, err := publish.ParseURL(cfg.SFTPURL)
		if err != nil {
			return nil, err
		}
		t.KeyPath = cfg.SFTPKeyPath
		t.KnownHostsPath = cfg.SFTPKnownHosts
		w, err := publish.Dial(ctx, t)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

// Bootstrap prepares the database for the configured environment: stg gets
// its test accounts.
func (s *Server) Bootstrap(ctx context.Context) error {
	if s.cfg.Env != "stg" || s.cfg.StgTestPassword == "" {
		return nil
	}
	return s.store.SeedStgUsers(ctx, s.cfg.StgTestPassword)
}

// Engine builds the Gin engine with middleware, API routes and the UI.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	s.RegisterRoutes(r)
	RegisterStaticFiles(r)
	return r
}

// RegisterRoutes wires up the API on the given engine.
//
//	Public:   health, setup, login, logout
//	Session:  everything else; publish, delete, system are admin only,
//	          audit is admin and subadmin
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ── Public endpoints ──────────────────────────────────────────────────────
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.now().UTC()})
	})
	api.GET("/setup", s.handleSetupStatus)
	api.POST("/setup", s.handleSetup)
	api.POST("/login", s.handleLogin)
	api.POST("/logout", s.handleLogout)

	// ── Session endpoints ─────────────────────────────────────────────────────
	auth := api.Group("/", s.SessionMiddleware())
	{
		auth.GET("/me", s.handleMe)
		auth.GET("/presets", handlePresets)

		auth.GET("/projects", s.handleProjectList)
		auth.POST("/projects", s.handleProjectCreate)
		auth.GET("/projects/:id", s.handleProjectGet)
		auth.DELETE("/projects/:id", RequireRole(models.RoleAdmin), s.handleProjectDelete)
		auth.POST("/projects/:id/open", s.handleProjectOpen)

		auth.GET("/workspace", s.handleWorkspace)
		auth.POST("/workspace/edits", s.handleEdits)
		auth.POST("/workspace/save", s.handleSave)
		auth.GET("/workspace/preview", s.handlePreview)
		auth.GET("/workspace/live", s.handleLive)
		auth.POST("/workspace/publish", RequireRole(models.RoleAdmin), s.handlePublish)

		auth.GET("/audit", RequireRole(models.RoleAdmin, models.RoleSubadmin), s.handleAudit)
		auth.GET("/system", RequireRole(models.RoleAdmin), s.handleSystem)
	}
}

// ── Setup & login ─────────────────────────────────────────────────────────────

// handleSetupStatus reports whether the first admin still has to be created.
func (s *Server) handleSetupStatus(c *gin.Context) {
	n, err := s.store.CountUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"needed": n == 0})
}

// handleSetup creates the first admin and signs them in.
//
//	POST /api/setup
//	Body: { "username": "owner", "password": "...", "confirm": "..." }
func (s *Server) handleSetup(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	ctx := c.Request.Context()
	u, err := s.store.SetupFirstAdmin(ctx, body.Username, body.Password, body.Confirm)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.store.Audit(ctx, u, models.ActionFirstAdminCreated, map[string]any{"username": u.Username})
	if _, err := s.setSession(c, u); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// handleLogin checks credentials and issues a session.
//
//	POST /api/login
//	Body: { "username": "admin", "password": "..." }
func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	ctx := c.Request.Context()
	u, err := s.store.Authenticate(ctx, body.Username, body.Password)
	if err != nil {
		s.store.Audit(ctx, nil, models.ActionLoginFailed, map[string]any{"username": body.Username})
		abortWithError(c, err)
		return
	}
	token, err := s.setSession(c, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.store.Audit(ctx, u, models.ActionLoginSuccess, nil)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(s.sessionTTL().Seconds()),
		"type":       "Bearer",
		"user":       u,
	})
}

// handleLogout clears the session and the user's open workspace.
func (s *Server) handleLogout(c *gin.Context) {
	if u := s.sessionUser(c); u != nil {
		s.store.Audit(c.Request.Context(), u, models.ActionLogout, nil)
		s.workspaces.Close(u.ID)
	}
	clearSession(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleMe(c *gin.Context) {
	u := currentUser(c)
	resp := gin.H{
		"user":      u,
		"env":       s.cfg.Env,
		"help_mode": s.cfg.HelpModeActive(),
	}
	if d, dirty, err := s.workspaces.Get(u.ID); err == nil {
		resp["workspace"] = gin.H{"project": d.Summarize(), "dirty": dirty}
	}
	c.JSON(http.StatusOK, resp)
}

// handlePresets returns the choices the builder form offers.
func handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"presets":  project.Presets,
		"fields":   project.EditableFields(),
		"sections": project.DefaultLayout,
		"modes":    []render.Mode{render.ModeMobile, render.ModePC, render.ModeSite},
	})
}

// ── Projects ──────────────────────────────────────────────────────────────────

func (s *Server) handleProjectList(c *gin.Context) {
	list, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// handleProjectCreate creates a project, empty or copied from another one,
// and opens it.
//
//	POST /api/projects
//	Body: { "name": "Acme site", "from": "p20250101..." }
func (s *Server) handleProjectCreate(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
		From string `json:"from"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	u := currentUser(c)
	ctx := c.Request.Context()

	var d *project.Document
	if from := strings.TrimSpace(body.From); from != "" {
		src, err := s.store.GetProject(ctx, from)
		if err != nil {
			abortWithError(c, err)
			return
		}
		d = project.FromTemplate(src, body.Name, u.Username, s.now())
	} else {
		d = project.New(body.Name, u.Username, s.now())
	}

	if err := s.store.SaveProject(ctx, d, u.Username); err != nil {
		abortWithError(c, err)
		return
	}
	s.workspaces.Open(u.ID, d)
	s.live.Publish(u.ID, d)
	s.store.Audit(ctx, u, models.ActionProjectCreate, map[string]any{
		"project_id": d.ProjectID, "name": d.ProjectName, "from": body.From,
	})
	c.JSON(http.StatusCreated, gin.H{"data": d})
}

func (s *Server) handleProjectGet(c *gin.Context) {
	d, err := s.store.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

func (s *Server) handleProjectDelete(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := s.store.DeleteProject(ctx, id); err != nil {
		abortWithError(c, err)
		return
	}
	s.workspaces.Forget(id)
	s.store.Audit(ctx, currentUser(c), models.ActionProjectDelete, map[string]any{"project_id": id})
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// handleProjectOpen loads a stored project into the user's workspace.
func (s *Server) handleProjectOpen(c *gin.Context) {
	u := currentUser(c)
	ctx := c.Request.Context()
	d, err := s.store.GetProject(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.workspaces.Open(u.ID, d)
	s.live.Publish(u.ID, d)
	s.store.Audit(ctx, u, models.ActionProjectLoad, map[string]any{"project_id": d.ProjectID})
	c.JSON(http.StatusOK, gin.H{"data": d})
}

// ── Workspace ─────────────────────────────────────────────────────────────────

func (s *Server) handleWorkspace(c *gin.Context) {
	d, dirty, err := s.workspaces.Get(currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d, "dirty": dirty})
}

// handleEdits applies a batch of form edits to the open project. The batch
// is all-or-nothing.
//
//	POST /api/workspace/edits
//	Body: { "edits": [ {"op":"set","path":"step2.company_name","value":"Acme"} ] }
func (s *Server) handleEdits(c *gin.Context) {
	var body struct {
		Edits []project.Edit `json:"edits" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edits required"})
		return
	}
	u := currentUser(c)
	now := s.now()
	d, err := s.workspaces.Update(u.ID, func(d *project.Document) error {
		for _, e := range body.Edits {
			if err := project.Apply(d, e, now); err != nil {
				return err
			}
		}
		project.Normalize(d, now)
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.live.Publish(u.ID, d)
	c.JSON(http.StatusOK, gin.H{"data": d, "dirty": true})
}

// handleSave persists the open project.
func (s *Server) handleSave(c *gin.Context) {
	u := currentUser(c)
	ctx := c.Request.Context()
	d, dirty, err := s.saveWorkspace(ctx, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.store.Audit(ctx, u, models.ActionProjectSave, map[string]any{"project_id": d.ProjectID})
	c.JSON(http.StatusOK, gin.H{"data": d.Summarize(), "dirty": dirty})
}

// saveWorkspace persists the user's open project. Edits that land while
// the save runs stay in the workspace as unsaved; dirty reports that.
func (s *Server) saveWorkspace(ctx context.Context, u *models.User) (*project.Document, bool, error) {
	d, rev, err := s.workspaces.Checkout(u.ID)
	if err != nil {
		return nil, false, err
	}
	if err := s.store.SaveProject(ctx, d, u.Username); err != nil {
		return nil, false, err
	}
	return d, !s.workspaces.MarkSaved(u.ID, d, rev), nil
}

// handlePreview renders the open project as a standalone page.
//
//	GET /api/workspace/preview?mode=mobile|pc|site
func (s *Server) handlePreview(c *gin.Context) {
	mode, err := render.ParseMode(c.Query("mode"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	d, _, err := s.workspaces.Get(currentUser(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, err := render.Render(d, render.Options{Mode: mode, InlineCSS: true})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.HTML)
}

// handlePublish saves the open project and uploads the rendered site.
func (s *Server) handlePublish(c *gin.Context) {
	u := currentUser(c)
	ctx := c.Request.Context()
	d, _, err := s.saveWorkspace(ctx, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := s.Publish(ctx, d, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

// Publish renders d and uploads it below the configured base directory.
// actor may be nil for CLI publishes.
func (s *Server) Publish(ctx context.Context, d *project.Document, actor *models.User) (*publish.Result, error) {
	files, err := render.Site(d)
	if err != nil {
		return nil, err
	}
	w, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	res, err := publish.Publish(ctx, w, s.cfg.SFTPBaseDir, d.ProjectID, files)
	if err != nil {
		logging.For("publish").WithField("project", d.ProjectID).WithError(err).Error("publish failed")
		return nil, err
	}
	if err := s.store.MarkPublished(ctx, d.ProjectID, s.now()); err != nil {
		logging.For("publish").WithError(err).Warn("recording publish time")
	}
	s.store.Audit(ctx, actor, models.ActionProjectPublish, map[string]any{
		"project_id": d.ProjectID, "dir": res.SiteDir, "files": len(res.Files),
	})
	return res, nil
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (s *Server) handleAudit(c *gin.Context) {
	logs, err := s.store.RecentAudit(c.Request.Context(), AuditLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

func (s *Server) handleSystem(c *gin.Context) {
	snap, err := s.sys.Collect(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}
