// HomeBuilder: form-driven home page builder with live preview and SFTP publishing.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vesaa/homebuilder/internal/config"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/models"
	"github.com/vesaa/homebuilder/internal/publish"
	"github.com/vesaa/homebuilder/internal/render"
	"github.com/vesaa/homebuilder/internal/server"
)

const asciiLogo = `
 ██╗  ██╗ ██████╗ ███╗   ███╗███████╗██████╗ ██╗   ██╗██╗██╗     ██████╗ ███████╗██████╗
 ██║  ██║██╔═══██╗████╗ ████║██╔════╝██╔══██╗██║   ██║██║██║     ██╔══██╗██╔════╝██╔══██╗
 ███████║██║   ██║██╔████╔██║█████╗  ██████╔╝██║   ██║██║██║     ██║  ██║█████╗  ██████╔╝
 ██╔══██║██║   ██║██║╚██╔╝██║██╔══╝  ██╔══██╗██║   ██║██║██║     ██║  ██║██╔══╝  ██╔══██╗
 ██║  ██║╚██████╔╝██║ ╚═╝ ██║███████╗██████╔╝╚██████╔╝██║███████╗██████╔╝███████╗██║  ██║
 ╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚══════╝╚═════╝  ╚═════╝ ╚═╝╚══════╝╚═════╝ ╚══════╝╚═╝  ╚═╝
`

const version = "v0.1.0"

func printBanner(mode string) {
	fmt.Print(asciiLogo + "\n")
	fmt.Printf("  ► HomeBuilder %s  |  Mode: %s\n\n", version, mode)
}

// loadConfig reads and validates config and applies the logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openServer loads config, opens the database and wires the application.
func openServer() (*server.Server, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := server.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return server.New(cfg, db), nil
}

func main() {
	root := &cobra.Command{
		Use:   "homebuilder",
		Short: "HomeBuilder: build, preview and publish small company home pages",
		Long: `HomeBuilder serves a form-driven builder for one-page company sites.
Operators edit a project, watch the live preview and publish the rendered
static files to an SFTP host.`,
		SilenceUsage: true,
	}

	// ── server subcommand ─────────────────────────────────────────────────────
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the builder web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("SERVER")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			// CLI flags override config values.
			if cmd.Flags().Changed("help-mode") {
				cfg.HelpMode, _ = cmd.Flags().GetBool("help-mode")
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			db, err := server.OpenDB(cfg)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			srv := server.New(cfg, db)
			if err := srv.Bootstrap(cmd.Context()); err != nil {
				return fmt.Errorf("bootstrapping %s: %w", cfg.Env, err)
			}

			gin.SetMode(gin.ReleaseMode)
			addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.Port)

			fmt.Printf("  ✓ Builder (Web UI + API) → http://%s\n", addr)
			fmt.Printf("  ✓ Environment:            %s\n", cfg.Env)
			if cfg.SFTPURL == "" {
				fmt.Println("  ✗ Publishing disabled (sftp_url not set)")
			} else {
				fmt.Printf("  ✓ Publishing to:          %s\n", cfg.SFTPBaseDir)
			}
			if cfg.HelpModeActive() {
				fmt.Println("  ! Help mode: anonymous requests are signed in as an admin")
			} else if cfg.HelpMode {
				fmt.Println("  ✗ Help mode ignored in prod")
			}
			fmt.Println()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Engine(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt) // os.Interrupt = SIGINT; works on all platforms

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-quit:
				fmt.Println("\n  → Shutting down gracefully…")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(ctx)
			}
		},
	}
	serverCmd.Flags().Bool("help-mode", false, "Sign anonymous requests in as an admin (never in prod)")
	serverCmd.Flags().Int("port", 0, "Listen port (overrides config)")

	// ── export subcommand ─────────────────────────────────────────────────────
	exportCmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Render a stored project into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := openServer()
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")

			d, err := srv.Store().GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			files, err := render.Site(d)
			if err != nil {
				return err
			}
			written, err := publish.Export(cmd.Context(), publish.DirWriter{Root: out}, files)
			if err != nil {
				return err
			}
			for _, name := range written {
				fmt.Printf("  ✓ %s\n", name)
			}
			return nil
		},
	}
	exportCmd.Flags().String("out", "site", "Output directory")

	// ── publish subcommand ────────────────────────────────────────────────────
	publishCmd := &cobra.Command{
		Use:   "publish <project-id>",
		Short: "Render a stored project and upload it over SFTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := openServer()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			d, err := srv.Store().GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := srv.Publish(ctx, d, nil)
			if err != nil {
				return errors.New(server.SanitizeError(err))
			}
			fmt.Printf("  ✓ Published %s → %s (%d files)\n", d.ProjectID, res.SiteDir, len(res.Files))
			return nil
		},
	}

	// ── user subcommand ───────────────────────────────────────────────────────
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userAddCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account (password from --password or HB_NEW_PASSWORD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := openServer()
			if err != nil {
				return err
			}
			role, _ := cmd.Flags().GetString("role")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("HB_NEW_PASSWORD")
			}

			u, err := srv.Store().CreateUser(cmd.Context(), args[0], password, models.Role(role))
			if err != nil {
				return err
			}
			srv.Store().Audit(cmd.Context(), nil, models.ActionUserCreated, map[string]any{
				"username": u.Username, "role": u.Role, "via": "cli",
			})
			fmt.Printf("  ✓ Created %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	userAddCmd.Flags().String("role", string(models.RoleUser), "admin, subadmin or user")
	userAddCmd.Flags().String("password", "", "Password (at least 10 characters)")
	userCmd.AddCommand(userAddCmd)

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print HomeBuilder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("HomeBuilder %s\n", version)
		},
	}

	root.AddCommand(serverCmd, exportCmd, publishCmd, userCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
