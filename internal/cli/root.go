// Package cli wires the wms command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikelcalvo/wms/internal/erp"
	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
	"github.com/mikelcalvo/wms/internal/prefs"
)

// app is the state shared by every command of one invocation.
type app struct {
	demo      bool
	role      string
	logLevel  string
	prefsPath string

	cfg    *erp.Config
	client *erp.Client
	log    logger.Logger
	out    io.Writer
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the terminal UI.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "wms",
		Short:         "Warehouse management for ERPNext: orders, stock, purchasing and shipments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd)
		},
	}
	root.PersistentFlags().BoolVar(&a.demo, "demo", false, "use built-in sample data instead of a server")
	root.PersistentFlags().StringVar(&a.role, "role", "", "session role in demo mode (admin, manager, staff, customer)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.prefsPath, "prefs", prefs.DefaultPath(), "preferences file")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Start the terminal UI",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.runTUI(cmd) },
		},
		a.pingCommand(),
		a.configCommand(),
		versionCommand(),
		a.listCommand(),
		a.getCommand(),
		a.createCommand(),
		a.mutateCommand("archive", "Archive records (soft delete)", listcore.BulkArchive),
		a.mutateCommand("restore", "Restore archived records", listcore.BulkRestore),
		a.mutateCommand("delete", "Permanently delete records", listcore.BulkDelete),
		a.exportCommand(),
		a.importCommand(),
		a.reportCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %s%s\n", erp.Red, err, erp.Reset)
		os.Exit(1)
	}
}

// setup loads configuration and the logger. Demo mode works without a
// config file.
func (a *app) setup(cmd *cobra.Command, logOut io.Writer) error {
	a.out = cmd.OutOrStdout()
	cfg, err := erp.LoadConfig()
	if err != nil {
		if !a.demo {
			return err
		}
		cfg = &erp.Config{Brand: "Warehouse", Role: erp.RoleAdmin}
	}
	if a.demo {
		role := erp.RoleAdmin
		if a.role != "" {
			if role, err = erp.ParseRole(a.role); err != nil {
				return err
			}
		}
		cfg.Role = role
		cfg.User = erp.DemoUsers[role]
		if len(cfg.NotifyUsers) == 0 {
			cfg.NotifyUsers = []string{erp.DemoUsers[erp.RoleAdmin], erp.DemoUsers[erp.RoleManager]}
		}
	} else if a.role != "" {
		return fmt.Errorf("--role only applies with --demo; set WMS_ROLE instead")
	}
	a.cfg = cfg

	if logOut == nil {
		logOut = cmd.ErrOrStderr()
	}
	a.log = a.newLogger(logOut)
	if !a.demo {
		a.client = erp.NewClient(cfg, a.log)
	}
	return nil
}

func (a *app) newLogger(w io.Writer) logger.Logger {
	level := a.cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(level),
		Output:     w,
		TimeFormat: "15:04:05",
	})
}

func (a *app) session() erp.Session {
	return erp.Session{User: a.cfg.User, Role: a.cfg.Role}
}

func (a *app) services(ctx context.Context) erp.Services {
	if a.demo {
		return erp.DemoServices(a.session())
	}
	a.client.DetectConnection(ctx)
	a.log.Debug("connected", "mode", a.client.Mode, "url", a.client.ActiveURL)
	return erp.RemoteServices(a.client, a.session())
}

func (a *app) workspaceOptions(notifier listcore.Notifier) erp.WorkspaceOptions {
	saved, err := prefs.Load(a.prefsPath)
	if err != nil {
		a.log.Warn("could not read preferences", "err", err)
	}
	return erp.WorkspaceOptions{
		Session:        a.session(),
		Notifier:       notifier,
		NotifyUsers:    a.cfg.NotifyUsers,
		PageSize:       a.cfg.PageSize,
		SearchDebounce: a.cfg.SearchDebounce,
		Prefs:          saved,
		Log:            a.log,
	}
}

// workspace builds a workspace whose toasts are printed as command output.
func (a *app) workspace(ctx context.Context) *erp.Workspace {
	printer := listcore.NotifierFunc(func(t listcore.Toast) {
		switch t.Level {
		case listcore.ToastSuccess:
			fmt.Fprintf(a.out, "%s✓ %s%s\n", erp.Green, t.Message, erp.Reset)
		case listcore.ToastWarning:
			fmt.Fprintf(a.out, "%s! %s%s\n", erp.Yellow, t.Message, erp.Reset)
		default:
			fmt.Fprintf(a.out, "%s✗ %s%s\n", erp.Red, t.Message, erp.Reset)
		}
	})
	opts := a.workspaceOptions(printer)
	// Saved view preferences belong to the TUI.
	opts.Prefs = prefs.Prefs{}
	return erp.NewWorkspace(a.services(ctx), opts)
}

// collection loads the named view.
func (a *app) collection(ctx context.Context, ws *erp.Workspace, key string) (erp.Collection, error) {
	c, ok := ws.Collection(strings.ToLower(key))
	if !ok {
		return nil, fmt.Errorf("unknown or unavailable view %q (use one of %s)", key, strings.Join(ws.CollectionKeys(), ", "))
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// runTUI logs to a file since the terminal belongs to the UI.
func (a *app) runTUI(cmd *cobra.Command) error {
	if err := a.setup(cmd, io.Discard); err != nil {
		return err
	}
	logFile, err := logger.OpenFile(a.cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	a.log = a.newLogger(logFile)
	a.log.Info("starting terminal UI", "demo", a.demo, "role", a.cfg.Role, "user", a.cfg.User)

	opts := erp.TUIOptions{
		Workspace: a.workspaceOptions(nil),
		Brand:     a.cfg.Brand,
		PrefsPath: a.prefsPath,
		Log:       a.log,
	}
	if a.demo {
		opts.Services = erp.DemoServices(a.session())
	} else {
		opts.Client = erp.NewClient(a.cfg, a.log)
		opts.Services = erp.RemoteServices(opts.Client, a.session())
	}
	return erp.RunTUI(cmd.Context(), opts)
}

// requireServer rejects commands that need a live ERP connection.
func (a *app) requireServer() error {
	if a.demo {
		return fmt.Errorf("not available in demo mode")
	}
	return nil
}
