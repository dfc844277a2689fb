package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/warren/internal/profilestore"
	"github.com/vanderheijden86/warren/pkg/backend/rediskv"
	"github.com/vanderheijden86/warren/pkg/backend/sqldb"
	"github.com/vanderheijden86/warren/pkg/config"
	"github.com/vanderheijden86/warren/pkg/model"
	"github.com/vanderheijden86/warren/pkg/ui"
	"github.com/vanderheijden86/warren/pkg/version"
	"github.com/vanderheijden86/warren/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	profileDB := flag.String("profile-db", "", "Profile database path (overrides config)")
	themeFlag := flag.String("theme", "", "Theme name: dark or light (overrides config)")

	listProfiles := flag.Bool("list-profiles", false, "List saved connection profiles and exit")
	addProfile := flag.Bool("add-profile", false, "Save a connection profile and exit (see --name, --family, ...)")
	deleteProfile := flag.String("delete-profile", "", "Delete the profile with this id and exit")

	name := flag.String("name", "", "Profile name (with --add-profile)")
	family := flag.String("family", "sql", "Profile family: sql or redis (with --add-profile)")
	driver := flag.String("driver", "postgres", "Driver: postgres, mysql or redis (with --add-profile)")
	host := flag.String("host", "localhost", "Server host (with --add-profile)")
	port := flag.Int("port", 0, "Server port, 0 for the driver default (with --add-profile)")
	database := flag.String("database", "", "Default database (with --add-profile, sql only)")
	user := flag.String("user", "", "Username (with --add-profile)")
	sslMode := flag.String("ssl-mode", "", "SSL mode (with --add-profile, sql only)")
	redisDBs := flag.Int("redis-dbs", 0, "Redis database count, 0 asks the server (with --add-profile)")
	passwordEnv := flag.String("password-env", "", "Env var holding the password (with --add-profile)")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: warren [options]")
		fmt.Println("\nA TUI browser for SQL schemas and Redis keyspaces.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("warren %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := loadConfig(*configPath)
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", cfgErr)
		cfg = config.DefaultConfig()
	}
	if *profileDB != "" {
		cfg.Storage.ProfileDB = *profileDB
	}
	if *themeFlag != "" {
		cfg.UI.Theme = *themeFlag
	}

	store, err := profilestore.Open(cfg.ProfileDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening profile store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *listProfiles {
		profiles, err := store.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing profiles: %v\n", err)
			os.Exit(1)
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles. Add one with 'warren --add-profile'.")
			os.Exit(0)
		}
		for _, p := range profiles {
			fmt.Printf("%s  %-20s %s/%s %s:%d\n", p.ID, p.Name, p.Family, p.Driver, p.Host, p.Port)
		}
		os.Exit(0)
	}

	if *deleteProfile != "" {
		if err := store.Delete(ctx, *deleteProfile); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Profile deleted")
		os.Exit(0)
	}

	if *addProfile {
		p := model.Profile{
			Name:         *name,
			Family:       model.Family(*family),
			Driver:       *driver,
			Host:         *host,
			Port:         *port,
			Database:     *database,
			Username:     *user,
			SSLMode:      *sslMode,
			RedisDBCount: *redisDBs,
			PasswordEnv:  *passwordEnv,
		}
		id, err := store.Save(ctx, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Profile saved: %s\n", id)
		os.Exit(0)
	}

	profiles, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing profiles: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles yet. Add one with 'warren --add-profile --name dev --family sql --host ...'.")
		os.Exit(0)
	}

	// Logging goes to a file under the state dir; the TUI owns the terminal.
	stateDir := config.StateDir()
	logger := setupLogging(stateDir)

	w, err := watcher.New(store.Path(),
		watcher.WithOnError(func(err error) { logger.Printf("profile watch: %v", err) }),
	)
	if err == nil {
		if startErr := w.Start(); startErr != nil {
			logger.Printf("profile watch disabled: %v", startErr)
			w = nil
		}
	} else {
		logger.Printf("profile watch disabled: %v", err)
		w = nil
	}
	if w != nil {
		defer w.Stop()
	}

	opts := []ui.ModelOption{
		ui.WithModelLogger(logger),
		ui.WithTreeState(ui.LoadTreeState(stateDir), stateDir),
	}
	if w != nil {
		opts = append(opts, ui.WithWatcher(w))
	}

	m := ui.NewModel(cfg, store, sqldb.New(profiles), rediskv.New(profiles), opts...)

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running warren: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// setupLogging points the default logger at warren.log in the state dir.
// Logging degrades to a no-op when the file cannot be opened.
func setupLogging(stateDir string) *log.Logger {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return log.New(discard{}, "", log.LstdFlags)
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "warren.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(discard{}, "", log.LstdFlags)
	}
	logger := log.New(f, "", log.LstdFlags)
	log.SetOutput(f)
	return logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set WARREN_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("WARREN_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	return err
}
