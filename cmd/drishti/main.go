package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/psarathy/drishti/internal/app"
	"github.com/psarathy/drishti/internal/config"
	"github.com/psarathy/drishti/internal/detector"
	"github.com/psarathy/drishti/internal/library"
	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/server"
	"github.com/psarathy/drishti/internal/store"
	"github.com/psarathy/drishti/internal/tray"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		dbPath     = flag.String("db", "", "Path to the SQLite database (overrides config)")
		withTray   = flag.Bool("tray", false, "Run with the system tray menu")
	)
	flag.Parse()

	fmt.Println("Drishti - Athlete Video Review")

	cfg := loadConfig(*configPath)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	// Initialize the store
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Wire up the review app and start its detection loop
	application := app.New(app.Config{
		Store:     st,
		ExportDir: cfg.Export.Dir,
		Overlay:   cfg.Overlay,
		Detector: detector.Config{
			ScriptPath: cfg.Detector.Script,
			PythonPath: cfg.Detector.Python,
		},
	})
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start detection loop: %v", err)
	}
	defer application.Stop()

	// Watch the library directory for new recordings
	if cfg.Library.Watch {
		watcher := library.New(cfg.Library.Dir, st)
		if err := watcher.Start(); err != nil {
			log.Printf("Library watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	// Find web directory
	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure the server
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       application,
	})

	if *withTray {
		runWithTray(application, srv, cfg.Server.Addr)
		return
	}

	fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
	if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads the named config file, or the default one from the
// data directory if it exists, or built-in defaults otherwise.
func loadConfig(path string) *config.Config {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config.Default()
		}
		path = filepath.Join(homeDir, ".drishti", "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return config.Default()
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// runWithTray serves HTTP in the background and blocks on the system
// tray loop until Quit is chosen.
func runWithTray(application *app.App, srv *server.Server, addr string) {
	t := tray.New(application.OverlayEnabled())
	t.OnToggle(func(enabled bool) {
		application.SetOverlayEnabled(enabled)
	})
	t.OnOpen(func() {
		openBrowser("http://localhost" + addr)
	})

	go func() {
		fmt.Printf("Starting server on %s\n", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Keep the tray readouts current while it runs
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			status := application.Status()
			t.SetSession(status.Title)
			t.SetJoint(jointLabel(status.Detail))
			t.SetEnabled(status.Overlay)
		}
	}()

	t.Run()
}

// jointLabel formats a selected joint for the tray menu.
func jointLabel(d *overlay.Detail) string {
	if d == nil {
		return ""
	}
	if d.Angle == nil {
		return d.Name
	}
	return fmt.Sprintf("%s %.0f°", d.Name, *d.Angle)
}

// openBrowser opens the review page in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		log.Printf("Open %s in a browser", url)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.drishti/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".drishti", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
