package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jhendrix/echo/internal/app"
	"github.com/jhendrix/echo/internal/detector"
	"github.com/jhendrix/echo/internal/server"
	"github.com/jhendrix/echo/internal/store"
	"github.com/jhendrix/echo/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	dbPath := flag.String("db", "", "sqlite database path (default ~/.echo/echo.db)")
	targetProfile := flag.String("target", "", "target face profile (80cm or 122cm)")
	pollInterval := flag.Duration("poll", 2*time.Second, "auto-detect poll interval")
	debugDir := flag.String("debug-dir", "", "directory for detection debug images")
	withTray := flag.Bool("tray", false, "run with a system tray icon")
	flag.Parse()

	fmt.Println("Echo - Archery Arrow Detection")

	st, err := openStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	detectorCfg := detector.DefaultConfig()
	detectorCfg.DebugDir = *debugDir

	a, err := app.New(app.Config{
		Store:         st,
		CameraID:      *cameraID,
		TargetProfile: *targetProfile,
		PollInterval:  *pollInterval,
		Detector:      detectorCfg,
	})
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start detection service: %v", err)
	}
	defer a.Stop()

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		App:       a,
		Store:     st,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *withTray {
		runTray(a, *addr)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("Shutting down")
}

// runTray blocks on the system tray event loop until Quit is selected.
func runTray(a *app.App, addr string) {
	t := tray.New()

	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() {
		log.Printf("Dashboard available at http://localhost%s/", addr)
	})
	t.OnQuit(func() {
		fmt.Println("Shutting down")
	})

	a.OnDetection(func(det detector.Detection) {
		if n := len(det.Accepted); n > 0 {
			last := det.Accepted[n-1]
			t.SetLastArrow(last.ID, last.Score)
		}
	})

	t.Run()
}

// openStore opens the sqlite store, defaulting to ~/.echo/echo.db.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(homeDir, ".echo", "echo.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return store.New(path)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.echo/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
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

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".echo", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
