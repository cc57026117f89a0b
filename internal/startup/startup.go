package startup

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
	"media-helper/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Path: %s", path)
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogIndexerInit logs the start of an indexing run
func LogIndexerInit(dir string, workers int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Directory: %s", dir)
	logging.Info("  Workers:   %d", workers)
}

// LogScanInit logs the scan pool and delivery settings
func LogScanInit(workers int, throttle time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCANNER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Max workers:     %d", workers)
	logging.Info("  Update throttle: %v", throttle)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// No method matcher on this route
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the number of routes and, at debug level, every
// route grouped by its first path segment.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Info("  Registered routes: %d", len(routes))

	if !logging.IsDebugEnabled() {
		return
	}

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		group := getRouteGroup(route.Path)
		groups[group] = append(groups[group], route)
	}

	for _, group := range slices.Sorted(maps.Keys(groups)) {
		logging.Debug("  [%s]", cmp.Or(group, "root"))
		for _, route := range groups[group] {
			logging.Debug("    %-6s %-28s %s", route.Method, route.Path, route.Name)
		}
	}
}

// getRouteGroup returns "api/<resource>" for API routes and the first path
// segment otherwise.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		resource, _, _ := strings.Cut(rest, "/")
		return "api/" + resource
	}
	return first
}

func printBanner() {
	banner := `
------------------------------------------------------------
                    _ _         _          _
  _ __  ___ __| (_)__ _   | |_  ___| |_ __  ___ _ _
 | '  \/ -_) _' | / _' |  | ' \/ -_) | '_ \/ -_) '_|
 |_|_|_\___\__,_|_\__,_|  |_||_\___|_| .__/\___|_|
                                     |_|
------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		logging.Info("  Memory limit:    %s", memory.FormatBytes(limit))
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}

	logging.Info("")
}

// ensureDirectory creates path if it is missing and fails if it exists but
// is not a directory.
func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", name, err)
		}
		logging.Info("  [OK] Created %s directory: %s", name, path)
		return nil
	case err != nil:
		return fmt.Errorf("stat %s directory: %w", name, err)
	case !info.IsDir():
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

// logMediaSummary logs how many top-level entries of dir are media files,
// by category. It only reads one directory level.
func logMediaSummary(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("  Cannot read media directory: %v", err)
		return
	}

	counts := make(map[mediatypes.Category]int)
	dirs := 0
	for _, e := range entries {
		if e.IsDir() {
			dirs++
			continue
		}
		counts[mediatypes.GetCategory(strings.ToLower(filepath.Ext(e.Name())))]++
	}
	logging.Debug("    Top level: %d directories, %d audio, %d video, %d image files",
		dirs, counts[mediatypes.CategoryAudio], counts[mediatypes.CategoryVideo], counts[mediatypes.CategoryImage])
}

// testWriteAccess creates and removes a temporary file in dir.
func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		logging.Warn("failed to close write test file %s: %v", name, err)
	}
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", name, err)
	}
	return nil
}
