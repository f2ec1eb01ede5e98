package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/bep/godartsass/v2"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-bakery"
	"github.com/alnah/go-bakery/internal/config"
	"github.com/alnah/go-bakery/internal/hints"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Sass     sassInfo   `json:"sass"`
	Site     siteInfo   `json:"site"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// sassInfo holds Dart Sass detection results.
type sassInfo struct {
	Binary  string `json:"binary"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// siteInfo holds site configuration results.
type siteInfo struct {
	Dir     string `json:"dir"`
	Config  bool   `json:"config"`
	Sass    bool   `json:"needs_sass"`
	Problem string `json:"problem,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// sassVersion reports the Dart Sass version of binary. Replaced in tests.
var sassVersion = func(binary string) (string, error) {
	v, err := godartsass.Version(binary)
	if err != nil {
		return "", err
	}
	return v.ImplementationName + " " + v.ImplementationVersion, nil
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			runHelp([]string{"doctor"}, env)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", usageError(err))
		return ExitUsage
	}
	dir, err := siteDir(fs.Args(), false)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(dir, env)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(dir string, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkSite(result, dir, env)
	checkSass(result)
	checkEnvironment(result, env)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkSite loads the site configuration in dir, if any.
func checkSite(result *doctorResult, dir string, env *Environment) {
	result.Site.Dir = dir
	result.Sass.Binary = config.DefaultSassBinary

	site, err := bakery.OpenSite(env.Fs, dir)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No site configuration in %s", dir))
		return
	case err != nil:
		result.Site.Problem = err.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("Site configuration: %v", err))
		return
	}

	result.Site.Config = true
	result.Site.Sass = len(site.Config.Sass.Targets) > 0
	result.Sass.Binary = site.Config.Sass.Binary
}

// checkSass detects the Dart Sass executable.
func checkSass(result *doctorResult) {
	path, err := exec.LookPath(result.Sass.Binary)
	if err != nil {
		msg := fmt.Sprintf("Dart Sass not found (%s)", result.Sass.Binary)
		if result.Site.Sass {
			result.Errors = append(result.Errors, msg+hints.ForSassBinary(result.Sass.Binary))
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
		return
	}

	result.Sass.Found = true
	result.Sass.Path = path

	version, err := sassVersion(path)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Dart Sass version: %v", err))
		return
	}
	result.Sass.Version = version
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	if env.Getenv("BAKERY_CONTAINER") == "1" {
		return true, "BAKERY_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := env.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "bakery-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "bakery doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Site")
	if r.Site.Config {
		fmt.Fprintf(w, "  [OK] Configuration: %s\n", r.Site.Dir)
	} else if r.Site.Problem != "" {
		fmt.Fprintln(w, "  [ERROR] Configuration invalid")
	} else {
		fmt.Fprintln(w, "  [WARN] No configuration found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Dart Sass")
	if r.Sass.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Sass.Path)
		if r.Sass.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Sass.Version)
		}
	} else if r.Site.Sass {
		fmt.Fprintln(w, "  [ERROR] Not found")
	} else {
		fmt.Fprintln(w, "  [WARN] Not found (not needed without sass targets)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
