package main

// Notes:
// - runDoctor: checkSass depends on the host PATH, so we assert only on
//   the site and environment sections, which read the injected Environment.

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestCheckSite - Site configuration detection
// ---------------------------------------------------------------------------

func TestCheckSite(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		site        map[string]string
		wantConfig  bool
		wantSass    bool
		wantBinary  string
		wantErrors  int
		wantWarning bool
	}{
		{"no site", nil, false, false, "sass", 0, true},
		{"minimal site", minimalSite, true, false, "sass", 0, false},
		{
			name: "sass targets and custom binary",
			site: map[string]string{"bakery.toml": `
base_url = "https://example.com/"
title = "Example"
[sass]
binary = "/opt/sass"
[sass.targets]
"main.css" = "main.scss"
`},
			wantConfig: true, wantSass: true, wantBinary: "/opt/sass",
		},
		{"invalid config", map[string]string{"bakery.toml": `title = "no url"`}, false, false, "sass", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			_ = env.Fs.MkdirAll("site", 0o755)
			env.writeSite(t, "site", tt.site)

			r := &doctorResult{}
			checkSite(r, "site", env.Environment)

			if r.Site.Config != tt.wantConfig {
				t.Errorf("config = %v, want %v", r.Site.Config, tt.wantConfig)
			}
			if r.Site.Sass != tt.wantSass {
				t.Errorf("needs sass = %v, want %v", r.Site.Sass, tt.wantSass)
			}
			if r.Sass.Binary != tt.wantBinary {
				t.Errorf("binary = %q, want %q", r.Sass.Binary, tt.wantBinary)
			}
			if len(r.Errors) != tt.wantErrors {
				t.Errorf("errors = %v, want %d", r.Errors, tt.wantErrors)
			}
			if (len(r.Warnings) > 0) != tt.wantWarning {
				t.Errorf("warnings = %v, want any: %v", r.Warnings, tt.wantWarning)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsContainer - Container detection from the environment
// ---------------------------------------------------------------------------

func TestIsContainer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		vars     map[string]string
		wantHint string
	}{
		{"override", map[string]string{"BAKERY_CONTAINER": "1"}, "BAKERY_CONTAINER=1"},
		{"podman", map[string]string{"container": "podman"}, "container=podman"},
		{"kubernetes", map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}, "KUBERNETES_SERVICE_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, tt.vars)
			ok, hint := isContainer(env.Environment)
			if !ok {
				t.Fatal("container not detected")
			}
			// /.dockerenv on the test host takes precedence over env signals.
			if hint != tt.wantHint && hint != "/.dockerenv" {
				t.Errorf("hint = %q, want %q", hint, tt.wantHint)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Human and JSON output
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	r := &doctorResult{
		Status:   "errors",
		Sass:     sassInfo{Binary: "sass"},
		Site:     siteInfo{Dir: "site", Config: true, Sass: true},
		Errors:   []string{"Dart Sass not found (sass)"},
		Warnings: []string{"something minor"},
	}

	var buf bytes.Buffer
	printDoctorResult(&buf, r)
	out := buf.String()
	for _, want := range []string{"[OK] Configuration: site", "[ERROR] Not found", "[WARN] something minor", "Status: Not ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"needs_sass":true`) {
		t.Errorf("json = %s", data)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Exit codes
// ---------------------------------------------------------------------------

func TestRunDoctorCmd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.writeSite(t, "site", map[string]string{"bakery.toml": `title = "no url"`})

	if code := runDoctorCmd([]string{"site", "--json"}, env.Environment); code != ExitGeneral {
		t.Errorf("exit code = %d, want %d", code, ExitGeneral)
	}
	var r doctorResult
	if err := json.Unmarshal(env.stdout.Bytes(), &r); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, env.stdout)
	}
	if r.Status != "errors" {
		t.Errorf("status = %q, want errors", r.Status)
	}

	if code := runDoctorCmd([]string{"a", "b"}, env.Environment); code != ExitUsage {
		t.Errorf("two dirs: exit code = %d, want %d", code, ExitUsage)
	}
}
