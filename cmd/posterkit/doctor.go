package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/hints"
	"github.com/alnah/go-posterkit/internal/markup"
)

// Report sections, in print order.
const (
	sectionChrome    = "Chrome/Chromium"
	sectionEnv       = "Environment"
	sectionSystem    = "System"
	sectionTemplates = "Templates"
)

// Finding levels.
const (
	levelOK    = "OK"
	levelWarn  = "WARN"
	levelError = "ERROR"
)

// doctorResult is the machine-readable report of `posterkit doctor`.
type doctorResult struct {
	Status    string         `json:"status"` // ready, warnings or errors
	Chrome    chromeInfo     `json:"chrome"`
	Env       envInfo        `json:"environment"`
	System    systemInfo     `json:"system"`
	Templates []templateInfo `json:"templates"`
	Warnings  []string       `json:"warnings,omitempty"`
	Errors    []string       `json:"errors,omitempty"`

	findings []finding
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable    bool   `json:"temp_writable"`
	HistoryPath     string `json:"history_path,omitempty"`
	HistoryWritable bool   `json:"history_writable,omitempty"`
}

// templateInfo is the parse check of one built-in template.
type templateInfo struct {
	Name     string `json:"name"`
	Canvas   string `json:"canvas"`
	Elements int    `json:"elements"`
	Valid    bool   `json:"valid"`
}

// finding is one line of the human report. Warnings and errors also feed
// the JSON lists.
type finding struct {
	section string
	level   string
	text    string
}

func (r *doctorResult) ok(section, format string, a ...any) {
	r.findings = append(r.findings, finding{section, levelOK, fmt.Sprintf(format, a...)})
}

func (r *doctorResult) warn(section, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	r.findings = append(r.findings, finding{section, levelWarn, msg})
	r.Warnings = append(r.Warnings, msg)
}

func (r *doctorResult) fail(section, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	r.findings = append(r.findings, finding{section, levelError, msg})
	r.Errors = append(r.Errors, msg)
}

// runDoctorCmd checks the rendering prerequisites. It exits 1 only when a
// check failed; warnings still exit 0.
func runDoctorCmd(args []string, env *Environment) int {
	asJSON := false
	for _, arg := range args {
		if arg == "--json" {
			asJSON = true
		}
	}

	result := runDoctor()
	if asJSON {
		_ = writeJSON(env.Stdout, result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor() *doctorResult {
	r := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	for _, check := range []func(*doctorResult){checkChrome, checkEnvironment, checkSystem, checkTemplates} {
		check(r)
	}

	switch {
	case len(r.Errors) > 0:
		r.Status = "errors"
	case len(r.Warnings) > 0:
		r.Status = "warnings"
	default:
		r.Status = "ready"
	}
	return r
}

// checkChrome locates the browser the renderer will launch, preferring
// ROD_BROWSER_BIN over the launcher's search.
func checkChrome(r *doctorResult) {
	bin := r.Env.BrowserBin
	if bin == "" {
		found := false
		if bin, found = launcher.LookPath(); !found {
			r.fail(sectionChrome, "Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(bin); err != nil {
		r.fail(sectionChrome, "No browser at %s", bin)
		return
	}

	r.Chrome.Found, r.Chrome.Path = true, bin
	r.ok(sectionChrome, "Found at %s", bin)

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- path from launcher or ROD_BROWSER_BIN
	if err != nil {
		r.warn(sectionChrome, "Browser version unavailable: %v", err)
	} else {
		r.Chrome.Version = strings.TrimSpace(string(out))
		r.ok(sectionChrome, "Version: %s", r.Chrome.Version)
	}

	r.Chrome.Sandbox = r.Env.NoSandbox != "1"
	if r.Chrome.Sandbox {
		r.ok(sectionChrome, "Sandbox: enabled")
	} else {
		r.ok(sectionChrome, "Sandbox: disabled (ROD_NO_SANDBOX=1)")
	}
}

// checkEnvironment flags containers and CI runners, where Chrome's sandbox
// usually cannot start.
func checkEnvironment(r *doctorResult) {
	r.ok(sectionEnv, "Platform: %s/%s", r.Env.OS, r.Env.Arch)

	r.Env.Container, r.Env.ContainerHint = isContainer()
	if r.Env.Container {
		r.ok(sectionEnv, "Container: detected (%s)", r.Env.ContainerHint)
	}
	r.Env.CI = hints.InCI() || os.Getenv("CIRCLECI") != ""
	if r.Env.CI {
		r.ok(sectionEnv, "CI: detected")
	}

	if (r.Env.Container || r.Env.CI) && r.Env.NoSandbox != "1" {
		r.warn(sectionEnv, "Sandboxed Chrome rarely starts in containers or CI; set ROD_NO_SANDBOX=1")
	}
}

// isContainer returns whether a container was detected and which signal
// gave it away. POSTERKIT_CONTAINER=1 forces detection.
func isContainer() (bool, string) {
	if os.Getenv("POSTERKIT_CONTAINER") == "1" {
		return true, "POSTERKIT_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" { // podman, systemd-nspawn
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory, where pages are staged, and the
// POSTERKIT_HISTORY directory when one is set.
func checkSystem(r *doctorResult) {
	tmp := os.TempDir()
	if r.System.TempWritable = writable(tmp); r.System.TempWritable {
		r.ok(sectionSystem, "Temp directory: writable")
	} else {
		r.fail(sectionSystem, "Temp directory not writable: %s", tmp)
	}

	path := os.Getenv("POSTERKIT_HISTORY")
	if path == "" {
		return
	}
	r.System.HistoryPath = path
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	// A missing directory is created by history.Open.
	r.System.HistoryWritable = os.IsNotExist(err) || writable(dir)
	if r.System.HistoryWritable {
		r.ok(sectionSystem, "History: %s", path)
	} else {
		r.warn(sectionSystem, "History directory not writable: %s. Runs will not be recorded", dir)
	}
}

func writable(dir string) bool {
	marker := filepath.Join(dir, ".posterkit-doctor")
	if err := os.WriteFile(marker, nil, 0o600); err != nil {
		return false
	}
	_ = os.Remove(marker)
	return true
}

// checkTemplates parses every built-in template. One that does not validate
// is a packaging bug and counts as an error.
func checkTemplates(r *doctorResult) {
	for _, name := range assets.TemplateNames() {
		src, err := assets.LoadTemplate(name)
		if err != nil {
			r.fail(sectionTemplates, "Template %s: %v", name, err)
			continue
		}
		posterType, err := posterkit.ParsePosterType(name)
		if err != nil {
			posterType = posterkit.PosterGeneral
		}

		parsed := posterkit.Parse(markup.ExtractMarkup(src), posterType)
		v := posterkit.Validate(parsed.Elements)
		info := templateInfo{
			Name:     name,
			Canvas:   fmt.Sprintf("%dx%d", parsed.Canvas.Width, parsed.Canvas.Height),
			Elements: len(parsed.Elements),
			Valid:    v.Valid,
		}
		r.Templates = append(r.Templates, info)

		if info.Valid {
			r.ok(sectionTemplates, "%s: %s canvas, %d elements", name, info.Canvas, info.Elements)
		} else {
			r.fail(sectionTemplates, "Template %s has %d invalid elements", name, len(v.Errors))
		}
	}
}

// printDoctorResult writes the findings grouped by section, then the
// overall status.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "posterkit doctor")

	for _, section := range []string{sectionChrome, sectionEnv, sectionSystem, sectionTemplates} {
		fmt.Fprintf(w, "\n%s\n", section)
		for _, f := range r.findings {
			if f.section == section {
				fmt.Fprintf(w, "  [%s] %s\n", f.level, f.text)
			}
		}
	}
	fmt.Fprintln(w)

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintf(w, "Status: Ready with %d warning(s)\n", len(r.Warnings))
	default:
		fmt.Fprintf(w, "Status: Not ready, %d error(s) above\n", len(r.Errors))
	}
}
