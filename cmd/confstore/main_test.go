package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/confstore/internal/api"
	"github.com/eugenenazirov/confstore/internal/application"
)

const testSchema = `
settings:
  - name: local-port
    help: Local port to bind to
    default: "53"
  - name: allow-from
    help: Networks allowed to query
    default: 127.0.0.0/8
  - name: daemon
    help: Operate as a daemon
    default: "no"
    kind: switch
  - name: snmp-master-socket
    help: Old name of the SNMP socket setting
  - name: version
    help: Print the version and exit
    kind: command
`

type fixture struct {
	dir    string
	schema string
	config string
}

func newFixture(t *testing.T, config string, includes map[string]string) fixture {
	t.Helper()

	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		schema: filepath.Join(dir, "schema.yaml"),
		config: filepath.Join(dir, "confstore.conf"),
	}
	writeTestFile(t, f.schema, testSchema)
	if len(includes) > 0 {
		includeDir := filepath.Join(dir, "conf.d")
		if err := os.Mkdir(includeDir, 0o755); err != nil {
			t.Fatalf("failed to create include dir: %v", err)
		}
		for name, content := range includes {
			writeTestFile(t, filepath.Join(includeDir, name), content)
		}
		config += "include-dir=" + includeDir + "\n"
	}
	writeTestFile(t, f.config, config)
	return f
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		t.Fatalf("failed to parse arguments %v: %v", args, err)
	}

	var stdout bytes.Buffer
	err = c.run(command, &stdout, zaptest.NewLogger(t))
	return stdout.String(), err
}

func TestTemplateCommand(t *testing.T) {
	f := newFixture(t, "", nil)

	out, err := runCLI(t, "--schema", f.schema, "template")
	if err != nil {
		t.Fatalf("template returned error: %v", err)
	}
	if !strings.HasPrefix(out, "# Autogenerated configuration file template\n\n") {
		t.Fatalf("unexpected template preamble: %q", out)
	}
	for _, fragment := range []string{"# local-port=53\n", "# daemon=no\n", "# allow-from=127.0.0.0/8\n"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected template to contain %q, got:\n%s", fragment, out)
		}
	}
	if strings.Contains(out, "version") {
		t.Fatalf("commands must not appear in the template")
	}
}

func TestRunningCommandAppliesFileIncludesAndOverrides(t *testing.T) {
	f := newFixture(t, "local-port=5300 # primary\n", map[string]string{
		"10-allow.conf":  "allow-from+=10.0.0.0/8\n",
		"20-daemon.conf": "daemon\n",
		".hidden.conf":   "local-port=1\n",
		"notes.txt":      "local-port=2\n",
	})

	out, err := runCLI(t, "--schema", f.schema, "--config", f.config, "-a", "allow-from=192.168.0.0/16", "running")
	if err != nil {
		t.Fatalf("running returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	got := strings.Join(lines[2:], "\n")
	want := strings.Join([]string{
		"allow-from=127.0.0.0/8, 10.0.0.0/8, 192.168.0.0/16",
		"daemon=",
		"include-dir=" + filepath.Join(f.dir, "conf.d"),
		"local-port=5300",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected running config:\n%s\nwant:\n%s", got, want)
	}
}

func TestRunningCommandWritesOutputAtomically(t *testing.T) {
	f := newFixture(t, "", nil)
	output := filepath.Join(f.dir, "out.conf")

	out, err := runCLI(t, "--schema", f.schema, "-s", "local-port=8053", "running", "--full", "--output", output)
	if err != nil {
		t.Fatalf("running returned error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "#\nlocal-port=8053\n") {
		t.Fatalf("expected live local-port line, got:\n%s", data)
	}
	if !strings.Contains(string(data), "# daemon=no\n") {
		t.Fatalf("expected commented daemon default, got:\n%s", data)
	}
}

func TestGetCommand(t *testing.T) {
	f := newFixture(t, "local-port=5300\n", nil)

	out, err := runCLI(t, "--schema", f.schema, "--config", f.config, "get", "local-port")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if out != "5300\n" {
		t.Fatalf("expected 5300, got %q", out)
	}

	_, err = runCLI(t, "--schema", f.schema, "get", "no-such-setting")
	if err == nil || err.Error() != "Undefined but needed argument: 'no-such-setting'" {
		t.Fatalf("expected undefined argument error, got %v", err)
	}
}

func TestDescribeCommand(t *testing.T) {
	f := newFixture(t, "", nil)

	out, err := runCLI(t, "--schema", f.schema, "describe", "dae")
	if err != nil {
		t.Fatalf("describe returned error: %v", err)
	}
	if want := "  --daemon | --daemon=yes | --daemon=no\n\tOperate as a daemon\n"; out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestCheckCommand(t *testing.T) {
	f := newFixture(t, "snmp-master-socket=/var/run/agentx\nignore-unknown-settings=legacy-option\nlegacy-option=1\n", nil)

	out, err := runCLI(t, "--schema", f.schema, "--config", f.config, "check")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	want := "deprecated: 'snmp-master-socket', use 'snmp-daemon-socket' instead\n" +
		"ignored unknown setting: 'legacy-option'\n" +
		"configuration OK\n"
	if out != want {
		t.Fatalf("unexpected check output:\n%s", out)
	}
}

func TestCheckCommandReportsErrors(t *testing.T) {
	f := newFixture(t, "no-such-setting=1\n", nil)

	_, err := runCLI(t, "--schema", f.schema, "--config", f.config, "check")
	if err == nil || !strings.Contains(err.Error(), "Trying to set unknown setting 'no-such-setting'") {
		t.Fatalf("expected unknown setting error, got %v", err)
	}

	if _, err := runCLI(t, "--schema", f.schema, "--config", f.config, "--lax", "check"); err != nil {
		t.Fatalf("expected lax mode to tolerate unknown settings, got %v", err)
	}
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	f := newFixture(t, "", nil)

	_, err := runCLI(t, "--schema", f.schema, "--config", filepath.Join(f.dir, "absent.conf"), "running")
	if err == nil || !strings.Contains(err.Error(), "unable to open configuration file") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestOverrideTokens(t *testing.T) {
	tokens, err := overrideTokens([]string{"a=1", "b="}, []string{"b=x=y"})
	if err != nil {
		t.Fatalf("overrideTokens returned error: %v", err)
	}
	want := []string{"--a=1", "--b=", "--b+=x=y"}
	if strings.Join(tokens, " ") != strings.Join(want, " ") {
		t.Fatalf("expected %v, got %v", want, tokens)
	}

	for _, bad := range []string{"novalue", "=1"} {
		if _, err := overrideTokens([]string{bad}, nil); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestServedSnapshotMatchesLoadedConfiguration(t *testing.T) {
	f := newFixture(t, "local-port=5300\n", nil)

	c := newCLI()
	if _, err := c.app.Parse([]string{"--schema", f.schema, "--config", f.config, "serve"}); err != nil {
		t.Fatalf("failed to parse arguments: %v", err)
	}
	logger := zaptest.NewLogger(t)
	store, err := c.loadStore(logger)
	if err != nil {
		t.Fatalf("loadStore returned error: %v", err)
	}
	store.Seal()
	snap, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	router := api.NewRouter(api.NewHandler(snap), logger, api.WithLogging(false))
	handler := application.BuildRootHandler(router)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings/local-port", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var setting struct {
		Value   string `json:"value"`
		Default string `json:"default"`
		Changed bool   `json:"changed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&setting); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if setting.Value != "5300" || setting.Default != "53" || !setting.Changed {
		t.Fatalf("unexpected setting: %+v", setting)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/api/config" {
		t.Fatalf("expected redirect to /api/config, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	if _, err := store.File(f.config, false); err == nil {
		t.Fatalf("expected sealed store to reject further loading")
	}
}
