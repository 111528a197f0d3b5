package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/restcli/packages/core/config"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	verboseFlag = 0
	quietFlag = false
	noColorFlag = false
	timeoutFlag = ""
	insecureFlag = false
	proxyFlag = ""
	noRedirectFlag = false
	configFlag = ""
	dryRunFlag = false
	outputFlag = "console"
	outputFileFlag = ""
	selectFlag = ""
	schemaFlag = ""
	rateFlag = 0
	historyFlag = ""
	summaryFlag = false
	watchFlag = false
	historyLimitFlag = 20
	historyRunFlag = ""
	forceInit = false
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.http")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"method":%q,"path":%q,"body":%q}`, r.Method, r.URL.Path, string(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunCommand_Console(t *testing.T) {
	server := newServer(t)
	doc := writeDoc(t, fmt.Sprintf(`# users
%[1]s
GET /users

%[1]s
Content-Type: application/json
{"name": "Ada"}
POST /users
`, server.URL))

	stdout, _, err := execute(t, doc, "--no-color", "--select", "method")
	require.NoError(t, err)

	assert.Contains(t, stdout, "GET "+server.URL+"/users\n")
	assert.Contains(t, stdout, "POST "+server.URL+"/users\n")
	assert.Contains(t, stdout, "200 OK\nGET\n")
	assert.Contains(t, stdout, "200 OK\nPOST\n")
}

func TestRunCommand_MalformedBlockDoesNotFail(t *testing.T) {
	server := newServer(t)
	doc := writeDoc(t, fmt.Sprintf("%[1]s\nnot a header\nGET /a\n%[1]s\nGET /b\n", server.URL))

	stdout, _, err := execute(t, doc, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Error (line 2): invalid header syntax")
	assert.Contains(t, stdout, "GET "+server.URL+"/b\n")
}

func TestRunCommand_JSON(t *testing.T) {
	server := newServer(t)
	doc := writeDoc(t, fmt.Sprintf("%[1]s\nGET /one\n%[1]s\nDELETE /two\n", server.URL))

	stdout, _, err := execute(t, doc, "--output", "json")
	require.NoError(t, err)

	var out struct {
		Summary struct {
			Total int `json:"total"`
			Sent  int `json:"sent"`
		} `json:"summary"`
		Requests []struct {
			Method string `json:"method"`
			Line   int    `json:"line"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 2, out.Summary.Sent)
	require.Len(t, out.Requests, 2)
	assert.Equal(t, "GET", out.Requests[0].Method)
	assert.Equal(t, 2, out.Requests[0].Line)
	assert.Equal(t, "DELETE", out.Requests[1].Method)
	assert.Equal(t, 4, out.Requests[1].Line)
}

func TestRunCommand_DryRunSendsNothing(t *testing.T) {
	hits := 0
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits++
	}))
	defer server.Close()

	doc := writeDoc(t, server.URL+"\nGET /\n")
	stdout, _, err := execute(t, doc, "--dry-run", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "GET "+server.URL+"/\n")
	assert.Equal(t, 0, hits)
}

func TestRunCommand_History(t *testing.T) {
	server := newServer(t)
	doc := writeDoc(t, server.URL+"\nGET /tracked\n")
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, doc, "--no-color", "--history", db)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "GET "+server.URL+"/tracked")
	assert.Contains(t, stdout, "200")
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, filepath.Join(t.TempDir(), "missing.http"))
	require.Error(t, err)
	assert.Equal(t, ExitReadError, exitCode(err))
}

func TestRunCommand_InvalidTimeout(t *testing.T) {
	doc := writeDoc(t, "http://localhost\nGET /\n")
	_, _, err := execute(t, doc, "--timeout", "soon")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRunCommand_UnknownOutput(t *testing.T) {
	doc := writeDoc(t, "http://localhost\nGET /\n")
	_, _, err := execute(t, doc, "--output", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRunCommand_BadConfig(t *testing.T) {
	doc := writeDoc(t, "http://localhost\nGET /\n")
	cfg := filepath.Join(t.TempDir(), "rest.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("timeout: forever\n"), 0644))

	_, _, err := execute(t, doc, "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestValidateCommand(t *testing.T) {
	valid := writeDoc(t, "http://localhost\nGET /\n")
	stdout, _, err := execute(t, "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Valid: "+valid+" (1 requests)")

	invalid := writeDoc(t, "http://localhost\nTRACE /\nhttp://localhost\nGET\n")
	_, stderr, err := execute(t, "validate", invalid)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
	assert.Contains(t, stderr, "expected location")
}

func TestListCommand(t *testing.T) {
	doc := writeDoc(t, "http://localhost\nAccept: text/plain\nGET /a\n\nhttp://localhost\nbad\nPUT /b\n")
	stdout, _, err := execute(t, "list", doc)
	require.NoError(t, err)

	assert.Contains(t, stdout, "line 3: GET http://localhost/a\n    Accept: text/plain\n")
	assert.Contains(t, stdout, "line 7: ")
	assert.Contains(t, stdout, "invalid header syntax")
}

func TestVersionCommand(t *testing.T) {
	version = "1.2.3"
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rest version 1.2.3\n")
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	resetFlags()
	cfgPath := filepath.Join(t.TempDir(), "rest.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("timeout: 5s\nproxy: http://file-proxy\nheaders:\n  Accept: application/json\n"), 0644))

	configFlag = cfgPath
	timeoutFlag = "2s"
	insecureFlag = true
	noRedirectFlag = true

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)

	rc := runnerConfig(cfg)
	assert.Equal(t, 2*time.Second, rc.Timeout)
	assert.Equal(t, "http://file-proxy", rc.Proxy)
	assert.True(t, rc.InsecureSkipVerify)
	assert.False(t, rc.FollowRedirect)
	require.Len(t, rc.DefaultHeaders, 1)
	assert.Equal(t, "Accept", rc.DefaultHeaders[0].Name)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitReadError, exitCode(withExitCode(ExitReadError, errors.New("missing"))))
	assert.Equal(t, ExitConfigError, exitCode(fmt.Errorf("wrapped: %w", withExitCode(ExitConfigError, errors.New("bad")))))
}

func TestRunCommand_InvalidProxy(t *testing.T) {
	doc := writeDoc(t, "http://localhost\nGET /\n")
	for _, proxy := range []string{"://bad", "localhost:3128", "proxy.internal"} {
		_, _, err := execute(t, doc, "--proxy", proxy)
		require.Error(t, err, proxy)
		assert.Equal(t, ExitUsageError, exitCode(err), proxy)
		assert.ErrorContains(t, err, "proxy")
	}
}

func TestRunCommand_QuietKeepsColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	server := newServer(t)
	doc := writeDoc(t, server.URL+"\nGET /\n")

	stdout, _, err := execute(t, doc, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\x1b[")
	assert.False(t, color.NoColor)
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "api")

	stdout, _, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created: "+filepath.Join(dir, ".rest.yaml"))
	assert.Contains(t, stdout, "Created: "+filepath.Join(dir, "example.http"))

	cfg, err := config.LoadConfig(filepath.Join(dir, ".rest.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
	require.Len(t, cfg.Headers, 1)
	assert.Equal(t, "User-Agent", cfg.Headers[0].Name)

	stdout, _, err = execute(t, "validate", filepath.Join(dir, "example.http"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "(2 requests)")

	_, _, err = execute(t, "init", dir)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
	assert.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bash completion")
	assert.Contains(t, stdout, "rest")
}
