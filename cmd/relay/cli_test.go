package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/relay/internal/botapi"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeQR(t *testing.T, data []byte) string {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	result, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return result.GetText()
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "relay dev\n", stdout)
}

func TestQRWritesPNGWhenNotATerminal(t *testing.T) {
	stdout, _, err := executeCLI(t, "qr", "2@abc,def==,1")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix([]byte(stdout), pngMagic))
	assert.Equal(t, "2@abc,def==,1", decodeQR(t, []byte(stdout)))
}

func TestQROutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes", "pair.png")
	stdout, _, err := executeCLI(t, "qr", "token123", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "token123", decodeQR(t, data))
}

func TestQRRejectsBlankPayload(t *testing.T) {
	_, _, err := executeCLI(t, "qr", "   ")
	require.Error(t, err)
}

func writeBotLog(t *testing.T, dir, botID string, entries ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := strings.Join(entries, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, botID+".jsonl"), []byte(body), 0o644))
}

func TestLogsFromFileSource(t *testing.T) {
	dir := t.TempDir()
	writeBotLog(t, dir, "alpha",
		`{"id":"2","timestamp":"2026-03-01T12:00:02Z","level":"warn","message":"slow","source":"net"}`,
		`{"id":"1","timestamp":"2026-03-01T12:00:01Z","level":"info","message":"boot"}`,
		`not json`,
		`{"id":"1","timestamp":"2026-03-01T12:00:01Z","level":"info","message":"boot"}`,
	)

	stdout, _, err := executeCLI(t, "logs", "alpha", "--source", "file", "--log-dir", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "INFO system: boot"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "WARN net: slow"), lines[1])
}

func TestLogsLimitAndOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeBotLog(t, dir, "alpha",
		`{"id":"1","timestamp":"2026-03-01T12:00:01Z","level":"info","message":"one"}`,
		`{"id":"2","timestamp":"2026-03-01T12:00:02Z","level":"info","message":"two"}`,
		`{"id":"3","timestamp":"2026-03-01T12:00:03Z","level":"info","message":"three"}`,
	)
	out := filepath.Join(t.TempDir(), "alpha.txt")

	t.Setenv("RELAY_SOURCE", "file")
	stdout, _, err := executeCLI(t, "logs", "alpha", "--log-dir", dir, "-n", "2", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved 2 entries")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "one")
	assert.Contains(t, string(data), "three")
}

func TestLogsRejectsBadSource(t *testing.T) {
	_, _, err := executeCLI(t, "logs", "alpha", "--source", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestStartPrintsPairingCode(t *testing.T) {
	var got botapi.BotSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bots/alpha/start" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":true,"message":"Bot started","data":{"pairingCode":"2@pair,me==,1"}}`))
	}))
	defer srv.Close()

	specPath := filepath.Join(t.TempDir(), "alpha.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte("platform: whatsapp\nphone: \"+15550100\"\noptions:\n  region: eu\n"), 0o644))

	stdout, _, err := executeCLI(t, "start", "alpha", "--api-bind", srv.URL, "--spec", specPath)
	require.NoError(t, err)

	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, "whatsapp", got.Platform)
	assert.Equal(t, "eu", got.Options["region"])

	require.True(t, strings.HasPrefix(stdout, "alpha: Bot started\n"))
	idx := bytes.Index([]byte(stdout), pngMagic)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "2@pair,me==,1", decodeQR(t, []byte(stdout)[idx:]))
}

func TestStartFailureReturnsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"already running"}`))
	}))
	defer srv.Close()

	_, _, err := executeCLI(t, "start", "alpha", "--api-bind", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bots/alpha/stop", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"message":""}`))
	}))
	defer srv.Close()

	stdout, _, err := executeCLI(t, "stop", "alpha", "--api-bind", srv.URL, "--api-token", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alpha: stopped\n", stdout)
}

func TestLoadBotSpec(t *testing.T) {
	spec, err := loadBotSpec("", "alpha")
	require.NoError(t, err)
	assert.Equal(t, botapi.BotSpec{Name: "alpha"}, spec)

	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom\n"), 0o644))
	_, err = loadBotSpec(path, "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform is required")

	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed\n"), 0o644))
	_, err = loadBotSpec(path, "alpha")
	require.Error(t, err)
}
