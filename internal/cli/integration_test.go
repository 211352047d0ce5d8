package cli_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"

	"github.com/mcncl/gridcall/internal/cli"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

// gridServer answers WebUI calls with canned bodies keyed by method and
// remembers the last request body.
type gridServer struct {
	*httptest.Server

	mu   sync.Mutex
	last models.Object
}

func newGridServer(t *testing.T, responses map[string]string) *gridServer {
	t.Helper()
	g := &gridServer{}

	r := chi.NewRouter()
	r.Post("/webui", func(w http.ResponseWriter, req *http.Request) {
		ir, err := parser.Parse(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, _ := models.AsObject(ir.Root)
		g.mu.Lock()
		g.last = body
		g.mu.Unlock()

		method, _ := body["Method"].(string)
		resp, ok := responses[method]
		if !ok {
			http.Error(w, "unknown method", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	})

	g.Server = httptest.NewServer(r)
	t.Cleanup(g.Close)
	return g
}

func (g *gridServer) lastBody() models.Object {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func configFor(t *testing.T, endpoint, extra string) string {
	t.Helper()
	return writeFile(t, ".gridcall.yml", "endpoint: \""+endpoint+"\"\n"+extra)
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli.Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

const statusOK = `{"Online": true, "LoginEnabled": true, "Uptime": 3600}`

func TestCLI_CallOnlineStatus(t *testing.T) {
	srv := newGridServer(t, map[string]string{"OnlineStatus": statusOK})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token: \"secret\"\n")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "call", "online-status")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, `"Online": true`)
	assert.Contains(t, stdout, `"Uptime": 3600`)

	body := srv.lastBody()
	assert.Equal(t, "OnlineStatus", body["Method"])
	assert.Equal(t, "secret", body["WebPassword"])
}

func TestCLI_CallInvalidResponse(t *testing.T) {
	srv := newGridServer(t, map[string]string{"OnlineStatus": `{"Online": true}`})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token: \"secret\"\n")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "call", "OnlineStatus")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "response did not match schema")
	assert.Contains(t, stderr, "at: .LoginEnabled")
	assert.NotContains(t, stderr, "secret")
}

func TestCLI_CallPublicMethod(t *testing.T) {
	srv := newGridServer(t, map[string]string{"OnlineStatus": statusOK})
	cfg := configFor(t, srv.URL+"/webui", `
auth:
  token: "secret"
  public:
    - pattern: "^OnlineStatus$"
`)

	_, stderr, code := runCLI(t, "", "--config", cfg, "call", "online-status")
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, srv.lastBody(), "WebPassword")

	// --auth always overrides the public list
	_, stderr, code = runCLI(t, "", "--config", cfg, "call", "online-status", "--auth", "always")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "secret", srv.lastBody()["WebPassword"])
}

func TestCLI_CallWithoutCredential(t *testing.T) {
	srv := newGridServer(t, map[string]string{"OnlineStatus": statusOK})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token_env: \"GRIDCALL_TEST_UNSET_TOKEN\"\n")

	_, stderr, code := runCLI(t, "", "--config", cfg, "call", "online-status")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Transport error")
	assert.Nil(t, srv.lastBody(), "nothing is sent without a credential")
}

func TestCLI_CallArgumentsAndSchemaFile(t *testing.T) {
	srv := newGridServer(t, map[string]string{"GetRegions": `{"Total": 1, "Regions": []}`})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token: \"secret\"\n")
	schemaPath := writeFile(t, "regions.yaml", "Total: {integer: []}\nRegions: {array: []}\n")

	stdout, stderr, code := runCLI(t, "", "--config", cfg,
		"call", "get-regions",
		"--arg", "Count=5",
		"--arg", "SortRegionName=true",
		"--arg", "Name=Welcome Island",
		"--schema", schemaPath,
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"Total": 1`)

	body := srv.lastBody()
	assert.Equal(t, int64(5), body["Count"])
	assert.Equal(t, true, body["SortRegionName"])
	assert.Equal(t, "Welcome Island", body["Name"])
}

func TestCLI_CallUnknownMethodAcceptsAnyObject(t *testing.T) {
	srv := newGridServer(t, map[string]string{"GetFriends": `{"Friends": [1, 2]}`})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token: \"secret\"\n")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "call", "GetFriends")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"Friends"`)
}

func TestCLI_CallHTTPError(t *testing.T) {
	srv := newGridServer(t, map[string]string{})
	cfg := configFor(t, srv.URL+"/webui", "auth:\n  token: \"secret\"\n")

	_, stderr, code := runCLI(t, "", "--config", cfg, "call", "OnlineStatus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Transport error")
	assert.Contains(t, stderr, "404")
}

func TestCLI_CallOverRPC(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan models.Value, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		conn := jsonrpc2.NewConn(jsonrpc2.NewStream(c))
		conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
			params, _ := parser.Decode(req.Params())
			received <- params
			if req.Method() != "OnlineStatus" {
				return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
			}
			return reply(ctx, map[string]interface{}{"Online": false, "LoginEnabled": false}, nil)
		})
		<-ctx.Done()
		_ = conn.Close()
	}()

	cfg := writeFile(t, ".gridcall.yml", "transport: rpc\nrpc_address: \""+ln.Addr().String()+"\"\nauth:\n  token: \"secret\"\n")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "call", "online-status")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"Online": false`)

	params, ok := models.AsObject(<-received)
	require.True(t, ok)
	assert.Equal(t, "secret", params["WebPassword"])
}

func TestCLI_CallOverRPCTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accepts and reads, never answers
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_, _ = io.Copy(io.Discard, c)
	}()

	cfg := writeFile(t, ".gridcall.yml", "transport: rpc\nrpc_address: \""+ln.Addr().String()+"\"\n")

	done := make(chan struct{})
	var stderr string
	var code int
	go func() {
		defer close(done)
		_, stderr, code = runCLI(t, "", "--config", cfg, "--timeout", "200ms", "call", "OnlineStatus", "--auth", "never")
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("call over rpc ignored --timeout")
	}
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Transport error")
	assert.Contains(t, stderr, "timed out after 200ms")
}

func TestCLI_Check(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")
	schemaPath := writeFile(t, "status.yaml", "Online: {boolean: []}\nLoginEnabled: {boolean: []}\n")

	t.Run("valid from stdin", func(t *testing.T) {
		stdout, stderr, code := runCLI(t, statusOK, "--config", cfg, "check", "--schema", schemaPath)
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "ok: object")
		assert.Contains(t, stdout, `"LoginEnabled": true`)
	})

	t.Run("valid from file quietly", func(t *testing.T) {
		input := writeFile(t, "status.json", statusOK)
		stdout, stderr, code := runCLI(t, "", "--config", cfg, "check", "--schema", schemaPath, "--input", input, "--quiet")
		require.Equal(t, 0, code, stderr)
		assert.Empty(t, stdout)
	})

	t.Run("invalid", func(t *testing.T) {
		_, stderr, code := runCLI(t, `{"Online": "yes", "LoginEnabled": true}`, "--config", cfg, "check", "--schema", schemaPath)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "at: .Online")
		assert.Contains(t, stderr, "got: string")
	})

	t.Run("node schema", func(t *testing.T) {
		nodePath := writeFile(t, "node.yaml", "{integer: [], boolean: [false]}\n")
		_, stderr, code := runCLI(t, "7", "--config", cfg, "check", "--schema", nodePath)
		require.Equal(t, 0, code, stderr)

		_, stderr, code = runCLI(t, "true", "--config", cfg, "check", "--schema", nodePath)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "boolean in [false]")
	})

	t.Run("malformed input", func(t *testing.T) {
		_, stderr, code := runCLI(t, `{"Online":`, "--config", cfg, "check", "--schema", schemaPath)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "JSON parsing error")
	})

	t.Run("missing schema flag", func(t *testing.T) {
		_, stderr, code := runCLI(t, statusOK, "--config", cfg, "check")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "--schema")
	})
}

func TestCLI_Infer(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")

	stdout, stderr, code := runCLI(t, `{"Regions": [{"locX": 1}, {"locX": 2, "owner": null}], "Total": 2}`, "--config", cfg, "infer")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Regions:")
	assert.Contains(t, stdout, "Total:")
	assert.Contains(t, stdout, "integer")
	assert.Contains(t, stdout, "optional")

	// The inferred document validates the sample it came from
	schemaPath := writeFile(t, "inferred.yaml", stdout)
	_, stderr, code = runCLI(t, `{"Regions": [{"locX": 1}, {"locX": 2, "owner": null}], "Total": 2}`, "--config", cfg, "check", "--schema", schemaPath, "--quiet")
	assert.Equal(t, 0, code, stderr)
}

func TestCLI_InferToFile(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")
	out := filepath.Join(t.TempDir(), "schema.yaml")

	stdout, stderr, code := runCLI(t, statusOK, "--config", cfg, "infer", "--output", out)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	doc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "LoginEnabled:")
}

func TestCLI_Version(t *testing.T) {
	stdout, _, code := runCLI(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "gridcall version "+cli.Version)
}

func TestCLI_UsageErrors(t *testing.T) {
	_, stderr, code := runCLI(t, "", "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "For help, run: gridcall --help")

	_, _, code = runCLI(t, "", "call", "OnlineStatus", "--auth", "sometimes")
	assert.Equal(t, 1, code)
}

func TestCLI_ConfigErrors(t *testing.T) {
	_, stderr, code := runCLI(t, "", "--config", "/non/existent/gridcall.yml", "call", "OnlineStatus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Configuration error")

	cfg := configFor(t, "ftp://grid.example.org", "")
	_, stderr, code = runCLI(t, "", "--config", cfg, "call", "OnlineStatus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "must be an http(s) URL")
}

func TestCLI_TypesForMethod(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "types", "online-status")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "package records")
	assert.Contains(t, stdout, "type OnlineStatusResponse struct {")
	assert.Contains(t, stdout, "LoginEnabled bool `json:\"LoginEnabled\"`")
	assert.Contains(t, stdout, "Online       bool `json:\"Online\"`")
}

func TestCLI_TypesFromSchemaFile(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")
	schemaPath := writeFile(t, "regions.yaml", `
Regions:
  array:
    - object:
        - uuid: {string: []}
          locX: {integer: []}
          owner: {string: [], null: []}
Total: {integer: []}
`)
	out := filepath.Join(t.TempDir(), "regions.go")

	stdout, stderr, code := runCLI(t, "", "--config", cfg, "types", "--schema", schemaPath, "--package", "grid", "--name", "RegionPage", "--output", out)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	src := string(data)
	assert.Contains(t, src, "package grid")
	assert.Contains(t, src, "type RegionPage struct {")
	assert.Contains(t, src, "Regions []Region")
	assert.Contains(t, src, "type Region struct {")
	assert.Contains(t, src, "Owner *string `json:\"owner,omitempty\"`")
}

func TestCLI_TypesErrors(t *testing.T) {
	cfg := configFor(t, "http://127.0.0.1:8007/webui", "")

	_, stderr, code := runCLI(t, "", "--config", cfg, "types")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "either a method or --schema is required")

	_, stderr, code = runCLI(t, "", "--config", cfg, "types", "NoSuchMethod")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no response schema known for NoSuchMethod")
}
