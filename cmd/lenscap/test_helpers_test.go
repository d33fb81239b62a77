package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lenscap/internal/api"
)

const testToken = "test-token"

// backendState is the mutable fixture behind the fake captioning backend.
type backendState struct {
	mu         sync.Mutex
	files      []api.File
	nextFileID int
	loggedOut  bool
}

func (b *backendState) addFile(name string) api.File {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextFileID++
	file := api.File{
		ID:         fmt.Sprintf("file-%d", b.nextFileID),
		FileName:   name,
		Caption:    "caption for " + name,
		Tags:       []string{"auto"},
		SizeBytes:  int64(len(name)),
		UploadedAt: time.Now().UTC(),
		Analyzed:   true,
	}
	b.files = append(b.files, file)
	return file
}

type cliTestEnv struct {
	backend    *backendState
	server     *httptest.Server
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	state := &backendState{}
	server := httptest.NewServer(newBackendHandler(t, state))
	t.Cleanup(server.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	configBody := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
download_dir = %q

[api]
base_url = %q

[logging]
level = "error"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "downloads"),
		server.URL,
	)
	if err := os.WriteFile(configPath, []byte(configBody), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	return &cliTestEnv{
		backend:    state,
		server:     server,
		configPath: configPath,
		baseDir:    base,
	}
}

func newBackendHandler(t *testing.T, state *backendState) http.Handler {
	t.Helper()

	writeEnv := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
	}
	writeErr := func(w http.ResponseWriter, status int, message string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
	}
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+testToken
	}
	testUser := api.User{ID: "user-1", Email: "photos@example.com", Username: "photos"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password == "wrong-password" {
			writeErr(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeEnv(w, http.StatusOK, map[string]any{
			"user":    api.User{ID: "user-1", Email: body.Email},
			"session": api.Session{AccessToken: testToken, ExpiresIn: 3600},
		})
	})
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		payload := map[string]any{"user": api.User{ID: "user-2", Email: body.Email}}
		if !strings.HasPrefix(body.Email, "pending") {
			payload["session"] = api.Session{AccessToken: testToken, ExpiresIn: 3600}
		}
		writeEnv(w, http.StatusOK, payload)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		writeEnv(w, http.StatusOK, map[string]any{"user": testUser})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		state.mu.Lock()
		state.loggedOut = true
		state.mu.Unlock()
		writeEnv(w, http.StatusOK, nil)
	})
	mux.HandleFunc("POST /files/bulk-upload", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeErr(w, http.StatusBadRequest, "bad multipart body")
			return
		}
		var results []api.UploadOutcome
		for _, header := range r.MultipartForm.File["files"] {
			file := state.addFile(header.Filename)
			results = append(results, api.UploadOutcome{
				FileName: header.Filename,
				FileID:   file.ID,
				Success:  true,
			})
		}
		writeEnv(w, http.StatusOK, api.BulkUploadResult{
			SuccessfulUploads: len(results),
			Results:           results,
		})
	})
	mux.HandleFunc("GET /files/recent-analyzed", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.AnalysisStatus{AllAnalyzed: true, ProcessingCount: 0})
	})
	mux.HandleFunc("GET /files", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		state.mu.Lock()
		files := append([]api.File(nil), state.files...)
		state.mu.Unlock()
		writeEnv(w, http.StatusOK, map[string]any{"files": files})
	})
	mux.HandleFunc("PATCH /files/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		var body struct {
			Caption string   `json:"caption"`
			Tags    []string `json:"tags"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := r.PathValue("id")
		state.mu.Lock()
		defer state.mu.Unlock()
		for i := range state.files {
			if state.files[i].ID == id {
				state.files[i].Caption = body.Caption
				state.files[i].Tags = body.Tags
				writeEnv(w, http.StatusOK, map[string]any{"file": state.files[i]})
				return
			}
		}
		writeErr(w, http.StatusNotFound, "file not found")
	})
	mux.HandleFunc("DELETE /files", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		doomed := make(map[string]struct{}, len(body.IDs))
		for _, id := range body.IDs {
			doomed[id] = struct{}{}
		}
		state.mu.Lock()
		kept := state.files[:0]
		for _, file := range state.files {
			if _, gone := doomed[file.ID]; !gone {
				kept = append(kept, file)
			}
		}
		state.files = kept
		state.mu.Unlock()
		writeEnv(w, http.StatusOK, nil)
	})
	mux.HandleFunc("GET /files/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeErr(w, http.StatusUnauthorized, "missing token")
			return
		}
		_, _ = w.Write([]byte("image-bytes-" + r.PathValue("id")))
	})

	return mux
}

func runCLI(t *testing.T, env *cliTestEnv, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func loginTestUser(t *testing.T, env *cliTestEnv) {
	t.Helper()
	if _, _, err := runCLI(t, env, []string{"login", "photos@example.com", "--password", "correct-horse"}, ""); err != nil {
		t.Fatalf("login: %v", err)
	}
}
