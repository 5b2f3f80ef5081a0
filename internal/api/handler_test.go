package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/patchbay/internal/config"
	"github.com/gyaneshwarpardhi/patchbay/internal/document"
	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/project"
	"github.com/gyaneshwarpardhi/patchbay/internal/session"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	dir     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mgr := session.NewManager(session.SettingsFrom(config.Default(), nodedef.Builtin()), nil)
	t.Cleanup(mgr.Shutdown)
	dir := t.TempDir()
	store, err := project.NewFileStore(dir)
	require.NoError(t, err)
	return &testServer{t: t, handler: New(mgr, store, nil), dir: dir}
}

func (s *testServer) call(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) newSession() string {
	rec := s.call(http.MethodPost, "/v1/sessions", nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[sessionView](s.t, rec).ID
}

func (s *testServer) createNode(sid, kind string, x float64) graph.Node {
	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/nodes", createNodeRequest{Kind: kind, X: x})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[graph.Node](s.t, rec)
}

func (s *testServer) document(sid string) document.Document {
	rec := s.call(http.MethodGet, "/v1/sessions/"+sid+"/document", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	return decodeBody[document.Document](s.t, rec)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.call(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t)
	s.newSession()
	rec := s.call(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":1`)
}

func TestKinds(t *testing.T) {
	s := newTestServer(t)
	rec := s.call(http.MethodGet, "/v1/kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Kinds []kindView `json:"kinds"`
	}](t, rec)
	var osc *kindView
	for i := range body.Kinds {
		if body.Kinds[i].Kind == "oscillator" {
			osc = &body.Kinds[i]
		}
	}
	require.NotNil(t, osc)
	assert.Equal(t, 0, osc.Inputs)
	assert.Equal(t, 1, osc.Outputs)
	assert.Equal(t, "choice", osc.Params[0].Type)
}

func TestConnectUndoRedo(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	osc := s.createNode(sid, "oscillator", 0)
	gain := s.createNode(sid, "gain", 200)

	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/connections", map[string]any{
		"source": osc.OutputPorts[0].ID, "target": gain.InputPorts[0].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[connectResult](t, rec).Connected)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/connections", map[string]any{
		"source": osc.OutputPorts[0].ID, "target": gain.InputPorts[0].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[connectResult](t, rec).Connected, "duplicate link is declined")
	assert.Len(t, s.document(sid).AudioGraph.Connections, 1)

	rec = s.call(http.MethodGet, "/v1/sessions/"+sid+"/history", nil)
	info := decodeBody[struct {
		Descriptions []string `json:"descriptions"`
	}](t, rec)
	assert.Equal(t, []string{"Save point", "Create oscillator", "Create gain", "Connect"}, info.Descriptions)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.document(sid).AudioGraph.Connections)

	s.call(http.MethodPost, "/v1/sessions/"+sid+"/redo", nil)
	assert.Len(t, s.document(sid).AudioGraph.Connections, 1)
}

func TestTransientUpdatesCollapseIntoOneStep(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	n := s.createNode(sid, "gain", 0)
	path := "/v1/sessions/" + sid + "/nodes/" + string(n.ID) + "/position"

	for _, x := range []float64{10, 20, 30} {
		rec := s.call(http.MethodPut, path+"?transient=1", map[string]float64{"x": x, "y": 0})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.call(http.MethodPut, path, map[string]float64{"x": 30, "y": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.call(http.MethodGet, "/v1/sessions/"+sid+"/history", nil)
	info := decodeBody[struct {
		Descriptions []string `json:"descriptions"`
	}](t, rec)
	assert.Equal(t, []string{"Save point", "Create gain", "Move node"}, info.Descriptions)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	n := s.createNode(sid, "oscillator", 0)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown session", http.MethodGet, "/v1/sessions/nope", nil, http.StatusNotFound},
		{"unknown node", http.MethodPut, "/v1/sessions/" + sid + "/nodes/Node-99/name", map[string]string{"name": "x"}, http.StatusNotFound},
		{"unknown kind", http.MethodPost, "/v1/sessions/" + sid + "/nodes", map[string]string{"kind": "theremin"}, http.StatusBadRequest},
		{"missing kind", http.MethodPost, "/v1/sessions/" + sid + "/nodes", map[string]string{}, http.StatusBadRequest},
		{"bad param value", http.MethodPut, "/v1/sessions/" + sid + "/nodes/" + string(n.ID) + "/params/type", map[string]any{"value": "noise"}, http.StatusBadRequest},
		{"unknown param", http.MethodPut, "/v1/sessions/" + sid + "/nodes/" + string(n.ID) + "/params/volume", map[string]any{"value": 1}, http.StatusNotFound},
		{"unknown field", http.MethodPut, "/v1/sessions/" + sid + "/nodes/" + string(n.ID) + "/width", map[string]any{"w": 1}, http.StatusBadRequest},
		{"no temporary connection", http.MethodPost, "/v1/sessions/" + sid + "/temporary-connection/apply", map[string]any{"target": n.OutputPorts[0].ID}, http.StatusConflict},
		{"unknown drop target", http.MethodPost, "/v1/sessions/" + sid + "/temporary-connection/apply", map[string]string{"target": "x"}, http.StatusNotFound},
		{"bad modifier", http.MethodPost, "/v1/sessions/" + sid + "/select", map[string]string{"id": string(n.ID), "modifier": "hyper"}, http.StatusBadRequest},
		{"unknown project", http.MethodPost, "/v1/sessions/" + sid + "/open", map[string]string{"name": "ghost"}, http.StatusNotFound},
		{"bad project name", http.MethodPost, "/v1/sessions/" + sid + "/save", map[string]string{"name": "../x"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.call(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestLoadInvalidDocument_Returns422AndKeepsGraph(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	s.createNode(sid, "gain", 0)

	bad := `{"projectName":"x","docVersion":"0","audioGraph":{"nodes":{},"connections":[{"id":"Connection-1","source":"a","target":"b"}]},"selection":[]}`
	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/"+sid+"/document", strings.NewReader(bad))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Len(t, s.document(sid).AudioGraph.Nodes, 1)

	req = httptest.NewRequest(http.MethodPut, "/v1/sessions/"+sid+"/document", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectAndRemove(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	a := s.createNode(sid, "oscillator", 0)
	b := s.createNode(sid, "gain", 200)

	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/select", selectRequest{ID: string(a.ID), Event: "down"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/select", selectRequest{ID: string(b.ID), Event: "down", Shift: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{string(a.ID), string(b.ID)}, decodeBody[selectionView](t, rec).Selection)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/select", selectRequest{ID: string(a.ID), Event: "down", Modifier: "toggle"})
	assert.Equal(t, []string{string(b.ID)}, decodeBody[selectionView](t, rec).Selection)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/remove", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := s.document(sid)
	assert.Contains(t, doc.AudioGraph.Nodes, a.ID)
	assert.NotContains(t, doc.AudioGraph.Nodes, b.ID)
	assert.Empty(t, doc.Selection)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/remove", map[string][]string{"ids": {string(a.ID), "Node-404"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.document(sid).AudioGraph.Nodes)
}

func TestTemporaryConnection(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	osc := s.createNode(sid, "oscillator", 0)
	filter := s.createNode(sid, "biquadFilter", 200)

	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/temporary-connection", map[string]any{"port": osc.OutputPorts[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/temporary-connection/apply", map[string]any{"target": filter.ParamPorts["frequency"].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[connectResult](t, rec).Connected)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/temporary-connection", map[string]any{"port": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.call(http.MethodDelete, "/v1/sessions/"+sid+"/temporary-connection", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSaveAndOpenProject(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	s.createNode(sid, "oscillator", 0)
	s.createNode(sid, "destination", 200)

	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/save", projectRequest{Name: "drone"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.call(http.MethodGet, "/v1/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"drone"`)

	other := s.newSession()
	rec = s.call(http.MethodPost, "/v1/sessions/"+other+"/open", projectRequest{Name: "drone"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := s.document(other)
	assert.Equal(t, "drone", doc.ProjectName)
	assert.Len(t, doc.AudioGraph.Nodes, 2)

	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "broken.json"), []byte(`{"docVersion":"7"}`), 0o644))
	rec = s.call(http.MethodPost, "/v1/sessions/"+other+"/open", projectRequest{Name: "broken"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, s.document(other).AudioGraph.Nodes, 2)

	rec = s.call(http.MethodDelete, "/v1/projects/drone", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.call(http.MethodDelete, "/v1/projects/drone", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCloseSession(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	rec := s.call(http.MethodDelete, "/v1/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.call(http.MethodGet, "/v1/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.call(http.MethodGet, "/v1/sessions", nil)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func (s *testServer) historyLen(sid string) int {
	s.t.Helper()
	rec := s.call(http.MethodGet, "/v1/sessions/"+sid+"/history", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	return len(decodeBody[editor.HistoryInfo](s.t, rec).Descriptions)
}

func TestNoOpRequestsRecordNoHistory(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	osc := s.createNode(sid, "oscillator", 0)
	gain := s.createNode(sid, "gain", 200)
	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/connections", map[string]any{
		"source": osc.OutputPorts[0].ID, "target": gain.InputPorts[0].ID,
	})
	require.True(t, decodeBody[connectResult](t, rec).Connected)
	before := s.historyLen(sid)

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/remove", map[string][]string{"ids": {"nope"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before, s.historyLen(sid), "unknown id")

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/remove", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before, s.historyLen(sid), "empty selection")

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/temporary-connection", map[string]any{"port": osc.OutputPorts[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/temporary-connection/apply", map[string]any{"target": gain.OutputPorts[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[connectResult](t, rec).Connected)
	assert.Equal(t, before, s.historyLen(sid), "declined drag-to-connect")

	rec = s.call(http.MethodPost, "/v1/sessions/"+sid+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.document(sid).AudioGraph.Connections, "first undo reverts the connection")
}

// brokenStore fails every save.
type brokenStore struct {
	project.Store
}

func (brokenStore) Save(context.Context, string, *document.Document) error {
	return errors.New("disk full")
}

func TestSaveProject_FailureKeepsSessionName(t *testing.T) {
	mgr := session.NewManager(session.SettingsFrom(config.Default(), nodedef.Builtin()), nil)
	t.Cleanup(mgr.Shutdown)
	s := &testServer{t: t, handler: New(mgr, brokenStore{}, nil)}
	sid := s.newSession()

	rec := s.call(http.MethodPost, "/v1/sessions/"+sid+"/save", projectRequest{Name: "renamed"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Untitled", s.document(sid).ProjectName)
}
