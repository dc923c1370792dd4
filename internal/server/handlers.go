package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/scenegraph/pkg/buildinfo"
	"github.com/matzehuels/scenegraph/pkg/editor"
	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/pipeline"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// =============================================================================
// Response Types
// =============================================================================

type layoutResponse struct {
	Positions map[string]story.Position `json:"positions"`
	Layout    layout.Layout             `json:"layout"`
	Warnings  []string                  `json:"warnings,omitempty"`
	Cached    bool                      `json:"cached"`
}

type checkResponse struct {
	OK       bool         `json:"ok"`
	HasCycle bool         `json:"hasCycle"`
	Report   check.Report `json:"report"`
	Warnings []string     `json:"warnings,omitempty"`
}

type sceneResponse struct {
	Scene    story.Scene     `json:"scene"`
	Scenario *story.Scenario `json:"scenario"`
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

// =============================================================================
// Stateless Endpoints
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sc, err := readScenario(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeLayout(w, r, sc)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	sc, err := readScenario(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report := s.runner.Check(r.Context(), sc)
	writeJSON(w, http.StatusOK, checkResponse{
		OK:       report.OK(),
		HasCycle: !report.OK(),
		Report:   report,
		Warnings: report.Warnings(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sc, err := readScenario(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := errors.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), sc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// =============================================================================
// Scenario Endpoints
// =============================================================================

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := readScenario(r)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.editor.CreateScenario(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/scenarios/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.load(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleScenarioLayout(w http.ResponseWriter, r *http.Request) {
	sc, err := s.load(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeLayout(w, r, sc)
}

func (s *Server) handleAddScene(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title        string `json:"title"`
		IsStartScene bool   `json:"isStartScene"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	scene := editor.NewScene(body.Title)
	scene.IsStartScene = body.IsStartScene

	sc, err := s.editor.UpdateScene(r.Context(), chi.URLParam(r, "id"), scene)
	if err != nil {
		s.writeEditError(w, err, sc)
		return
	}
	writeJSON(w, http.StatusCreated, sceneResponse{Scene: scene, Scenario: sc})
}

func (s *Server) handlePutScene(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	var scene story.Scene
	if err := decodeJSON(r, &scene); err != nil {
		writeError(w, err)
		return
	}
	if scene.ID == "" {
		scene.ID = sceneID
	}
	if scene.ID != sceneID {
		writeError(w, errors.New(errors.ErrCodeInvalidInput,
			"scene id %q does not match path %q", scene.ID, sceneID))
		return
	}

	sc, err := s.editor.UpdateScene(r.Context(), chi.URLParam(r, "id"), scene)
	if err != nil {
		s.writeEditError(w, err, sc)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.editor.DeleteScene(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sceneID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) load(r *http.Request) (*story.Scenario, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}
	return s.store.Load(r.Context(), id)
}

func (s *Server) writeLayout(w http.ResponseWriter, r *http.Request, sc *story.Scenario) {
	opts, err := s.options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatJSON}

	res, err := s.runner.Execute(r.Context(), sc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{
		Positions: res.Layout.Positions(),
		Layout:    res.Layout,
		Warnings:  res.Report.Warnings(),
		Cached:    res.CacheInfo.LayoutHit,
	})
}

func (s *Server) writeEditError(w http.ResponseWriter, err error, current *story.Scenario) {
	if current != nil {
		writeRejected(w, err, current)
		return
	}
	writeError(w, err)
}

// options builds pipeline options from the server defaults and the query
// parameters strict, reject_cycles, labels, refresh and scale.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{Layout: s.cfg.Layout, Logger: s.logger}
	q := r.URL.Query()

	flags := []struct {
		name string
		dst  *bool
	}{
		{"strict", &opts.Layout.StrictStart},
		{"reject_cycles", &opts.RejectCycles},
		{"labels", &opts.EdgeLabels},
		{"refresh", &opts.Refresh},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", f.name, v)
		}
		*f.dst = b
	}

	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || !(scale > 0) || math.IsInf(scale, 0) {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale: %q", v)
		}
		opts.Scale = scale
	}
	return opts, nil
}
