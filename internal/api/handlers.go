package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ideaboard/internal/analysis"
	"ideaboard/internal/auth"
	"ideaboard/internal/config"
	"ideaboard/internal/models"
	"ideaboard/internal/service"
	"ideaboard/internal/state"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "ideaboard_session"

	maxJSONBody = 1 << 20
)

type Handler struct {
	Config   *config.Config
	Catalogs *service.CatalogCache
	Renderer *service.DiffRenderer
	Deployer *service.DeploymentService
	Datasets *analysis.DatasetService
	Sessions *state.SessionStore
	Auth     *auth.Authenticator
	Logger   *zap.Logger
}

func NewHandler(cfg *config.Config, catalogs *service.CatalogCache, authn *auth.Authenticator, sessions *state.SessionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Config:   cfg,
		Catalogs: catalogs,
		Renderer: service.NewDiffRenderer(),
		Deployer: service.NewDeploymentService(cfg.Deploy.EndpointBase, logger),
		Datasets: analysis.NewDatasetService(),
		Sessions: sessions,
		Auth:     authn,
		Logger:   logger.Named("api"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Post("/api/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Post("/api/logout", h.Logout)
		r.Get("/api/session", h.GetSession)

		// Ranking
		r.Get("/api/ideas", h.ListIdeas)
		r.Post("/api/ideas/refresh", h.RefreshIdeas)
		r.Get("/api/ideas/{idea}", h.GetIdea)
		r.Get("/api/ideas/{idea}/diff", h.GetDiff)
		r.Get("/api/ideas/{idea}/candidate", h.DownloadCandidate)

		// Setup and processing
		r.Post("/api/datasets", h.UploadDataset)
		r.Get("/api/processing", h.GetProcessing)
		r.Post("/api/processing", h.StartProcessing)
		r.Post("/api/processing/advance", h.AdvanceProcessing)
		r.Post("/api/processing/select", h.SelectIdea)

		// Deployment
		r.Get("/api/deployments/defaults/{idea}", h.DeploymentDefaults)
		r.Post("/api/deployments", h.Deploy)
	})
}

// ============================================================================
// Sessions
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username, err := h.Auth.Authenticate(req.Username, req.Password)
	if err != nil {
		h.Logger.Info("Rejected login", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	profile, ok := h.Config.Profile(username)
	if !ok {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	sess := h.Sessions.Create(username)
	token, expires, err := h.Auth.Issue(username, sess.ID)
	if err != nil {
		h.Sessions.Delete(sess.ID)
		h.Logger.Error("Failed to issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.Logger.Info("User logged in", zap.String("username", username), zap.String("session", sess.ID))

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		PageTitle: profile.PageTitle,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	h.Sessions.Delete(rs.Session.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)

	available := 0
	if catalog, err := h.Catalogs.Get(r.Context(), rs.Profile.CatalogConfig()); err == nil {
		available = len(catalog.Results)
	} else {
		h.Logger.Warn("Catalog unavailable for session summary", zap.Error(err))
	}

	count := rs.Session.IdeaCount
	if count == 0 {
		count = service.DefaultIdeaCount(available)
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		Username:       rs.Session.Username,
		PageTitle:      rs.Profile.PageTitle,
		Page:           rs.Session.Page,
		SelectedIdea:   rs.Session.SelectedIdea,
		DeploymentIdea: rs.Session.DeploymentIdea,
		Goal:           rs.Session.Goal,
		Dataset:        rs.Session.Dataset,
		IdeaCount:      count,
		MaxIdeaCount:   service.MaxIdeas(available),
	})
}

// ============================================================================
// Ranking
// ============================================================================

func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	catalog, err := h.Catalogs.Get(r.Context(), rs.Profile.CatalogConfig())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.RankingResponse(catalog, rs.Profile.PageTitle, rs.Profile.Threshold()))
}

func (h *Handler) RefreshIdeas(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	catalog, err := h.Catalogs.Refresh(r.Context(), rs.Profile.CatalogConfig())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.RankingResponse(catalog, rs.Profile.PageTitle, rs.Profile.Threshold()))
}

func (h *Handler) GetIdea(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	catalog, result, ok := h.findIdea(w, r, rs.Profile)
	if !ok {
		return
	}

	index := service.LoadIdeaIndex(rs.Profile.IdeasFile, h.Logger)
	ctx := service.NewClassificationContext(catalog.Results, rs.Profile.Threshold())
	writeJSON(w, http.StatusOK, models.IdeaDetail{
		Identifier:     result.Identifier,
		DisplayName:    service.DisplayName(result.Identifier),
		Title:          index.Title(result.Identifier),
		Description:    index.Description(result.Identifier),
		MetricName:     rs.Profile.MetricName(),
		MetricValue:    result.MetricValue,
		Classification: service.ClassifyValue(result.MetricValue, ctx),
		HasCandidate:   service.ArtifactExists(candidatePath(rs.Profile, result)),
	})
}

// DiffResponse is returned by /api/ideas/{idea}/diff
type DiffResponse struct {
	Idea          string                `json:"idea"`
	BaselinePath  string                `json:"baseline_path"`
	CandidatePath string                `json:"candidate_path"`
	BaselineText  string                `json:"baseline_text"`
	CandidateText string                `json:"candidate_text"`
	Rendered      *service.RenderedDiff `json:"rendered,omitempty"`
}

func (h *Handler) GetDiff(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)

	opts := service.DefaultDiffOptions()
	render := r.URL.Query().Get("render")
	switch render {
	case "", service.ViewUnified, service.ViewSplit:
		opts.View = render
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("render must be %q or %q", service.ViewUnified, service.ViewSplit))
		return
	}
	if raw := r.URL.Query().Get("context"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "context must be a non-negative integer")
			return
		}
		opts.Context = n
	}

	_, result, ok := h.findIdea(w, r, rs.Profile)
	if !ok {
		return
	}

	baseline := rs.Profile.BaselineFile
	candidate := candidatePath(rs.Profile, result)
	in, err := service.PrepareDiff(baseline, candidate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := DiffResponse{
		Idea:          result.Identifier,
		BaselinePath:  baseline,
		CandidatePath: candidate,
		BaselineText:  in.BaselineText,
		CandidateText: in.CandidateText,
	}
	if render != "" {
		opts.BaselineName = filepath.Base(baseline)
		opts.CandidateName = filepath.Base(candidate)
		rendered := h.Renderer.Render(in, opts)
		resp.Rendered = &rendered
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) DownloadCandidate(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	_, result, ok := h.findIdea(w, r, rs.Profile)
	if !ok {
		return
	}

	data, err := service.ReadCandidate(candidatePath(rs.Profile, result))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	name := result.Identifier + "_" + rs.Profile.CandidateFileName()
	w.Header().Set("Content-Type", "text/x-python")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// findIdea resolves the {idea} URL parameter against the user's catalog and
// writes the error response itself when it cannot.
func (h *Handler) findIdea(w http.ResponseWriter, r *http.Request, profile config.UserProfile) (*service.Catalog, models.IdeaResult, bool) {
	catalog, err := h.Catalogs.Get(r.Context(), profile.CatalogConfig())
	if err != nil {
		h.writeServiceError(w, err)
		return nil, models.IdeaResult{}, false
	}
	id := chi.URLParam(r, "idea")
	result, ok := catalog.Find(id)
	if !ok {
		h.writeServiceError(w, fmt.Errorf("%w: %s", service.ErrUnknownIdea, id))
		return nil, models.IdeaResult{}, false
	}
	return catalog, result, true
}

func candidatePath(profile config.UserProfile, result models.IdeaResult) string {
	return filepath.Join(result.SourcePath, profile.CandidateFileName())
}

// ============================================================================
// Setup and processing
// ============================================================================

func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	limit := h.Config.Server.MaxUploadMB << 20

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or malformed upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	goal := strings.TrimSpace(r.FormValue("goal"))
	if goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	profile, err := h.Datasets.Profile(filepath.Base(header.Filename), file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.Sessions.Update(rs.Session.ID, func(s *state.Session) {
		s.Goal = goal
		s.Dataset = profile
	}); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.Logger.Info("Dataset profiled",
		zap.String("session", rs.Session.ID),
		zap.String("file", profile.FileName),
		zap.Int("rows", profile.NumRows),
		zap.Int("columns", profile.NumColumns))

	writeJSON(w, http.StatusOK, models.UploadResponse{
		Message: "Dataset uploaded",
		Goal:    goal,
		Profile: profile,
	})
}

func (h *Handler) StartProcessing(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)

	var req models.ProcessingRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	catalog, err := h.Catalogs.Get(r.Context(), rs.Profile.CatalogConfig())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	count := req.Count
	if count == 0 {
		count = service.DefaultIdeaCount(len(catalog.Results))
	}
	index := service.LoadIdeaIndex(rs.Profile.IdeasFile, h.Logger)
	run := service.NewProcessingRun(catalog.Results, count, index, rs.Profile.Threshold())
	snap := run.Snapshot()

	if _, err := h.Sessions.Update(rs.Session.ID, func(s *state.Session) {
		s.Page = state.PageProcessing
		s.IdeaCount = snap.Total
		s.SelectedIdea = ""
		s.Run = run
	}); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) AdvanceProcessing(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}
	run.Advance()
	snap := run.Snapshot()
	h.syncSelection(sessionFrom(r).Session.ID, snap.Selected)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetProcessing(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

// SelectRequest for POST /api/processing/select
type SelectRequest struct {
	Idea string `json:"idea"`
}

func (h *Handler) SelectIdea(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := run.Select(req.Idea); err != nil {
		h.writeServiceError(w, err)
		return
	}
	snap := run.Snapshot()
	h.syncSelection(sessionFrom(r).Session.ID, snap.Selected)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) currentRun(w http.ResponseWriter, r *http.Request) (*service.ProcessingRun, bool) {
	rs := sessionFrom(r)
	if rs.Session.Run == nil {
		writeError(w, http.StatusConflict, "No processing run started")
		return nil, false
	}
	return rs.Session.Run, true
}

func (h *Handler) syncSelection(sessionID, selected string) {
	_, _ = h.Sessions.Update(sessionID, func(s *state.Session) { s.SelectedIdea = selected })
}

// ============================================================================
// Deployment
// ============================================================================

func (h *Handler) DeploymentDefaults(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)
	_, result, ok := h.findIdea(w, r, rs.Profile)
	if !ok {
		return
	}

	if _, err := h.Sessions.Update(rs.Session.ID, func(s *state.Session) {
		s.Page = state.PageDeployment
		s.DeploymentIdea = result.Identifier
	}); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Deployer.Defaults(result.Identifier))
}

func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	rs := sessionFrom(r)

	var req models.DeploymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Idea == "" {
		req.Idea = rs.Session.DeploymentIdea
	}

	catalog, err := h.Catalogs.Get(r.Context(), rs.Profile.CatalogConfig())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if _, ok := catalog.Find(req.Idea); !ok {
		h.writeServiceError(w, fmt.Errorf("%w: %q", service.ErrUnknownIdea, req.Idea))
		return
	}

	deployment, err := h.Deployer.Deploy(req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deployment)
}

// ============================================================================
// Helpers
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var missing *service.MissingArtifactError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusNotFound, missing.Error())
	case errors.Is(err, service.ErrUnknownIdea):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDirectoryUnavailable):
		h.Logger.Error("Catalog directory unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrInvalidCatalogConfig),
		errors.Is(err, service.ErrInvalidDeployment):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
