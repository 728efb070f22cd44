// Package http exposes the REST and websocket surface of the service. It
// authenticates callers, translates payloads, and maps domain errors to
// status codes; all behavior lives in the app services.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/auth"
	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// TokenVerifier resolves a bearer token to a caller identity.
type TokenVerifier interface {
	Verify(raw string) (domain.Identity, error)
}

type API struct {
	users      *app.UserService
	catalog    *app.CatalogService
	snapshots  *app.SnapshotService
	enrollment *app.EnrollmentService
	progress   *app.ProgressService
	feed       *app.LeaderboardFeed
	verifier   TokenVerifier
}

func NewAPI(
	users *app.UserService,
	catalog *app.CatalogService,
	snapshots *app.SnapshotService,
	enrollment *app.EnrollmentService,
	progress *app.ProgressService,
	feed *app.LeaderboardFeed,
	verifier TokenVerifier,
) *API {
	return &API{
		users:      users,
		catalog:    catalog,
		snapshots:  snapshots,
		enrollment: enrollment,
		progress:   progress,
		feed:       feed,
		verifier:   verifier,
	}
}

// Routes wires every endpoint onto a mux.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/class-codes/validate", a.handleValidateCode)

	mux.HandleFunc("GET /api/words", a.withAuth(a.handleWords))
	mux.HandleFunc("GET /api/user/profile", a.withAuth(a.handleProfile))
	mux.HandleFunc("POST /api/study-session", a.withAuth(a.handleStudySession))
	mux.HandleFunc("POST /api/quiz-result", a.withAuth(a.handleQuizResult))
	mux.HandleFunc("GET /api/leaderboard", a.withAuth(a.handleLeaderboard))

	mux.HandleFunc("POST /api/class-codes", a.withAuth(a.handleIssueCode))
	mux.HandleFunc("GET /api/class-codes", a.withAuth(a.handleListCodes))
	mux.HandleFunc("POST /api/class-codes/{id}/toggle", a.withAuth(a.handleToggleCode))
	mux.HandleFunc("DELETE /api/class-codes/{id}", a.withAuth(a.handleDeleteCode))

	mux.HandleFunc("GET /api/admin/users", a.withAuth(a.handleAdminUsers))
	mux.HandleFunc("GET /api/admin/progress/{userID}", a.withAuth(a.handleAdminProgress))
	mux.HandleFunc("POST /api/admin/create-word", a.withAuth(a.handleCreateWord))
	mux.HandleFunc("PUT /api/admin/update-word/{wordID}", a.withAuth(a.handleUpdateWord))
	mux.HandleFunc("DELETE /api/admin/delete-word/{wordID}", a.withAuth(a.handleDeleteWord))
	mux.HandleFunc("GET /api/admin/study-sets", a.withAuth(a.handleStudySets))
	mux.HandleFunc("POST /api/admin/create-study-set", a.withAuth(a.handleCreateStudySet))
	mux.HandleFunc("GET /api/admin/backups", a.withAuth(a.handleListBackups))
	mux.HandleFunc("POST /api/admin/create-backup", a.withAuth(a.handleCreateBackup))
	mux.HandleFunc("POST /api/admin/restore-backup", a.withAuth(a.handleRestoreBackup))

	mux.HandleFunc("GET /ws/leaderboard", a.serveLeaderboardWS)

	return mux
}

type authedHandler func(w http.ResponseWriter, r *http.Request, ident domain.Identity)

func (a *API) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, err := a.identify(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, ident)
	}
}

func (a *API) identify(r *http.Request) (domain.Identity, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return domain.Identity{}, auth.ErrInvalidToken
	}
	return a.verifier.Verify(raw)
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"app":       "Word Weaver API",
		"timestamp": time.Now().UTC(),
	})
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsTeacher   bool   `json:"is_teacher"`
	Grade       string `json:"grade"`
	School      string `json:"school"`
	BlockNumber string `json:"block_number"`
	TeacherName string `json:"teacher"`
	ClassCode   string `json:"class_code"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "email and password are required")
		return
	}
	resp, err := a.users.Register(r.Context(), app.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsTeacher:   req.IsTeacher,
		Grade:       req.Grade,
		School:      req.School,
		BlockNumber: req.BlockNumber,
		TeacherName: req.TeacherName,
		ClassCode:   req.ClassCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	resp, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleWords(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	words, err := a.catalog.Words(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, words)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	profile, err := a.users.ProfileOf(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleStudySession(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var req struct {
		WordID  string `json:"word_id"`
		Correct bool   `json:"correct"`
	}
	if !decode(w, r, &req) {
		return
	}
	points, err := a.progress.RecordStudySession(r.Context(), ident, req.WordID, req.Correct)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded", "points_earned": points})
}

func (a *API) handleQuizResult(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var req struct {
		Score          int `json:"score"`
		TotalQuestions int `json:"total_questions"`
	}
	if !decode(w, r, &req) {
		return
	}
	points, err := a.progress.RecordQuizResult(r.Context(), ident, req.Score, req.TotalQuestions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded", "points_earned": points})
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	entries, err := a.users.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	info, err := a.enrollment.ValidateCode(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type issueCodeRequest struct {
	ClassName   string `json:"class_name"`
	MaxUses     int    `json:"max_uses"`
	TTLDays     int    `json:"ttl_days"`
	Grade       string `json:"grade"`
	School      string `json:"school"`
	BlockNumber string `json:"block_number"`
}

func (a *API) handleIssueCode(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var req issueCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ClassName == "" {
		writeDetail(w, http.StatusBadRequest, "class_name is required")
		return
	}
	code, err := a.enrollment.IssueCode(r.Context(), ident, app.IssueCodeInput{
		ClassName:   req.ClassName,
		MaxUses:     req.MaxUses,
		TTL:         time.Duration(req.TTLDays) * 24 * time.Hour,
		Grade:       req.Grade,
		School:      req.School,
		BlockNumber: req.BlockNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (a *API) handleListCodes(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	codes, err := a.enrollment.ListCodes(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (a *API) handleToggleCode(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	active, err := a.enrollment.ToggleActive(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "active": active})
}

func (a *API) handleDeleteCode(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	if err := a.enrollment.DeleteCode(r.Context(), ident, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	profiles, err := a.users.ListUsers(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (a *API) handleAdminProgress(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	report, err := a.progress.ProgressOf(r.Context(), ident, r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleCreateWord(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var card domain.WordCard
	if !decode(w, r, &card) {
		return
	}
	id, err := a.catalog.CreateWord(r.Context(), ident, card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "created", "id": id})
}

func (a *API) handleUpdateWord(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var card domain.WordCard
	if !decode(w, r, &card) {
		return
	}
	if err := a.catalog.UpdateWord(r.Context(), ident, r.PathValue("wordID"), card); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

func (a *API) handleDeleteWord(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	if err := a.catalog.DeleteWord(r.Context(), ident, r.PathValue("wordID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (a *API) handleStudySets(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	sets, err := a.progress.StudySets(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (a *API) handleCreateStudySet(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		WordIDs     []string `json:"word_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := a.progress.CreateStudySet(r.Context(), ident, req.Name, req.Description, req.WordIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "created", "id": id})
}

func (a *API) handleListBackups(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	descs, err := a.snapshots.ListSnapshots(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descs)
}

func (a *API) handleCreateBackup(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	desc, err := a.snapshots.CreateSnapshot(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "backup_created",
		"collection_name": desc.CollectionName,
		"word_count":      desc.WordCount,
		"timestamp":       desc.TimestampKey,
	})
}

func (a *API) handleRestoreBackup(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var req struct {
		CollectionName string `json:"collection_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := a.snapshots.RestoreSnapshot(r.Context(), ident, req.CollectionName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "restored",
		"restored_from":      result.RestoredFrom,
		"word_count":         result.WordCount,
		"pre_restore_backup": result.PreRestoreBackup,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps domain failures onto status codes. Store failures surface
// as 503; nothing is swallowed.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWordNotFound),
		errors.Is(err, domain.ErrSnapshotNotFound),
		errors.Is(err, domain.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrEmptyCatalog),
		errors.Is(err, domain.ErrEmptySnapshot):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCodeExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrCodeExhausted):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeDetail(w, status, err.Error())
}
