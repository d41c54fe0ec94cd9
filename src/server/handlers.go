package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apimgr/prospects/src/cache"
	"github.com/apimgr/prospects/src/common/version"
	"github.com/apimgr/prospects/src/database"
	"github.com/apimgr/prospects/src/logging"
	"github.com/apimgr/prospects/src/model"
	"github.com/apimgr/prospects/src/resolve"
	"github.com/apimgr/prospects/src/schedule"
)

// cacheTTL bounds how stale cached responses may get between refreshes.
const cacheTTL = 5 * time.Minute

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code, message string) {
	writeJSON(w, model.HTTPStatusCode(code), map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, model.ErrCodeMethodNotAllowed, "method not allowed")
}

// snapshotOr503 returns the current snapshot or writes a 503.
func (s *Server) snapshotOr503(w http.ResponseWriter) (*schedule.Snapshot, bool) {
	snap, err := s.schedule.Snapshot()
	if err != nil {
		writeError(w, model.ErrCodeUnavailable, "no schedule loaded yet")
		return nil, false
	}
	return snap, true
}

// teamMatch is the API shape of a team search result.
type teamMatch struct {
	Canon string `json:"canon"`
	Label string `json:"label"`
}

// prospectMatch is the API shape of a prospect search result.
type prospectMatch struct {
	Canon string `json:"canon"`
	Label string `json:"label"`
	Rank  int    `json:"rank,omitempty"`
}

// handleSearchTeams resolves a free-text team query against the catalog.
func (s *Server) handleSearchTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	snap, ok := s.snapshotOr503(w)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	items := s.resolver.ResolveTeams(query, snap.Teams)
	s.metrics.RecordSearch("teams", len(items))

	matches := make([]teamMatch, 0, len(items))
	for _, item := range items {
		matches = append(matches, teamMatch{Canon: item.Canon, Label: item.Label})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"matches": matches,
		"count":   len(matches),
	})
}

// handleSearchProspects resolves a free-text prospect query.
func (s *Server) handleSearchProspects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	snap, ok := s.snapshotOr503(w)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	items := s.resolver.ResolveProspects(query, snap.Prospects)
	s.metrics.RecordSearch("prospects", len(items))

	matches := make([]prospectMatch, 0, len(items))
	for _, item := range items {
		matches = append(matches, prospectMatch{Canon: item.Canon, Label: item.Label, Rank: item.Rank})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"matches": matches,
		"count":   len(matches),
	})
}

// handleSuggest merges team and prospect labels for typeahead, cached per
// normalized query.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := r.URL.Query().Get("q")
	limit := 8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"query":       query,
			"suggestions": []string{},
		})
		return
	}

	cacheKey := "suggest:" + resolve.Plain(query) + ":" + strconv.Itoa(limit)
	if s.cache != nil {
		var cached []string
		if err := cache.GetJSON(r.Context(), s.cache, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheHit(true)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"query":       query,
				"suggestions": cached,
			})
			return
		}
		s.metrics.RecordCacheHit(false)
	}

	snap, ok := s.snapshotOr503(w)
	if !ok {
		return
	}

	suggestions := make([]string, 0, limit)
	seen := make(map[string]bool)
	for _, item := range s.resolver.ResolveTeams(query, snap.Teams) {
		if len(suggestions) >= limit {
			break
		}
		if !seen[item.Label] {
			seen[item.Label] = true
			suggestions = append(suggestions, item.Label)
		}
	}
	for _, item := range s.resolver.ResolveProspects(query, snap.Prospects) {
		if len(suggestions) >= limit {
			break
		}
		if !seen[item.Label] {
			seen[item.Label] = true
			suggestions = append(suggestions, item.Label)
		}
	}

	if s.cache != nil {
		cache.SetJSON(r.Context(), s.cache, cacheKey, suggestions, cacheTTL)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"suggestions": suggestions,
	})
}

// handleSchedule returns the games of the best-matching team.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := r.URL.Query().Get("team")
	if strings.TrimSpace(query) == "" {
		writeError(w, model.ErrCodeBadRequest, "team parameter is required")
		return
	}

	snap, ok := s.snapshotOr503(w)
	if !ok {
		return
	}

	matches := s.resolver.ResolveTeams(query, snap.Teams)
	s.metrics.RecordSearch("teams", len(matches))
	if len(matches) == 0 {
		writeError(w, model.ErrCodeNotFound, "no team matches "+strconv.Quote(query))
		return
	}

	best := matches[0]

	cacheKey := "schedule:" + best.Canon
	if s.cache != nil {
		var cached []model.Game
		if err := cache.GetJSON(r.Context(), s.cache, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheHit(true)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"team":  teamMatch{Canon: best.Canon, Label: best.Label},
				"games": cached,
				"count": len(cached),
			})
			return
		}
		s.metrics.RecordCacheHit(false)
	}

	games, err := s.schedule.GamesForTeam(best.Canon)
	if err != nil {
		writeError(w, model.ErrCodeUnavailable, "no schedule loaded yet")
		return
	}
	if s.cache != nil {
		cache.SetJSON(r.Context(), s.cache, cacheKey, games, cacheTTL)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"team":  teamMatch{Canon: best.Canon, Label: best.Label},
		"games": games,
		"count": len(games),
	})
}

// handleNotes serves note create/list/delete.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createNote(w, r)
	case http.MethodGet:
		s.listNotes(w, r)
	case http.MethodDelete:
		s.deleteNote(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author  string `json:"author"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrCodeBadRequest, "invalid JSON body")
		return
	}

	subject := resolve.Plain(req.Subject)
	if req.Author == "" || subject == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, model.ErrCodeValidation, "author, subject, and body are required")
		return
	}

	note := &database.Note{Author: req.Author, Subject: subject, Body: req.Body}
	if err := s.repo.CreateNote(r.Context(), note); err != nil {
		writeError(w, model.ErrCodeInternal, "failed to store note")
		return
	}

	s.audit(r, logging.AuditEntry{
		Action:  "note.create",
		Actor:   note.Author,
		Target:  note.Subject,
		Success: true,
	})
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	subject := resolve.Plain(r.URL.Query().Get("subject"))
	notes, err := s.repo.ListNotes(r.Context(), subject)
	if err != nil {
		writeError(w, model.ErrCodeInternal, "failed to list notes")
		return
	}
	if notes == nil {
		notes = []database.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"count": len(notes),
	})
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, model.ErrCodeBadRequest, "id parameter is required")
		return
	}

	err := s.repo.DeleteNote(r.Context(), id)
	if err == model.ErrNotFound {
		writeError(w, model.ErrCodeNotFound, "note not found")
		return
	}
	if err != nil {
		writeError(w, model.ErrCodeInternal, "failed to delete note")
		return
	}

	s.audit(r, logging.AuditEntry{Action: "note.delete", Target: id, Success: true})
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleFriends serves friend request/list.
func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createFriend(w, r)
	case http.MethodGet:
		s.listFriends(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) createFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requester string `json:"requester"`
		Addressee string `json:"addressee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.ErrCodeBadRequest, "invalid JSON body")
		return
	}

	f := &database.Friend{Requester: req.Requester, Addressee: req.Addressee}
	err := s.repo.CreateFriendRequest(r.Context(), f)
	switch {
	case err == model.ErrDuplicateFriend:
		writeError(w, model.ErrCodeConflict, "friend link already exists")
		return
	case err != nil:
		writeError(w, model.ErrCodeValidation, err.Error())
		return
	}

	s.audit(r, logging.AuditEntry{
		Action:  "friend.request",
		Actor:   f.Requester,
		Target:  f.Addressee,
		Success: true,
	})
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) listFriends(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	status := r.URL.Query().Get("status")

	friends, err := s.repo.ListFriends(r.Context(), user, status)
	if err != nil {
		writeError(w, model.ErrCodeInternal, "failed to list friends")
		return
	}
	if friends == nil {
		friends = []database.Friend{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"friends": friends,
		"count":   len(friends),
	})
}

// handleFriendsAccept marks a pending request accepted.
func (s *Server) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, model.ErrCodeBadRequest, "id is required")
		return
	}

	err := s.repo.AcceptFriend(r.Context(), req.ID)
	if err == model.ErrNotFound {
		writeError(w, model.ErrCodeNotFound, "no pending request with that id")
		return
	}
	if err != nil {
		writeError(w, model.ErrCodeInternal, "failed to accept request")
		return
	}

	s.audit(r, logging.AuditEntry{Action: "friend.accept", Target: req.ID, Success: true})
	writeJSON(w, http.StatusOK, map[string]string{"accepted": req.ID})
}

// handleHealthz reports component health.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = "down"
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}
	if snap, err := s.schedule.Snapshot(); err == nil {
		checks["snapshot"] = "ok"
		checks["snapshot_age"] = time.Since(snap.RefreshedAt).Truncate(time.Second).String()
	} else {
		checks["snapshot"] = "empty"
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":  state,
		"version": version.GetShort(),
		"checks":  checks,
	})
}

// handleVersion reports build info.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) audit(r *http.Request, entry logging.AuditEntry) {
	if s.logManager == nil {
		return
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]interface{}{}
	}
	entry.Metadata["request_id"] = r.Header.Get("X-Request-ID")
	entry.Metadata["ip"] = logging.ClientIP(r)
	s.logManager.Audit().Log(entry)
}
