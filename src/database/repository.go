package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apimgr/prospects/src/model"
)

// Note is a scouting note attached to a prospect or team canon key.
type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Subject   string    `json:"subject"` // canon key of a prospect or team
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Friend is a link between two users. Status is "pending" until accepted.
type Friend struct {
	ID        string    `json:"id"`
	Requester string    `json:"requester"`
	Addressee string    `json:"addressee"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskState is the persisted run record of a scheduler task.
type TaskState struct {
	TaskID    string     `json:"task_id"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	RunCount  int        `json:"run_count"`
}

// gamePlayers is the JSON shape stored in the games.players column.
type gamePlayers struct {
	Players []model.Player `json:"players,omitempty"`
	Home    []model.Player `json:"home,omitempty"`
	Away    []model.Player `json:"away,omitempty"`
}

// Repository provides typed access over the database.
type Repository struct {
	db *DB
}

// NewRepository creates a repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Game snapshot operations

// ReplaceGames swaps the persisted schedule for the given games in one
// transaction. Position preserves the merge order across restarts.
func (r *Repository) ReplaceGames(ctx context.Context, games []model.Game) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM games`); err != nil {
		return fmt.Errorf("failed to clear games: %w", err)
	}

	for i, g := range games {
		players, err := json.Marshal(gamePlayers{
			Players: g.Players,
			Home:    g.HomePlayers,
			Away:    g.AwayPlayers,
		})
		if err != nil {
			return fmt.Errorf("failed to encode players for %s: %w", g.Key(), err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO games (game_key, league, game_date, tipoff, venue,
			                    home_team, away_team, home_canon, away_canon,
			                    players, position, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.Key(), g.League, g.Date.Format("2006-01-02"), g.Tipoff, g.Venue,
			g.HomeTeam, g.AwayTeam, g.HomeCanon, g.AwayCanon,
			string(players), i, time.Now()); err != nil {
			return fmt.Errorf("failed to insert game %s: %w", g.Key(), err)
		}
	}
	return tx.Commit()
}

// ListGames returns the persisted schedule in merge order.
func (r *Repository) ListGames(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT game_key, league, game_date, tipoff, venue,
		        home_team, away_team, home_canon, away_canon, players
		 FROM games ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var gameDate, playersJSON string
		if err := rows.Scan(&g.ID, &g.League, &gameDate, &g.Tipoff, &g.Venue,
			&g.HomeTeam, &g.AwayTeam, &g.HomeCanon, &g.AwayCanon, &playersJSON); err != nil {
			return nil, err
		}

		g.Date, err = time.Parse("2006-01-02", gameDate)
		if err != nil {
			return nil, fmt.Errorf("bad game date %q: %w", gameDate, err)
		}
		if playersJSON != "" {
			var p gamePlayers
			if err := json.Unmarshal([]byte(playersJSON), &p); err != nil {
				return nil, fmt.Errorf("bad players payload for %s: %w", g.ID, err)
			}
			g.Players, g.HomePlayers, g.AwayPlayers = p.Players, p.Home, p.Away
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Note operations

// CreateNote stores a note, assigning a uuid when unset.
func (r *Repository) CreateNote(ctx context.Context, note *Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO notes (id, author, subject, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.Author, note.Subject, note.Body, note.CreatedAt)
	return err
}

// ListNotes returns notes, newest first. An empty subject returns all notes.
func (r *Repository) ListNotes(ctx context.Context, subject string) ([]Note, error) {
	query := `SELECT id, author, subject, body, created_at FROM notes`
	var args []interface{}
	if subject != "" {
		query += ` WHERE subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Author, &n.Subject, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note by ID.
func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Friend operations

// CreateFriendRequest stores a pending friend request. A link between the
// same two users in either direction is a duplicate.
func (r *Repository) CreateFriendRequest(ctx context.Context, f *Friend) error {
	if f.Requester == "" || f.Addressee == "" {
		return fmt.Errorf("requester and addressee are required")
	}
	if f.Requester == f.Addressee {
		return fmt.Errorf("cannot befriend yourself")
	}

	var existing int
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friends
		 WHERE (requester = ? AND addressee = ?) OR (requester = ? AND addressee = ?)`,
		f.Requester, f.Addressee, f.Addressee, f.Requester)
	if err := row.Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return model.ErrDuplicateFriend
	}

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.Status = "pending"
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO friends (id, requester, addressee, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Requester, f.Addressee, f.Status, f.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return model.ErrDuplicateFriend
	}
	return err
}

// AcceptFriend marks a pending request accepted.
func (r *Repository) AcceptFriend(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE friends SET status = 'accepted' WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListFriends returns links involving the user, optionally filtered by
// status. An empty user returns every link.
func (r *Repository) ListFriends(ctx context.Context, user, status string) ([]Friend, error) {
	query := `SELECT id, requester, addressee, status, created_at FROM friends`
	var clauses []string
	var args []interface{}
	if user != "" {
		clauses = append(clauses, `(requester = ? OR addressee = ?)`)
		args = append(args, user, user)
	}
	if status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, status)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.ID, &f.Requester, &f.Addressee, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// Scheduler state operations

// SaveTaskState upserts the run record of a task.
func (r *Repository) SaveTaskState(ctx context.Context, taskID string, lastRun time.Time, lastErr string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE scheduler_state
		 SET last_run = ?, last_error = ?, run_count = run_count + 1
		 WHERE task_id = ?`,
		lastRun, lastErr, taskID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = r.db.Exec(ctx,
			`INSERT INTO scheduler_state (task_id, last_run, last_error, run_count)
			 VALUES (?, ?, ?, 1)`,
			taskID, lastRun, lastErr)
	}
	return err
}

// GetTaskState returns the run record of a task, or nil when absent.
func (r *Repository) GetTaskState(ctx context.Context, taskID string) (*TaskState, error) {
	row := r.db.QueryRow(ctx,
		`SELECT task_id, last_run, last_error, run_count FROM scheduler_state WHERE task_id = ?`,
		taskID)

	state := &TaskState{}
	var lastRun sql.NullTime
	var lastErr sql.NullString
	if err := row.Scan(&state.TaskID, &lastRun, &lastErr, &state.RunCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lastRun.Valid {
		state.LastRun = &lastRun.Time
	}
	state.LastError = lastErr.String
	return state, nil
}
