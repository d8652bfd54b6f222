package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReactionTypes is the fixed set of reaction types the ledger accepts.
var ReactionTypes = []string{"like", "clap", "star"}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// querier is satisfied by both *sql.DB and *sql.Tx so the aggregation helpers
// can run inside a snapshot transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const userColumns = `id, name, email, password_hash, department, role, is_active, is_email_verified, joined_at`

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Department,
		&user.Role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.JoinedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a new account together with its initial email
// verification token.
func (s *PostgresStore) CreateUser(ctx context.Context, user User, verificationToken string, verificationExpiresAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, department, role, is_active, verification_token, verification_expires_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NULLIF($6, ''), $7)
		RETURNING id
	`, user.Name, user.Email, user.PasswordHash, user.Department, user.Role, verificationToken, verificationExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (s *PostgresStore) ListUsers(ctx context.Context, dept string, activeOnly bool) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1='' OR department=$1)
		  AND (NOT $2::boolean OR is_active)
		ORDER BY name ASC, id ASC
	`, dept, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Department,
			&user.Role,
			&user.IsActive,
			&user.IsEmailVerified,
			&user.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, userID int64, name, dept string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name=COALESCE(NULLIF($2, ''), name), department=COALESCE(NULLIF($3, ''), department)
		WHERE id=$1
	`, userID, name, dept)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3 WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return nil
}

// ConsumeVerificationToken marks the matching user verified. The token is left
// in place so a repeated verification with the same token reports success
// rather than an error.
func (s *PostgresStore) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return false, fmt.Errorf("consume verification token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume verification token rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO NOTHING
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset atomically claims an unused, unexpired reset token and
// returns the owning user id. sql.ErrNoRows means invalid, expired, or
// already consumed.
func (s *PostgresStore) ConsumePasswordReset(ctx context.Context, tokenHash string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE password_resets
		SET used_at=NOW()
		WHERE token_hash=$1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING user_id
	`, tokenHash).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.department, u.role, u.is_active, u.is_email_verified, u.joined_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	return scanUser(s.db.QueryRowContext(ctx, query, tokenHash))
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// CreateShoutout inserts the shoutout and all recipient rows in one
// transaction. Recipient ids are validated by the caller before this runs;
// any insert failure rolls the whole creation back.
func (s *PostgresStore) CreateShoutout(ctx context.Context, senderID int64, message string, recipientIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create shoutout: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var shoutoutID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO shoutouts (sender_id, message)
		VALUES ($1, $2)
		RETURNING id
	`, senderID, message).Scan(&shoutoutID)
	if err != nil {
		return 0, fmt.Errorf("insert shoutout: %w", err)
	}

	for _, recipientID := range recipientIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shoutout_recipients (shoutout_id, recipient_id)
			VALUES ($1, $2)
			ON CONFLICT (shoutout_id, recipient_id) DO NOTHING
		`, shoutoutID, recipientID); err != nil {
			return 0, fmt.Errorf("insert recipient %d: %w", recipientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create shoutout: %w", err)
	}
	return shoutoutID, nil
}

func (s *PostgresStore) GetShoutout(ctx context.Context, shoutoutID int64) (Shoutout, error) {
	var item Shoutout
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, message, created_at, updated_at
		FROM shoutouts
		WHERE id=$1
	`, shoutoutID).Scan(&item.ID, &item.SenderID, &item.Message, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Shoutout{}, err
	}
	return item, nil
}

// HasDepartmentAccess reports whether at least one recipient of the shoutout
// belongs to the given department. Read visibility is recipient-driven.
func (s *PostgresStore) HasDepartmentAccess(ctx context.Context, shoutoutID int64, dept string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM shoutout_recipients r
			JOIN users u ON u.id = r.recipient_id
			WHERE r.shoutout_id=$1 AND u.department=$2
		)
	`, shoutoutID, dept).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check department access: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) UpdateShoutoutMessage(ctx context.Context, shoutoutID int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE shoutouts SET message=$2, updated_at=NOW() WHERE id=$1
	`, shoutoutID, message)
	if err != nil {
		return fmt.Errorf("update shoutout message: %w", err)
	}
	return nil
}

// DeleteShoutout removes the shoutout; recipients, reactions, comments and
// reports go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteShoutout(ctx context.Context, shoutoutID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shoutouts WHERE id=$1`, shoutoutID)
	if err != nil {
		return fmt.Errorf("delete shoutout: %w", err)
	}
	return nil
}

// AdminDeleteShoutout records the moderation action and deletes the shoutout
// in one transaction.
func (s *PostgresStore) AdminDeleteShoutout(ctx context.Context, shoutoutID, adminID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_id, target_type)
		VALUES ($1, $2, $3, 'shoutout')
	`, adminID, fmt.Sprintf("Deleted shoutout #%d", shoutoutID), shoutoutID); err != nil {
		return fmt.Errorf("insert admin log: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shoutouts WHERE id=$1`, shoutoutID); err != nil {
		return fmt.Errorf("admin delete shoutout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admin delete: %w", err)
	}
	return nil
}

// GetShoutoutView aggregates one shoutout inside a read-only transaction so
// counts and per-viewer state come from a single snapshot.
func (s *PostgresStore) GetShoutoutView(ctx context.Context, shoutoutID, viewerID int64) (ShoutoutView, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("begin shoutout view: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var shoutout Shoutout
	err = tx.QueryRowContext(ctx, `
		SELECT id, sender_id, message, created_at, updated_at
		FROM shoutouts
		WHERE id=$1
	`, shoutoutID).Scan(&shoutout.ID, &shoutout.SenderID, &shoutout.Message, &shoutout.CreatedAt, &shoutout.UpdatedAt)
	if err != nil {
		return ShoutoutView{}, err
	}

	view, err := buildShoutoutView(ctx, tx, shoutout, viewerID)
	if err != nil {
		return ShoutoutView{}, err
	}
	if err := tx.Commit(); err != nil {
		return ShoutoutView{}, fmt.Errorf("commit shoutout view: %w", err)
	}
	return view, nil
}

// ListShoutoutViews returns aggregated views for every shoutout visible to
// the viewer's department, with optional sender-department, sender-id, and
// inclusive date-only range filters, newest first (id desc breaks ties).
// The listing and all per-item aggregation run in one read-only transaction.
func (s *PostgresStore) ListShoutoutViews(ctx context.Context, viewerID int64, viewerDept string, filter ShoutoutFilter) ([]ShoutoutView, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin list shoutouts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT s.id, s.sender_id, s.message, s.created_at, s.updated_at
		FROM shoutouts s
		JOIN shoutout_recipients r ON r.shoutout_id = s.id
		JOIN users ru ON ru.id = r.recipient_id
		JOIN users su ON su.id = s.sender_id
		WHERE ru.department = $1
		  AND ($2='' OR su.department = $2)
		  AND ($3::bigint = 0 OR s.sender_id = $3)
		  AND ($4='' OR s.created_at::date >= $4::date)
		  AND ($5='' OR s.created_at::date <= $5::date)
		ORDER BY s.created_at DESC, s.id DESC
		OFFSET $6 LIMIT $7
	`, viewerDept, filter.Department, filter.SenderID, filter.StartDate, filter.EndDate, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list shoutouts: %w", err)
	}

	shoutouts := make([]Shoutout, 0)
	for rows.Next() {
		var item Shoutout
		if err := rows.Scan(&item.ID, &item.SenderID, &item.Message, &item.CreatedAt, &item.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shoutout: %w", err)
		}
		shoutouts = append(shoutouts, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate shoutouts: %w", err)
	}
	rows.Close()

	views := make([]ShoutoutView, 0, len(shoutouts))
	for _, shoutout := range shoutouts {
		view, err := buildShoutoutView(ctx, tx, shoutout, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit list shoutouts: %w", err)
	}
	return views, nil
}

func buildShoutoutView(ctx context.Context, q querier, shoutout Shoutout, viewerID int64) (ShoutoutView, error) {
	view := ShoutoutView{Shoutout: shoutout}

	err := q.QueryRowContext(ctx, `
		SELECT id, name, email, department FROM users WHERE id=$1
	`, shoutout.SenderID).Scan(&view.Sender.ID, &view.Sender.Name, &view.Sender.Email, &view.Sender.Department)
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("load sender: %w", err)
	}

	recipientRows, err := q.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.department
		FROM shoutout_recipients r
		JOIN users u ON u.id = r.recipient_id
		WHERE r.shoutout_id=$1
		ORDER BY r.id ASC
	`, shoutout.ID)
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("load recipients: %w", err)
	}
	view.Recipients = make([]UserSummary, 0)
	for recipientRows.Next() {
		var item UserSummary
		if err := recipientRows.Scan(&item.ID, &item.Name, &item.Email, &item.Department); err != nil {
			recipientRows.Close()
			return ShoutoutView{}, fmt.Errorf("scan recipient: %w", err)
		}
		view.Recipients = append(view.Recipients, item)
	}
	if err := recipientRows.Err(); err != nil {
		recipientRows.Close()
		return ShoutoutView{}, fmt.Errorf("iterate recipients: %w", err)
	}
	recipientRows.Close()

	view.ReactionCounts = zeroReactionCounts()
	countRows, err := q.QueryContext(ctx, `
		SELECT type, COUNT(*)::int FROM reactions WHERE shoutout_id=$1 GROUP BY type
	`, shoutout.ID)
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("load reaction counts: %w", err)
	}
	for countRows.Next() {
		var reactionType string
		var count int
		if err := countRows.Scan(&reactionType, &count); err != nil {
			countRows.Close()
			return ShoutoutView{}, fmt.Errorf("scan reaction count: %w", err)
		}
		view.ReactionCounts[reactionType] = count
	}
	if err := countRows.Err(); err != nil {
		countRows.Close()
		return ShoutoutView{}, fmt.Errorf("iterate reaction counts: %w", err)
	}
	countRows.Close()

	ownRows, err := q.QueryContext(ctx, `
		SELECT type FROM reactions WHERE shoutout_id=$1 AND user_id=$2 ORDER BY type ASC
	`, shoutout.ID, viewerID)
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("load viewer reactions: %w", err)
	}
	view.UserReactions = make([]string, 0)
	for ownRows.Next() {
		var reactionType string
		if err := ownRows.Scan(&reactionType); err != nil {
			ownRows.Close()
			return ShoutoutView{}, fmt.Errorf("scan viewer reaction: %w", err)
		}
		view.UserReactions = append(view.UserReactions, reactionType)
	}
	if err := ownRows.Err(); err != nil {
		ownRows.Close()
		return ShoutoutView{}, fmt.Errorf("iterate viewer reactions: %w", err)
	}
	ownRows.Close()

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*)::int FROM comments WHERE shoutout_id=$1
	`, shoutout.ID).Scan(&view.CommentCount)
	if err != nil {
		return ShoutoutView{}, fmt.Errorf("count comments: %w", err)
	}
	return view, nil
}

func zeroReactionCounts() map[string]int {
	counts := make(map[string]int, len(ReactionTypes))
	for _, reactionType := range ReactionTypes {
		counts[reactionType] = 0
	}
	return counts
}

// AddReaction inserts the (shoutout, user, type) row if absent. The unique
// constraint makes concurrent duplicate adds collapse to a single row; the
// return value reports whether this call created it.
func (s *PostgresStore) AddReaction(ctx context.Context, shoutoutID, userID int64, reactionType string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reactions (shoutout_id, user_id, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (shoutout_id, user_id, type) DO NOTHING
	`, shoutoutID, userID, reactionType)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert reaction rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) RemoveReaction(ctx context.Context, shoutoutID, userID int64, reactionType string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reactions WHERE shoutout_id=$1 AND user_id=$2 AND type=$3
	`, shoutoutID, userID, reactionType)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reaction rows: %w", err)
	}
	return affected > 0, nil
}

// SummarizeReactions returns counts for all types plus, per type, the users
// who reacted ordered by name. A non-empty typeFilter restricts which user
// lists are populated; counts always cover every type.
func (s *PostgresStore) SummarizeReactions(ctx context.Context, shoutoutID int64, typeFilter string) (ReactionSummary, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return ReactionSummary{}, fmt.Errorf("begin reaction summary: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	summary := ReactionSummary{
		Counts:   zeroReactionCounts(),
		Reactors: make(map[string][]UserSummary, len(ReactionTypes)),
	}

	countRows, err := tx.QueryContext(ctx, `
		SELECT type, COUNT(*)::int FROM reactions WHERE shoutout_id=$1 GROUP BY type
	`, shoutoutID)
	if err != nil {
		return ReactionSummary{}, fmt.Errorf("summarize reaction counts: %w", err)
	}
	for countRows.Next() {
		var reactionType string
		var count int
		if err := countRows.Scan(&reactionType, &count); err != nil {
			countRows.Close()
			return ReactionSummary{}, fmt.Errorf("scan reaction count: %w", err)
		}
		summary.Counts[reactionType] = count
	}
	if err := countRows.Err(); err != nil {
		countRows.Close()
		return ReactionSummary{}, fmt.Errorf("iterate reaction counts: %w", err)
	}
	countRows.Close()

	userRows, err := tx.QueryContext(ctx, `
		SELECT re.type, u.id, u.name, u.email, u.department
		FROM reactions re
		JOIN users u ON u.id = re.user_id
		WHERE re.shoutout_id=$1
		  AND ($2='' OR re.type=$2)
		ORDER BY re.type ASC, u.name ASC, u.id ASC
	`, shoutoutID, typeFilter)
	if err != nil {
		return ReactionSummary{}, fmt.Errorf("summarize reactors: %w", err)
	}
	for userRows.Next() {
		var reactionType string
		var item UserSummary
		if err := userRows.Scan(&reactionType, &item.ID, &item.Name, &item.Email, &item.Department); err != nil {
			userRows.Close()
			return ReactionSummary{}, fmt.Errorf("scan reactor: %w", err)
		}
		summary.Reactors[reactionType] = append(summary.Reactors[reactionType], item)
	}
	if err := userRows.Err(); err != nil {
		userRows.Close()
		return ReactionSummary{}, fmt.Errorf("iterate reactors: %w", err)
	}
	userRows.Close()

	if err := tx.Commit(); err != nil {
		return ReactionSummary{}, fmt.Errorf("commit reaction summary: %w", err)
	}
	return summary, nil
}

// CreateComment inserts the comment and its resolved mention rows in one
// transaction. Mentions are fixed at creation and never updated afterwards.
func (s *PostgresStore) CreateComment(ctx context.Context, shoutoutID, userID int64, content string, mentionIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create comment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var commentID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO comments (shoutout_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id
	`, shoutoutID, userID, content).Scan(&commentID)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}

	for _, mentionID := range mentionIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comment_mentions (comment_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (comment_id, user_id) DO NOTHING
		`, commentID, mentionID); err != nil {
			return 0, fmt.Errorf("insert mention %d: %w", mentionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create comment: %w", err)
	}
	return commentID, nil
}

const commentSelect = `
	SELECT c.id, c.shoutout_id, c.user_id, c.content, c.created_at, c.updated_at,
		u.id, u.name, u.email, u.department
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

func (s *PostgresStore) GetComment(ctx context.Context, commentID int64) (Comment, error) {
	var item Comment
	err := s.db.QueryRowContext(ctx, commentSelect+`WHERE c.id=$1`, commentID).Scan(
		&item.ID,
		&item.ShoutoutID,
		&item.UserID,
		&item.Content,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Author.ID,
		&item.Author.Name,
		&item.Author.Email,
		&item.Author.Department,
	)
	if err != nil {
		return Comment{}, err
	}
	mentions, err := s.loadMentions(ctx, s.db, item.ID)
	if err != nil {
		return Comment{}, err
	}
	item.Mentions = mentions
	return item, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, shoutoutID int64) ([]Comment, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin list comments: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, commentSelect+`
		WHERE c.shoutout_id=$1
		ORDER BY c.created_at ASC, c.id ASC
	`, shoutoutID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(
			&item.ID,
			&item.ShoutoutID,
			&item.UserID,
			&item.Content,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Author.ID,
			&item.Author.Name,
			&item.Author.Email,
			&item.Author.Department,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	rows.Close()

	for i := range items {
		mentions, err := s.loadMentions(ctx, tx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Mentions = mentions
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit list comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) loadMentions(ctx context.Context, q querier, commentID int64) ([]UserSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.department
		FROM comment_mentions m
		JOIN users u ON u.id = m.user_id
		WHERE m.comment_id=$1
		ORDER BY u.id ASC
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("load mentions: %w", err)
	}
	defer rows.Close()

	items := make([]UserSummary, 0)
	for rows.Next() {
		var item UserSummary
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Department); err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateCommentContent(ctx context.Context, commentID int64, content string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE comments SET content=$2, updated_at=NOW() WHERE id=$1
	`, commentID, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, commentID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, shoutoutID, reportedBy int64, reason string) (Report, error) {
	var item Report
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reports (shoutout_id, reported_by, reason, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, shoutout_id, reported_by, reason, status, created_at
	`, shoutoutID, reportedBy, reason).Scan(&item.ID, &item.ShoutoutID, &item.ReportedBy, &item.Reason, &item.Status, &item.CreatedAt)
	if err != nil {
		return Report{}, fmt.Errorf("create report: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, status string) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shoutout_id, reported_by, reason, status, created_at
		FROM reports
		WHERE ($1='' OR status=$1)
		ORDER BY created_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	items := make([]Report, 0)
	for rows.Next() {
		var item Report
		if err := rows.Scan(&item.ID, &item.ShoutoutID, &item.ReportedBy, &item.Reason, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return items, nil
}

// ResolveReport updates the report status and writes the admin log entry in
// one transaction. Returns false when the report does not exist.
func (s *PostgresStore) ResolveReport(ctx context.Context, reportID, adminID int64, action string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin resolve report: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE reports SET status=$2 WHERE id=$1`, reportID, action)
	if err != nil {
		return false, fmt.Errorf("resolve report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve report rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_id, target_type)
		VALUES ($1, $2, $3, 'report')
	`, adminID, fmt.Sprintf("Resolved report #%d with action: %s", reportID, action), reportID); err != nil {
		return false, fmt.Errorf("insert admin log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit resolve report: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) SummaryCounts(ctx context.Context) (totalUsers int, totalShoutouts int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&totalUsers); err != nil {
		err = fmt.Errorf("count users: %w", err)
		return
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shoutouts`).Scan(&totalShoutouts); err != nil {
		err = fmt.Errorf("count shoutouts: %w", err)
		return
	}
	return
}

func (s *PostgresStore) TopSenders(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return s.leaderboard(ctx, `
		SELECT u.id, u.name, u.department, COUNT(s.id)::int AS cnt
		FROM users u
		JOIN shoutouts s ON s.sender_id = u.id
		GROUP BY u.id, u.name, u.department
		ORDER BY cnt DESC, u.id ASC
		LIMIT $1
	`, limit)
}

func (s *PostgresStore) TopRecipients(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return s.leaderboard(ctx, `
		SELECT u.id, u.name, u.department, COUNT(r.id)::int AS cnt
		FROM users u
		JOIN shoutout_recipients r ON r.recipient_id = u.id
		GROUP BY u.id, u.name, u.department
		ORDER BY cnt DESC, u.id ASC
		LIMIT $1
	`, limit)
}

func (s *PostgresStore) leaderboard(ctx context.Context, query string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	items := make([]LeaderboardEntry, 0)
	for rows.Next() {
		var item LeaderboardEntry
		if err := rows.Scan(&item.UserID, &item.Name, &item.Department, &item.Count); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DepartmentStats(ctx context.Context) ([]DepartmentStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.department, COUNT(s.id)::int
		FROM users u
		JOIN shoutouts s ON s.sender_id = u.id
		GROUP BY u.department
		ORDER BY u.department ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	defer rows.Close()

	items := make([]DepartmentStat, 0)
	for rows.Next() {
		var item DepartmentStat
		if err := rows.Scan(&item.Department, &item.Count); err != nil {
			return nil, fmt.Errorf("scan department stat: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate department stats: %w", err)
	}
	return items, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
