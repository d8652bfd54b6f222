package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kudos/api/internal/access"
	"kudos/api/internal/auth"
	"kudos/api/internal/authpw"
	"kudos/api/internal/config"
	"kudos/api/internal/department"
	"kudos/api/internal/email"
	"kudos/api/internal/mention"
	"kudos/api/internal/store"
	"kudos/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	UserName     string
	Department   string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type ShoutoutFilterInput struct {
	Department string
	SenderID   int64
	StartDate  string
	EndDate    string
	Skip       int
	Limit      int
}

var allowedReactionTypes = map[string]struct{}{
	"like": {},
	"clap": {},
	"star": {},
}

var allowedReportActions = map[string]struct{}{
	"approved": {},
	"rejected": {},
}

var allowedReportStatuses = map[string]struct{}{
	"pending":  {},
	"approved": {},
	"rejected": {},
}

type dataStore interface {
	GetUserByID(context.Context, int64) (store.User, error)
	ListUsers(context.Context, string, bool) ([]store.User, error)
	UpdateUserProfile(context.Context, int64, string, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	CreateShoutout(context.Context, int64, string, []int64) (int64, error)
	GetShoutout(context.Context, int64) (store.Shoutout, error)
	HasDepartmentAccess(context.Context, int64, string) (bool, error)
	GetShoutoutView(context.Context, int64, int64) (store.ShoutoutView, error)
	ListShoutoutViews(context.Context, int64, string, store.ShoutoutFilter) ([]store.ShoutoutView, error)
	UpdateShoutoutMessage(context.Context, int64, string) error
	DeleteShoutout(context.Context, int64) error
	AdminDeleteShoutout(context.Context, int64, int64) error
	AddReaction(context.Context, int64, int64, string) (bool, error)
	RemoveReaction(context.Context, int64, int64, string) (bool, error)
	SummarizeReactions(context.Context, int64, string) (store.ReactionSummary, error)
	CreateComment(context.Context, int64, int64, string, []int64) (int64, error)
	GetComment(context.Context, int64) (store.Comment, error)
	ListComments(context.Context, int64) ([]store.Comment, error)
	UpdateCommentContent(context.Context, int64, string) error
	DeleteComment(context.Context, int64) error
	CreateReport(context.Context, int64, int64, string) (store.Report, error)
	ListReports(context.Context, string) ([]store.Report, error)
	ResolveReport(context.Context, int64, int64, string) (bool, error)
	SummaryCounts(context.Context) (int, int, error)
	TopSenders(context.Context, int) ([]store.LeaderboardEntry, error)
	TopRecipients(context.Context, int) ([]store.LeaderboardEntry, error)
	DepartmentStats(context.Context) ([]store.DepartmentStat, error)
	Ping(ctx context.Context) error
}

// refreshStore is the refresh-token backend, satisfied by both the Postgres
// store and the Redis session store.
type refreshStore interface {
	SaveRefreshSession(context.Context, string, int64, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions refreshStore
	authpw   *authpw.Service
	email    *email.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, emailService *email.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		authpw:   authpw.NewService(dataStore),
		email:    emailService,
	}
}

// NewWithSessionStore wires an alternate refresh-token backend (Redis).
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessionStore refreshStore, emailService *email.Service) *Service {
	service := New(cfg, dataStore, emailService)
	service.sessions = sessionStore
	return service
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) Can(role string, action access.Action) bool {
	return access.Can(access.Normalize(role), action)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateSession issues access and refresh tokens for an authenticated user.
func (s *Service) CreateSession(ctx context.Context, userID int64) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued. User state is re-read so deactivation takes effect here.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	sessionUser, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, sessionUser.ID)
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Department:   user.Department,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:      token,
		UserID:     user.ID,
		UserName:   user.Name,
		Department: user.Department,
		Role:       user.Role,
		JTI:        claims.JTI,
		ExpiresAt:  time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Profile returns the caller's own user record.
func (s *Service) Profile(ctx context.Context, session Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return userPayload(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, session Session, name, dept string) (map[string]any, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(dept) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "nothing to update", nil)
	}
	if err := s.store.UpdateUserProfile(ctx, session.UserID, strings.TrimSpace(name), strings.TrimSpace(dept)); err != nil {
		return nil, err
	}
	return s.Profile(ctx, session)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userSummaryPayload(store.UserSummary{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Department: user.Department,
	}), nil
}

// ListUsers returns active users, optionally restricted to one department.
// It backs the recipient picker, so deactivated accounts are excluded.
func (s *Service) ListUsers(ctx context.Context, dept string) (map[string]any, error) {
	users, err := s.store.ListUsers(ctx, strings.TrimSpace(dept), true)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, user := range users {
		items = append(items, userSummaryPayload(store.UserSummary{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Department: user.Department,
		}))
	}
	return map[string]any{"users": items}, nil
}

func (s *Service) AdminListUsers(ctx context.Context) (map[string]any, error) {
	users, err := s.store.ListUsers(ctx, "", false)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, user := range users {
		items = append(items, userPayload(user))
	}
	return map[string]any{"users": items}, nil
}

// CreateShoutout validates every recipient before anything is written:
// unknown recipients, self-tags, and cross-department tags each abort the
// whole request.
func (s *Service) CreateShoutout(ctx context.Context, session Session, message string, recipientIDs []int64) (map[string]any, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "message is required", nil)
	}
	if len(recipientIDs) == 0 {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "at least one recipient is required", nil)
	}

	seen := make(map[int64]struct{}, len(recipientIDs))
	recipients := make([]int64, 0, len(recipientIDs))
	recipientUsers := make([]store.User, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		if _, ok := seen[recipientID]; ok {
			continue
		}
		seen[recipientID] = struct{}{}

		recipient, err := s.store.GetUserByID(ctx, recipientID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Recipient %d not found", recipientID), nil)
		}
		if err != nil {
			return nil, err
		}
		if recipientID == session.UserID {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "You cannot tag yourself in a shoutout", nil)
		}
		if !department.Same(session.Department, recipient.Department) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You can only tag colleagues in your own department", nil)
		}
		recipients = append(recipients, recipientID)
		recipientUsers = append(recipientUsers, recipient)
	}

	shoutoutID, err := s.store.CreateShoutout(ctx, session.UserID, message, recipients)
	if err != nil {
		return nil, err
	}

	s.notifyRecipients(session.UserName, message, recipientUsers)

	view, err := s.store.GetShoutoutView(ctx, shoutoutID, session.UserID)
	if err != nil {
		return nil, err
	}
	return shoutoutViewPayload(view), nil
}

// notifyRecipients sends shoutout emails in the background; delivery failures
// only get logged and never affect the request. The recipients were already
// loaded during validation, no extra queries here.
func (s *Service) notifyRecipients(senderName, message string, recipients []store.User) {
	if !s.SMTPConfigured() {
		return
	}

	go func() {
		for _, recipient := range recipients {
			if err := s.email.SendShoutoutEmail(recipient.Email, recipient.Name, senderName, message); err != nil {
				log.Printf("shoutout notification to %s failed: %v", recipient.Email, err)
			}
		}
	}()
}

// SendVerificationEmail delivers the account-verification link in the
// background. No-op when SMTP is not configured.
func (s *Service) SendVerificationEmail(name, address, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), token)
	go func() {
		if err := s.email.SendVerificationEmail(address, name, url); err != nil {
			log.Printf("verification email to %s failed: %v", address, err)
		}
	}()
}

// SendPasswordResetEmail delivers the password-reset link in the background.
func (s *Service) SendPasswordResetEmail(name, address, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), token)
	go func() {
		if err := s.email.SendPasswordResetEmail(address, name, url); err != nil {
			log.Printf("password reset email to %s failed: %v", address, err)
		}
	}()
}

func (s *Service) ListShoutouts(ctx context.Context, session Session, input ShoutoutFilterInput) (map[string]any, error) {
	for _, date := range []struct {
		name  string
		value string
	}{
		{"startDate", input.StartDate},
		{"endDate", input.EndDate},
	} {
		if date.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date.value); err != nil {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", date.name+" must be formatted YYYY-MM-DD", nil)
		}
	}

	views, err := s.store.ListShoutoutViews(ctx, session.UserID, session.Department, store.ShoutoutFilter{
		Department: strings.TrimSpace(input.Department),
		SenderID:   input.SenderID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Skip:       input.Skip,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(views))
	for _, view := range views {
		items = append(items, shoutoutViewPayload(view))
	}
	return map[string]any{"shoutouts": items}, nil
}

func (s *Service) GetShoutout(ctx context.Context, session Session, shoutoutID int64) (map[string]any, error) {
	if _, err := s.requireShoutoutAccess(ctx, session, shoutoutID); err != nil {
		return nil, err
	}
	view, err := s.store.GetShoutoutView(ctx, shoutoutID, session.UserID)
	if err != nil {
		return nil, err
	}
	return shoutoutViewPayload(view), nil
}

// requireShoutoutAccess loads the shoutout and enforces the department read
// gate: the viewer's department must match at least one recipient.
func (s *Service) requireShoutoutAccess(ctx context.Context, session Session, shoutoutID int64) (store.Shoutout, error) {
	shoutout, err := s.store.GetShoutout(ctx, shoutoutID)
	if err != nil {
		return store.Shoutout{}, err
	}
	ok, err := s.store.HasDepartmentAccess(ctx, shoutoutID, session.Department)
	if err != nil {
		return store.Shoutout{}, err
	}
	if !ok {
		return store.Shoutout{}, domainError(http.StatusForbidden, "FORBIDDEN", "You don't have access to shoutouts outside your department", nil)
	}
	return shoutout, nil
}

func (s *Service) UpdateShoutout(ctx context.Context, session Session, shoutoutID int64, message string) (map[string]any, error) {
	shoutout, err := s.store.GetShoutout(ctx, shoutoutID)
	if err != nil {
		return nil, err
	}
	if shoutout.SenderID != session.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the sender can edit a shoutout", nil)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "message is required", nil)
	}
	if err := s.store.UpdateShoutoutMessage(ctx, shoutoutID, message); err != nil {
		return nil, err
	}
	view, err := s.store.GetShoutoutView(ctx, shoutoutID, session.UserID)
	if err != nil {
		return nil, err
	}
	return shoutoutViewPayload(view), nil
}

// DeleteShoutout removes a shoutout for its sender, or for an admin with a
// moderation log entry. All dependent rows cascade.
func (s *Service) DeleteShoutout(ctx context.Context, session Session, shoutoutID int64) error {
	shoutout, err := s.store.GetShoutout(ctx, shoutoutID)
	if err != nil {
		return err
	}
	if shoutout.SenderID == session.UserID {
		return s.store.DeleteShoutout(ctx, shoutoutID)
	}
	if s.Can(session.Role, access.ActionModerate) {
		return s.store.AdminDeleteShoutout(ctx, shoutoutID, session.UserID)
	}
	return domainError(http.StatusForbidden, "FORBIDDEN", "Only the sender or an admin can delete a shoutout", nil)
}

// AddReaction records a reaction. The created return distinguishes a first
// add from an idempotent repeat of the same (user, type) pair.
// AddReaction only requires the shoutout to exist: any active user may react,
// the department gate covers reads alone.
func (s *Service) AddReaction(ctx context.Context, session Session, shoutoutID int64, reactionType string) (created bool, err error) {
	if _, ok := allowedReactionTypes[reactionType]; !ok {
		return false, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "type must be one of like, clap, star", nil)
	}
	if _, err := s.store.GetShoutout(ctx, shoutoutID); err != nil {
		return false, err
	}
	return s.store.AddReaction(ctx, shoutoutID, session.UserID, reactionType)
}

func (s *Service) RemoveReaction(ctx context.Context, session Session, shoutoutID int64, reactionType string) error {
	if _, ok := allowedReactionTypes[reactionType]; !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "type must be one of like, clap, star", nil)
	}
	if _, err := s.store.GetShoutout(ctx, shoutoutID); err != nil {
		return err
	}
	removed, err := s.store.RemoveReaction(ctx, shoutoutID, session.UserID, reactionType)
	if err != nil {
		return err
	}
	if !removed {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Reaction not found", nil)
	}
	return nil
}

func (s *Service) ListReactions(ctx context.Context, session Session, shoutoutID int64, typeFilter string) (map[string]any, error) {
	if typeFilter != "" {
		if _, ok := allowedReactionTypes[typeFilter]; !ok {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "type must be one of like, clap, star", nil)
		}
	}
	if _, err := s.requireShoutoutAccess(ctx, session, shoutoutID); err != nil {
		return nil, err
	}

	summary, err := s.store.SummarizeReactions(ctx, shoutoutID, typeFilter)
	if err != nil {
		return nil, err
	}

	reactors := make(map[string]any, len(summary.Reactors))
	for reactionType, users := range summary.Reactors {
		items := make([]map[string]any, 0, len(users))
		for _, user := range users {
			items = append(items, userSummaryPayload(user))
		}
		reactors[reactionType] = items
	}
	return map[string]any{
		"counts":   summary.Counts,
		"reactors": reactors,
	}, nil
}

// CreateComment resolves mentions exactly once, at creation: an explicit id
// list wins, otherwise @[name](id) markup in the content is scanned. Unknown
// ids are dropped silently. Like reactions, commenting is open to any active
// user as long as the shoutout exists.
func (s *Service) CreateComment(ctx context.Context, session Session, shoutoutID int64, content string, explicitMentions []int64) (map[string]any, error) {
	if _, err := s.store.GetShoutout(ctx, shoutoutID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "content is required", nil)
	}

	mentionIDs := make([]int64, 0)
	for _, candidateID := range mention.CandidateIDs(explicitMentions, content) {
		if _, err := s.store.GetUserByID(ctx, candidateID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		mentionIDs = append(mentionIDs, candidateID)
	}

	commentID, err := s.store.CreateComment(ctx, shoutoutID, session.UserID, content, mentionIDs)
	if err != nil {
		return nil, err
	}
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return commentPayload(comment), nil
}

func (s *Service) ListComments(ctx context.Context, session Session, shoutoutID int64) (map[string]any, error) {
	if _, err := s.requireShoutoutAccess(ctx, session, shoutoutID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, shoutoutID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentPayload(comment))
	}
	return map[string]any{"comments": items}, nil
}

// UpdateComment edits the content only; mentions stay as resolved at creation.
func (s *Service) UpdateComment(ctx context.Context, session Session, commentID int64, content string) (map[string]any, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != session.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You can only edit your own comments", nil)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "content is required", nil)
	}
	if err := s.store.UpdateCommentContent(ctx, commentID, content); err != nil {
		return nil, err
	}
	updated, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return commentPayload(updated), nil
}

func (s *Service) DeleteComment(ctx context.Context, session Session, commentID int64) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != session.UserID && !s.Can(session.Role, access.ActionModerate) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the author or an admin can delete a comment", nil)
	}
	return s.store.DeleteComment(ctx, commentID)
}

func (s *Service) ReportShoutout(ctx context.Context, session Session, shoutoutID int64, reason string) (map[string]any, error) {
	if _, err := s.store.GetShoutout(ctx, shoutoutID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "reason is required", nil)
	}
	report, err := s.store.CreateReport(ctx, shoutoutID, session.UserID, reason)
	if err != nil {
		return nil, err
	}
	return reportPayload(report), nil
}

func (s *Service) AdminListReports(ctx context.Context, status string) (map[string]any, error) {
	if status != "" {
		if _, ok := allowedReportStatuses[status]; !ok {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "status must be one of pending, approved, rejected", nil)
		}
	}
	reports, err := s.store.ListReports(ctx, status)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(reports))
	for _, report := range reports {
		items = append(items, reportPayload(report))
	}
	return map[string]any{"reports": items}, nil
}

func (s *Service) AdminResolveReport(ctx context.Context, session Session, reportID int64, action string) (map[string]any, error) {
	if _, ok := allowedReportActions[action]; !ok {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "action must be approved or rejected", nil)
	}
	ok, err := s.store.ResolveReport(ctx, reportID, session.UserID, action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Report not found", nil)
	}
	return map[string]any{"message": fmt.Sprintf("Report %s", action)}, nil
}

func (s *Service) AdminDeleteShoutout(ctx context.Context, session Session, shoutoutID int64) error {
	if _, err := s.store.GetShoutout(ctx, shoutoutID); err != nil {
		return err
	}
	return s.store.AdminDeleteShoutout(ctx, shoutoutID, session.UserID)
}

func (s *Service) AdminAnalytics(ctx context.Context) (map[string]any, error) {
	totalUsers, totalShoutouts, err := s.store.SummaryCounts(ctx)
	if err != nil {
		return nil, err
	}
	topSenders, err := s.store.TopSenders(ctx, 10)
	if err != nil {
		return nil, err
	}
	topRecipients, err := s.store.TopRecipients(ctx, 10)
	if err != nil {
		return nil, err
	}
	departmentStats, err := s.store.DepartmentStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]map[string]any, 0, len(departmentStats))
	for _, stat := range departmentStats {
		stats = append(stats, map[string]any{
			"department":    stat.Department,
			"shoutoutCount": stat.Count,
		})
	}
	return map[string]any{
		"totalUsers":      totalUsers,
		"totalShoutouts":  totalShoutouts,
		"topSenders":      leaderboardPayload(topSenders),
		"topRecipients":   leaderboardPayload(topRecipients),
		"departmentStats": stats,
	}, nil
}

func (s *Service) Leaderboard(ctx context.Context) (map[string]any, error) {
	topSenders, err := s.store.TopSenders(ctx, 10)
	if err != nil {
		return nil, err
	}
	topRecipients, err := s.store.TopRecipients(ctx, 10)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"topSenders":    leaderboardPayload(topSenders),
		"topRecipients": leaderboardPayload(topRecipients),
	}, nil
}

func userPayload(user store.User) map[string]any {
	return map[string]any{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"department":      user.Department,
		"role":            user.Role,
		"isActive":        user.IsActive,
		"isEmailVerified": user.IsEmailVerified,
		"joinedAt":        user.JoinedAt,
	}
}

func userSummaryPayload(user store.UserSummary) map[string]any {
	return map[string]any{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"department": user.Department,
	}
}

func shoutoutViewPayload(view store.ShoutoutView) map[string]any {
	recipients := make([]map[string]any, 0, len(view.Recipients))
	for _, recipient := range view.Recipients {
		recipients = append(recipients, userSummaryPayload(recipient))
	}
	return map[string]any{
		"id":             view.ID,
		"message":        view.Message,
		"createdAt":      view.CreatedAt,
		"updatedAt":      view.UpdatedAt,
		"sender":         userSummaryPayload(view.Sender),
		"recipients":     recipients,
		"reactionCounts": view.ReactionCounts,
		"userReactions":  view.UserReactions,
		"commentCount":   view.CommentCount,
	}
}

func commentPayload(comment store.Comment) map[string]any {
	mentions := make([]map[string]any, 0, len(comment.Mentions))
	for _, mentioned := range comment.Mentions {
		mentions = append(mentions, userSummaryPayload(mentioned))
	}
	return map[string]any{
		"id":         comment.ID,
		"shoutoutId": comment.ShoutoutID,
		"content":    comment.Content,
		"createdAt":  comment.CreatedAt,
		"updatedAt":  comment.UpdatedAt,
		"author":     userSummaryPayload(comment.Author),
		"mentions":   mentions,
	}
}

func reportPayload(report store.Report) map[string]any {
	return map[string]any{
		"id":         report.ID,
		"shoutoutId": report.ShoutoutID,
		"reportedBy": report.ReportedBy,
		"reason":     report.Reason,
		"status":     report.Status,
		"createdAt":  report.CreatedAt,
	}
}

func leaderboardPayload(entries []store.LeaderboardEntry) []map[string]any {
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, map[string]any{
			"userId":     entry.UserID,
			"name":       entry.Name,
			"department": entry.Department,
			"count":      entry.Count,
		})
	}
	return items
}
