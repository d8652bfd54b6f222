package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kudos/api/internal/access"
	"kudos/api/internal/auth"
	"kudos/api/internal/authpw"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleAuthRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleAuthLogin(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  session.Token,
			"refreshToken": session.RefreshToken,
			"userId":       session.UserID,
			"userName":     session.UserName,
			"expiresAt":    session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/verify-email" {
		s.handleAuthVerifyEmail(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/resend-verification" {
		s.handleAuthResendVerification(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userId":        session.UserID,
			"userName":      session.UserName,
			"department":    session.Department,
			"role":          session.Role,
		})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.URL.Path == "/api/users/me" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.Profile(r.Context(), session)
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodPut:
			var body struct {
				Name       string `json:"name"`
				Department string `json:"department"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateProfile(r.Context(), session, body.Name, body.Department)
			s.respond(w, payload, err, http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users" {
		payload, err := s.service.ListUsers(r.Context(), r.URL.Query().Get("department"))
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/leaderboard" {
		payload, err := s.service.Leaderboard(r.Context())
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if r.URL.Path == "/api/shoutouts" {
		switch r.Method {
		case http.MethodGet:
			s.handleListShoutouts(w, r, session)
		case http.MethodPost:
			var body struct {
				Message      string  `json:"message"`
				RecipientIDs []int64 `json:"recipientIds"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateShoutout(r.Context(), session, body.Message, body.RecipientIDs)
			s.respond(w, payload, err, http.StatusCreated)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) == 0 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	parts = parts[1:]

	if len(parts) >= 1 && parts[0] == "admin" {
		s.routeAdmin(w, r, session, parts[1:])
		return
	}

	if len(parts) == 2 && parts[0] == "users" && r.Method == http.MethodGet {
		userID, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		payload, err := s.service.GetUser(r.Context(), userID)
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if len(parts) >= 2 && parts[0] == "shoutouts" {
		shoutoutID, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		s.routeShoutout(w, r, session, shoutoutID, parts[2:])
		return
	}

	if len(parts) == 2 && parts[0] == "comments" {
		commentID, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateComment(r.Context(), session, commentID, body.Content)
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodDelete:
			err := s.service.DeleteComment(r.Context(), session, commentID)
			s.respond(w, map[string]any{"message": "Comment deleted"}, err, http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) routeShoutout(w http.ResponseWriter, r *http.Request, session Session, shoutoutID int64, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetShoutout(r.Context(), session, shoutoutID)
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodPut:
			var body struct {
				Message string `json:"message"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateShoutout(r.Context(), session, shoutoutID, body.Message)
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodDelete:
			err := s.service.DeleteShoutout(r.Context(), session, shoutoutID)
			s.respond(w, map[string]any{"message": "Shoutout deleted"}, err, http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(rest) == 1 && rest[0] == "reactions" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListReactions(r.Context(), session, shoutoutID, r.URL.Query().Get("type"))
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodPost:
			var body struct {
				Type string `json:"type"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			created, err := s.service.AddReaction(r.Context(), session, shoutoutID, body.Type)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			if created {
				writeJSON(w, http.StatusCreated, map[string]any{"message": "Reaction added"})
			} else {
				writeJSON(w, http.StatusOK, map[string]any{"message": "Reaction already exists"})
			}
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(rest) == 2 && rest[0] == "reactions" && r.Method == http.MethodDelete {
		err := s.service.RemoveReaction(r.Context(), session, shoutoutID, rest[1])
		s.respond(w, map[string]any{"message": "Reaction removed"}, err, http.StatusOK)
		return
	}

	if len(rest) == 1 && rest[0] == "comments" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListComments(r.Context(), session, shoutoutID)
			s.respond(w, payload, err, http.StatusOK)
		case http.MethodPost:
			var body struct {
				Content  string  `json:"content"`
				Mentions []int64 `json:"mentions"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateComment(r.Context(), session, shoutoutID, body.Content, body.Mentions)
			s.respond(w, payload, err, http.StatusCreated)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(rest) == 1 && rest[0] == "report" && r.Method == http.MethodPost {
		var body struct {
			Reason string `json:"reason"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.ReportShoutout(r.Context(), session, shoutoutID, body.Reason)
		s.respond(w, payload, err, http.StatusCreated)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) routeAdmin(w http.ResponseWriter, r *http.Request, session Session, rest []string) {
	if !s.service.Can(session.Role, access.ActionModerate) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return
	}

	if len(rest) == 1 && rest[0] == "users" && r.Method == http.MethodGet {
		payload, err := s.service.AdminListUsers(r.Context())
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if len(rest) == 1 && rest[0] == "analytics" && r.Method == http.MethodGet {
		payload, err := s.service.AdminAnalytics(r.Context())
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if len(rest) == 1 && rest[0] == "reports" && r.Method == http.MethodGet {
		payload, err := s.service.AdminListReports(r.Context(), r.URL.Query().Get("status"))
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if len(rest) == 3 && rest[0] == "reports" && rest[2] == "resolve" && r.Method == http.MethodPost {
		reportID, ok := parseID(w, rest[1])
		if !ok {
			return
		}
		var body struct {
			Action string `json:"action"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.AdminResolveReport(r.Context(), session, reportID, body.Action)
		s.respond(w, payload, err, http.StatusOK)
		return
	}

	if len(rest) == 2 && rest[0] == "shoutouts" && r.Method == http.MethodDelete {
		shoutoutID, ok := parseID(w, rest[1])
		if !ok {
			return
		}
		err := s.service.AdminDeleteShoutout(r.Context(), session, shoutoutID)
		s.respond(w, map[string]any{"message": "Shoutout deleted"}, err, http.StatusOK)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleListShoutouts(w http.ResponseWriter, r *http.Request, session Session) {
	query := r.URL.Query()
	input := ShoutoutFilterInput{
		Department: strings.TrimSpace(query.Get("department")),
		StartDate:  strings.TrimSpace(query.Get("startDate")),
		EndDate:    strings.TrimSpace(query.Get("endDate")),
		Limit:      20,
	}

	if raw := strings.TrimSpace(query.Get("senderId")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "senderId must be an integer", nil)
			return
		}
		input.SenderID = parsed
	}
	if raw := strings.TrimSpace(query.Get("skip")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "skip must be an integer", nil)
			return
		}
		input.Skip = parsed
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		input.Limit = parsed
	}

	payload, err := s.service.ListShoutouts(r.Context(), session, input)
	s.respond(w, payload, err, http.StatusOK)
}

// respond writes either the mapped error or the payload with the given
// success status.
func (s *HTTPServer) respond(w http.ResponseWriter, payload any, err error, status int) {
	if err != nil {
		errStatus, code, message, details := mapError(err)
		writeError(w, errStatus, code, message, details)
		return
	}
	writeJSON(w, status, payload)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Department string `json:"department"`
		Role       string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := s.service.AuthPasswordService().Register(r.Context(), authpw.RegisterRequest{
		Name:       body.Name,
		Email:      body.Email,
		Password:   body.Password,
		Department: body.Department,
		Role:       body.Role,
	})
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	session, err := s.service.CreateSession(r.Context(), resp.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}

	response := map[string]any{
		"userId":       resp.UserID,
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt.Unix(),
		"message":      "Please check your email to verify your account",
	}
	if s.service.SMTPConfigured() {
		s.service.SendVerificationEmail(session.UserName, resp.Email, resp.VerificationToken)
	} else {
		// Dev bypass: surface the verification token when email is not configured
		response["devVerificationToken"] = resp.VerificationToken
		response["message"] = "Account created. Verify your email to continue."
	}

	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleAuthResendVerification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, user, _ := s.service.AuthPasswordService().ResendVerification(r.Context(), body.Email)

	response := map[string]any{
		"message": "If an unverified account exists, a verification email has been sent",
	}
	if token != "" {
		if s.service.SMTPConfigured() {
			s.service.SendVerificationEmail(user.Name, user.Email, token)
		} else {
			response["devVerificationToken"] = token
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	user, err := s.service.AuthPasswordService().SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, authpw.ErrAccountDeactivated) {
			writeError(w, http.StatusForbidden, "ACCOUNT_DEACTIVATED", "Account is deactivated", nil)
			return
		}
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	session, err := s.service.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"department":   session.Department,
		"role":         session.Role,
		"expiresAt":    session.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.AuthPasswordService().VerifyEmail(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, user, _ := s.service.AuthPasswordService().RequestPasswordReset(r.Context(), body.Email)

	response := map[string]any{
		"message": "If an account exists, a reset email has been sent",
	}
	if token != "" {
		if s.service.SMTPConfigured() {
			s.service.SendPasswordResetEmail(user.Name, user.Email, token)
		} else {
			// Dev bypass: surface the reset token when email is not configured
			response["devResetToken"] = token
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.AuthPasswordService().ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}
