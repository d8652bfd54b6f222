package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kudos/api/internal/auth"
	"kudos/api/internal/store"
)

func issueTestToken(t *testing.T, user store.User) string {
	t.Helper()
	token, err := auth.IssueToken([]byte("test-secret"), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		JTI:  "jti-test",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func authedRequest(t *testing.T, method, target string, body string, user store.User) *http.Request {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, user))
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	return payload
}

func TestCreateShoutoutReturnsCreated(t *testing.T) {
	sender := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	recipient := store.User{ID: 2, Name: "Blair", Department: "engineering", Role: "employee", IsActive: true}

	fs := &fakeStore{
		getUserByIDFn: usersByID(sender, recipient),
		createShoutoutFn: func(context.Context, int64, string, []int64) (int64, error) {
			return 7, nil
		},
		getShoutoutViewFn: func(_ context.Context, shoutoutID, viewerID int64) (store.ShoutoutView, error) {
			return store.ShoutoutView{
				Shoutout:       store.Shoutout{ID: shoutoutID, SenderID: 1, Message: "great work"},
				Sender:         store.UserSummary{ID: 1, Name: "Avery", Department: "engineering"},
				Recipients:     []store.UserSummary{{ID: 2, Name: "Blair", Department: "engineering"}},
				ReactionCounts: map[string]int{"like": 0, "clap": 0, "star": 0},
				UserReactions:  []string{},
			}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	req := authedRequest(t, http.MethodPost, "/api/shoutouts", `{"message":"great work","recipientIds":[2]}`, sender)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["message"] != "great work" {
		t.Fatalf("expected message in payload, got %v", payload["message"])
	}
	counts, ok := payload["reactionCounts"].(map[string]any)
	if !ok {
		t.Fatalf("expected reactionCounts object, got %v", payload["reactionCounts"])
	}
	for _, reactionType := range []string{"like", "clap", "star"} {
		if counts[reactionType] != float64(0) {
			t.Fatalf("expected zero %s count, got %v", reactionType, counts[reactionType])
		}
	}
}

func TestGetShoutoutOutsideDepartmentReturnsForbidden(t *testing.T) {
	viewer := store.User{ID: 4, Name: "Drew", Department: "sales", Role: "employee", IsActive: true}

	fs := &fakeStore{
		getUserByIDFn: usersByID(viewer),
		getShoutoutFn: func(_ context.Context, shoutoutID int64) (store.Shoutout, error) {
			return store.Shoutout{ID: shoutoutID, SenderID: 1}, nil
		},
		hasDepartmentAccessFn: func(_ context.Context, _ int64, dept string) (bool, error) {
			return dept == "engineering", nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	req := authedRequest(t, http.MethodGet, "/api/shoutouts/5", "", viewer)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodeResponse(t, rr)["code"] != "FORBIDDEN" {
		t.Fatalf("expected code FORBIDDEN")
	}
}

func TestAddReactionIdempotent(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	added := map[string]bool{}

	fs := &fakeStore{
		getUserByIDFn: usersByID(viewer),
		getShoutoutFn: func(_ context.Context, shoutoutID int64) (store.Shoutout, error) {
			return store.Shoutout{ID: shoutoutID}, nil
		},
		hasDepartmentAccessFn: func(context.Context, int64, string) (bool, error) { return true, nil },
		addReactionFn: func(_ context.Context, _ int64, _ int64, reactionType string) (bool, error) {
			if added[reactionType] {
				return false, nil
			}
			added[reactionType] = true
			return true, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	first := httptest.NewRecorder()
	server.Handler().ServeHTTP(first, authedRequest(t, http.MethodPost, "/api/shoutouts/5/reactions", `{"type":"clap"}`, viewer))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first add, got %d body=%s", first.Code, first.Body.String())
	}

	second := httptest.NewRecorder()
	server.Handler().ServeHTTP(second, authedRequest(t, http.MethodPost, "/api/shoutouts/5/reactions", `{"type":"clap"}`, viewer))
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate add, got %d body=%s", second.Code, second.Body.String())
	}
	if decodeResponse(t, second)["message"] != "Reaction already exists" {
		t.Fatalf("expected duplicate message, got %s", second.Body.String())
	}
}

func TestRemoveMissingReactionReturnsNotFound(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}

	fs := &fakeStore{
		getUserByIDFn: usersByID(viewer),
		getShoutoutFn: func(_ context.Context, shoutoutID int64) (store.Shoutout, error) {
			return store.Shoutout{ID: shoutoutID}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodDelete, "/api/shoutouts/5/reactions/star", "", viewer))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestInvalidReactionTypeReturnsValidationError(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}

	fs := &fakeStore{getUserByIDFn: usersByID(viewer)}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/shoutouts/5/reactions", `{"type":"fire"}`, viewer))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodeResponse(t, rr)["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR code")
	}
}

func TestListShoutoutsPassesFilters(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	var gotFilter store.ShoutoutFilter
	var gotDept string

	fs := &fakeStore{
		getUserByIDFn: usersByID(viewer),
		listShoutoutViewsFn: func(_ context.Context, _ int64, viewerDept string, filter store.ShoutoutFilter) ([]store.ShoutoutView, error) {
			gotDept = viewerDept
			gotFilter = filter
			return nil, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	target := "/api/shoutouts?senderId=3&startDate=2026-01-01&endDate=2026-01-31&skip=10&limit=5"
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodGet, target, "", viewer))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if gotDept != "engineering" {
		t.Fatalf("expected viewer department engineering, got %q", gotDept)
	}
	if gotFilter.SenderID != 3 || gotFilter.StartDate != "2026-01-01" || gotFilter.EndDate != "2026-01-31" || gotFilter.Skip != 10 || gotFilter.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", gotFilter)
	}
}

func TestListShoutoutsBadDateReturnsValidationError(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	fs := &fakeStore{getUserByIDFn: usersByID(viewer)}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/shoutouts?startDate=01-02-2026", "", viewer))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesForbiddenForEmployees(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	fs := &fakeStore{getUserByIDFn: usersByID(viewer)}
	server := NewHTTPServer(newTestService(fs), "*")

	for _, target := range []string{"/api/admin/reports", "/api/admin/analytics", "/api/admin/users"} {
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodGet, target, "", viewer))
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for %s, got %d", target, rr.Code)
		}
	}
}

func TestAdminAnalyticsReturnsAggregates(t *testing.T) {
	admin := store.User{ID: 8, Name: "Harper", Department: "hr", Role: "admin", IsActive: true}
	fs := &fakeStore{
		getUserByIDFn: usersByID(admin),
		summaryCountsFn: func(context.Context) (int, int, error) {
			return 12, 34, nil
		},
		topSendersFn: func(_ context.Context, limit int) ([]store.LeaderboardEntry, error) {
			if limit != 10 {
				t.Errorf("expected top senders limit 10, got %d", limit)
			}
			return []store.LeaderboardEntry{{UserID: 1, Name: "Avery", Department: "engineering", Count: 9}}, nil
		},
		topRecipientsFn: func(context.Context, int) ([]store.LeaderboardEntry, error) {
			return []store.LeaderboardEntry{{UserID: 2, Name: "Blair", Department: "engineering", Count: 5}}, nil
		},
		departmentStatsFn: func(context.Context) ([]store.DepartmentStat, error) {
			return []store.DepartmentStat{{Department: "engineering", Count: 30}}, nil
		},
	}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/admin/analytics", "", admin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["totalUsers"] != float64(12) || payload["totalShoutouts"] != float64(34) {
		t.Fatalf("unexpected totals: %v", payload)
	}
}

func TestCommentCreateRequiresContent(t *testing.T) {
	viewer := store.User{ID: 1, Name: "Avery", Department: "engineering", Role: "employee", IsActive: true}
	fs := &fakeStore{
		getUserByIDFn: usersByID(viewer),
		getShoutoutFn: func(_ context.Context, shoutoutID int64) (store.Shoutout, error) {
			return store.Shoutout{ID: shoutoutID}, nil
		},
		hasDepartmentAccessFn: func(context.Context, int64, string) (bool, error) { return true, nil },
	}
	server := NewHTTPServer(newTestService(fs), "*")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/shoutouts/5/comments", `{"content":"   "}`, viewer))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
