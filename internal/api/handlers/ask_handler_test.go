package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/math-agent/backend/internal/router"
)

type mockRouter struct {
	answer router.Answer
	err    error
	calls  int
}

func (m *mockRouter) Route(ctx context.Context, question string, trace router.TraceFunc) (router.Answer, error) {
	m.calls++
	return m.answer, m.err
}

func newAskApp(r Router) *fiber.App {
	app := fiber.New()
	app.Post("/api/ask", NewAskHandler(r).HandleAsk)
	return app
}

func postJSON(app *fiber.App, path, body string) (int, map[string]interface{}, error) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}

func TestHandleAsk(t *testing.T) {
	rt := &mockRouter{answer: router.Answer{Source: "computed", Text: "4"}}
	app := newAskApp(rt)

	status, payload, err := postJSON(app, "/api/ask", `{"question":"2+2"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if payload["answer"] != "4" || payload["source"] != "computed" {
		t.Errorf("payload = %v", payload)
	}
}

func TestHandleAskRequiresQuestion(t *testing.T) {
	rt := &mockRouter{}
	app := newAskApp(rt)

	status, _, err := postJSON(app, "/api/ask", `{"question":""}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if rt.calls != 0 {
		t.Errorf("router called %d times on empty question, want 0", rt.calls)
	}
}

func TestHandleAskRetrievalFailure(t *testing.T) {
	rt := &mockRouter{err: errors.New("retrieval failed: kb down")}
	app := newAskApp(rt)

	status, _, err := postJSON(app, "/api/ask", `{"question":"q"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
}

// Fallback answers are served with 200; they are answers, not failures.
func TestHandleAskFallbackIsOK(t *testing.T) {
	rt := &mockRouter{answer: router.Answer{Source: "fallback", Text: "no backend"}}
	app := newAskApp(rt)

	status, payload, err := postJSON(app, "/api/ask", `{"question":"q"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if payload["source"] != "fallback" {
		t.Errorf("source = %v, want fallback", payload["source"])
	}
}
