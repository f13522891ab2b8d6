package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/math-agent/backend/internal/storage/models"
)

type mockTrainer struct {
	ratingCalls int
	trainCalls  int
	trainErr    error
	lastCorr    string
	history     []models.Feedback
}

func (m *mockTrainer) RecordRating(question, answer string, helpful bool, comment string) (int64, error) {
	m.ratingCalls++
	return 7, nil
}

func (m *mockTrainer) Train(ctx context.Context, question, correctedAnswer, comment string) (int64, error) {
	m.trainCalls++
	m.lastCorr = correctedAnswer
	return 9, m.trainErr
}

func (m *mockTrainer) History() ([]models.Feedback, error) {
	return m.history, nil
}

func newFeedbackApp(tr Trainer) *fiber.App {
	h := NewFeedbackHandler(tr)
	app := fiber.New()
	app.Post("/api/feedback", h.HandleFeedback)
	app.Get("/api/feedback/all", h.HandleListFeedback)
	app.Post("/api/feedback/train", h.HandleTrain)
	return app
}

func TestHandleFeedback(t *testing.T) {
	tr := &mockTrainer{}
	app := newFeedbackApp(tr)

	status, payload, err := postJSON(app, "/api/feedback", `{"question":"2+2","answer":"4","helpful":true}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if payload["status"] != "recorded" || tr.ratingCalls != 1 {
		t.Errorf("payload = %v, rating calls = %d", payload, tr.ratingCalls)
	}
}

// helpful must be present, not defaulted: a missing flag is a client bug.
func TestHandleFeedbackRequiresHelpful(t *testing.T) {
	tr := &mockTrainer{}
	app := newFeedbackApp(tr)

	status, _, err := postJSON(app, "/api/feedback", `{"question":"2+2"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if tr.ratingCalls != 0 {
		t.Errorf("rating calls = %d, want 0", tr.ratingCalls)
	}
}

func TestHandleTrain(t *testing.T) {
	tr := &mockTrainer{}
	app := newFeedbackApp(tr)

	status, payload, err := postJSON(app, "/api/feedback/train", `{"question":"2+2","corrected_answer":"2 + 2 = 4"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if payload["status"] != "trained" || tr.lastCorr != "2 + 2 = 4" {
		t.Errorf("payload = %v, corrected = %q", payload, tr.lastCorr)
	}
}

func TestHandleTrainRequiresCorrection(t *testing.T) {
	tr := &mockTrainer{}
	app := newFeedbackApp(tr)

	status, _, err := postJSON(app, "/api/feedback/train", `{"question":"2+2"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if tr.trainCalls != 0 {
		t.Errorf("train calls = %d, want 0", tr.trainCalls)
	}
}

func TestHandleTrainFailure(t *testing.T) {
	tr := &mockTrainer{trainErr: errors.New("kb down")}
	app := newFeedbackApp(tr)

	status, _, err := postJSON(app, "/api/feedback/train", `{"question":"q","corrected_answer":"a"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
}

func TestHandleListFeedback(t *testing.T) {
	tr := &mockTrainer{history: []models.Feedback{{ID: 2}, {ID: 1}}}
	app := newFeedbackApp(tr)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feedback/all", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
