package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/pkg/response"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Runner is the message pipeline behind the HTTP surface.
type Runner interface {
	Handle(ctx context.Context, req workflow.Request) (*workflow.Response, error)
}

// SpeechCorrector cleans speech-to-text transcripts.
type SpeechCorrector interface {
	Correct(ctx context.Context, transcript string) string
}

// RunRequest is the inbound body for /agent/run and /web-chat. The WhatsApp
// relay sends phone + text + media storage paths; the web client sends
// user_id directly.
type RunRequest struct {
	UserID string   `json:"user_id"`
	Phone  string   `json:"phone"`
	Text   string   `json:"text"`
	Media  []string `json:"media"`
}

// Handlers serves the assistant endpoints.
type Handlers struct {
	Runner Runner
	Speech SpeechCorrector
}

func (h *Handlers) parse(c *fiber.Ctx) (*RunRequest, error) {
	var req RunRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Media) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "text or media required")
	}
	return &req, nil
}

// Run executes one message synchronously and returns the full result.
func (h *Handlers) Run(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return response.Error(c, "Geçersiz istek gövdesi.", fiber.StatusBadRequest, nil)
	}

	res, err := h.Runner.Handle(c.Context(), workflow.Request{
		UserID:     req.UserID,
		Phone:      req.Phone,
		Text:       req.Text,
		MediaPaths: req.Media,
	})
	if err != nil {
		log.Error().Err(err).Msg("agent run failed")
		return response.Error(c, "Şu anda isteğinizi işleyemedim, lütfen tekrar deneyin.", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "ok", res, nil)
}

// WebChat streams the result as server-sent events so the web client can
// show a typing indicator while the pipeline runs.
func (h *Handlers) WebChat(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return response.Error(c, "Geçersiz istek gövdesi.", fiber.StatusBadRequest, nil)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	wfReq := workflow.Request{
		UserID:     req.UserID,
		Phone:      req.Phone,
		Text:       req.Text,
		MediaPaths: req.Media,
	}
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		writeEvent(w, "status", map[string]string{"state": "processing"})

		res, err := h.Runner.Handle(context.Background(), wfReq)
		if err != nil {
			log.Error().Err(err).Msg("web chat run failed")
			writeEvent(w, "error", map[string]string{"message": "Şu anda isteğinizi işleyemedim, lütfen tekrar deneyin."})
			return
		}
		writeEvent(w, "message", res)
		writeEvent(w, "done", map[string]string{})
	})
	return nil
}

func writeEvent(w *bufio.Writer, event string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	w.WriteString("event: " + event + "\n")
	w.WriteString("data: " + string(b) + "\n\n")
	w.Flush()
}

// CorrectSpeechRequest is the /correct-speech body.
type CorrectSpeechRequest struct {
	Text string `json:"text"`
}

// CorrectSpeech cleans a speech-to-text transcript.
func (h *Handlers) CorrectSpeech(c *fiber.Ctx) error {
	var req CorrectSpeechRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return response.Error(c, "Geçersiz istek gövdesi.", fiber.StatusBadRequest, nil)
	}
	corrected := h.Speech.Correct(c.Context(), req.Text)
	return response.Success(c, "ok", fiber.Map{"corrected": corrected}, nil)
}
