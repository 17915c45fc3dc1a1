// Package api exposes the parser and registries over a small REST surface.
// The external tables are one shared mutable resource, so a single mutex
// serializes every mutating request: at most one writer at a time, matching
// the single-threaded execution model the pipeline assumes.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redcreates/qms/internal/adminlog"
	"github.com/redcreates/qms/internal/classifier"
	"github.com/redcreates/qms/internal/domain"
	"github.com/redcreates/qms/internal/imagelib"
	"github.com/redcreates/qms/internal/parse"
	"github.com/redcreates/qms/internal/qbank"
)

// Server handles HTTP requests for the QMS pipeline.
type Server struct {
	parser *parse.Parser
	bank   *qbank.Bank
	images *imagelib.Library
	alog   *adminlog.Log
	clf    *classifier.Classifier
	addr   string
	log    *slog.Logger

	mu sync.Mutex // guards every parse-and-write sequence
}

// New creates an API server over the shared repositories.
func New(parser *parse.Parser, bank *qbank.Bank, images *imagelib.Library, alog *adminlog.Log, clf *classifier.Classifier, addr string, log *slog.Logger) *Server {
	return &Server{parser: parser, bank: bank, images: images, alog: alog, clf: clf, addr: addr, log: log}
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	e := s.Routes()
	s.log.Info("starting server", "addr", s.addr)
	return e.Start(s.addr)
}

// Routes builds the echo instance with all routes registered.
func (s *Server) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	v1 := e.Group("/v1")
	v1.GET("/health", s.health)
	v1.POST("/parse", s.parseTranscript)
	v1.POST("/images", s.registerImage)
	v1.GET("/questions", s.listQuestions)
	v1.GET("/questions/:id", s.getQuestion)
	v1.PUT("/questions/:id", s.editQuestion)
	v1.POST("/questions/:id/remove", s.statusAction(domain.ActionRemove, domain.StatusRemoved))
	v1.POST("/questions/:id/restore", s.statusAction(domain.ActionRestore, domain.StatusRestored))
	v1.POST("/questions/:id/override", s.overrideTopic)
	v1.GET("/stats", s.stats)

	return e
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ParseRequest is the request body for a parse run.
type ParseRequest struct {
	Transcript string `json:"transcript"`
}

func (s *Server) parseTranscript(c echo.Context) error {
	var req ParseRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return errorJSON(c, http.StatusBadRequest, "transcript is required")
	}

	s.mu.Lock()
	summary, err := s.parser.Run(req.Transcript, s.bank, s.images)
	s.mu.Unlock()

	if err != nil {
		// The abort itself is logged before it is surfaced.
		s.alog.Append(domain.ActionError, domain.SubjectSystem, "Parsing error: "+err.Error())
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	s.alog.Append(domain.ActionParse, domain.SubjectSystem, summary.String())
	return c.JSON(http.StatusOK, summary)
}

// RegisterImageRequest is the request body for an image registration.
type RegisterImageRequest struct {
	URL        string `json:"url"`
	QuestionID string `json:"question_id"`
}

func (s *Server) registerImage(c echo.Context) error {
	var req RegisterImageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" || req.QuestionID == "" {
		return errorJSON(c, http.StatusBadRequest, "url and question_id are required")
	}

	s.mu.Lock()
	err := s.images.Register(req.URL, req.QuestionID)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, qbank.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "registered"})
}

func (s *Server) listQuestions(c echo.Context) error {
	var (
		questions []domain.Question
		err       error
	)
	if c.QueryParam("pending") == "true" {
		questions, err = s.bank.Pending()
	} else {
		questions, err = s.bank.List()
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"questions": questions, "count": len(questions)})
}

func (s *Server) getQuestion(c echo.Context) error {
	q, err := s.bank.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, qbank.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

// EditRequest is the request body for a question edit.
type EditRequest struct {
	Text string `json:"text"`
}

func (s *Server) editQuestion(c echo.Context) error {
	var req EditRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, http.StatusBadRequest, "text is required")
	}

	id := c.Param("id")

	s.mu.Lock()
	q, err := s.bank.Update(id, func(q *domain.Question) {
		q.Text = req.Text
		if !strings.HasSuffix(q.Text, "?") {
			q.Text += "?"
		}
		topic := s.clf.Topic(q.Text)
		qtype := s.clf.Type(q.Text)
		q.Topic, q.TopicEmoji = topic.Name, topic.Emoji
		q.Type, q.TypeEmoji = qtype.Name, qtype.Emoji
		q.IsEdited = true
	})
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, qbank.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	s.alog.Append(domain.ActionEdit, id, "Question text replaced")
	return c.JSON(http.StatusOK, q)
}

// OverrideRequest is the request body for a manual topic override.
type OverrideRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) overrideTopic(c echo.Context) error {
	var req OverrideRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	topic, ok := s.clf.LookupTopic(req.Topic)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "unknown topic: "+req.Topic)
	}

	id := c.Param("id")

	s.mu.Lock()
	q, err := s.bank.Update(id, func(q *domain.Question) {
		q.Topic, q.TopicEmoji = topic.Name, topic.Emoji
		q.Confidence = "100%"
		q.NeedsReview = false
	})
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, qbank.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	s.alog.Append(domain.ActionOverride, id, "Topic set to "+topic.Name)
	return c.JSON(http.StatusOK, q)
}

func (s *Server) statusAction(kind domain.ActionKind, status domain.Status) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		s.mu.Lock()
		q, err := s.bank.Update(id, func(q *domain.Question) {
			q.Status = status
		})
		s.mu.Unlock()

		if err != nil {
			if errors.Is(err, qbank.ErrNotFound) {
				return errorJSON(c, http.StatusNotFound, err.Error())
			}
			return errorJSON(c, http.StatusInternalServerError, err.Error())
		}

		s.alog.Append(kind, id, "Status set to "+string(status))
		return c.JSON(http.StatusOK, q)
	}
}

func (s *Server) stats(c echo.Context) error {
	snap, err := s.alog.Rollup()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"rollup":    snap,
		"dashboard": adminlog.DashboardLines(snap),
	})
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
