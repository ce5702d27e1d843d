// Package fakeserver is an in-memory stand-in for the transcription server.
// It speaks the same three endpoints the client uses and is served by
// cmd/voicebox-fake for local development and by httptest in package tests.
package fakeserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// TimestampLayout is the server's record timestamp format.
const TimestampLayout = "20060102_150405"

// Record is a stored transcription.
type Record struct {
	ID            int    `json:"id"`
	Filename      string `json:"filename"`
	Transcription string `json:"transcription"`
	Timestamp     string `json:"timestamp"`
}

// Upload is what a Transcriber receives for one request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Transcriber turns uploaded audio into text. A returned error becomes a
// 500 response carrying the error text.
type Transcriber func(Upload) (string, error)

// Option configures a Server.
type Option func(*Server)

// WithTranscriber replaces the default transcriber.
func WithTranscriber(fn Transcriber) Option {
	return func(s *Server) { s.transcribe = fn }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger logs every request through log.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) { s.log = log.WithComponent("fakeserver") }
}

// WithRecords seeds the store.
func WithRecords(recs ...Record) Option {
	return func(s *Server) { s.records = append(s.records, recs...) }
}

// Server holds transcriptions in memory, oldest first.
type Server struct {
	mu         sync.Mutex
	records    []Record
	uploads    int
	transcribe Transcriber
	now        func() time.Time
	log        *logger.Logger
}

// New returns an empty Server.
func New(opts ...Option) *Server {
	s := &Server{
		transcribe: EchoTranscriber,
		now:        time.Now,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EchoTranscriber describes the upload instead of transcribing it.
func EchoTranscriber(u Upload) (string, error) {
	return fmt.Sprintf("Received %d bytes of %s from %s.", len(u.Data), u.ContentType, u.Filename), nil
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	api.POST("/upload", s.handleUpload)
	api.GET("/transcriptions", s.handleList)
	api.GET("/transcriptions/:id", s.handleGet)
	return r
}

// Records returns a copy of the stored records, oldest first.
func (s *Server) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Uploads returns how many upload requests reached the handler.
func (s *Server) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *Server) handleUpload(c *gin.Context) {
	s.mu.Lock()
	s.uploads++
	s.mu.Unlock()

	fh, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ts := s.now().Format(TimestampLayout)
	text, err := s.transcribe(Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	rec := Record{
		ID:            len(s.records) + 1,
		Filename:      "recording_" + ts + ".webm",
		Transcription: text,
		Timestamp:     ts,
	}
	s.records = append(s.records, rec)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"transcription": rec.Transcription,
		"id":            rec.ID,
		"timestamp":     rec.Timestamp,
	})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transcriptions": s.Records()})
}

func (s *Server) handleGet(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transcription not found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			c.JSON(http.StatusOK, rec)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Transcription not found"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		switch {
		case c.Writer.Status() >= 500:
			s.log.Error("request", fields)
		case c.Writer.Status() >= 400:
			s.log.Warn("request", fields)
		default:
			s.log.Info("request", fields)
		}
	}
}
