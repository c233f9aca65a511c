// Package artserver serves a directory of art and card images over HTTP with
// the HEAD/GET/PUT contract the HTTP storage backend speaks.
//
// Reads are public. Writes require the shared secret in the X-Upload-Secret
// header when one is configured, and land atomically.
package artserver

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cardcap/internal/fileutil"
	"cardcap/internal/logging"
	"cardcap/internal/storage"
)

// MaxUploadBytes caps a single PUT body.
const MaxUploadBytes = 64 << 20

// Server is the image server.
type Server struct {
	root   string
	secret string
	logger *slog.Logger
}

// New returns a server rooted at root.
func New(root, secret string, logger *slog.Logger) (*Server, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("artserver: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Server{
		root:   root,
		secret: secret,
		logger: logging.NewComponentLogger(logger, "artserver"),
	}, nil
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/*key", s.serveFile)
	r.HEAD("/*key", s.serveFile)
	r.PUT("/*key", s.requireSecret(), s.putFile)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(storage.SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.logger.Warn("upload rejected",
				logging.String(logging.FieldEventType, "upload_forbidden"),
				logging.String("path", c.Request.URL.Path),
				logging.String("remote", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid upload secret"})
			return
		}
		c.Next()
	}
}

func (s *Server) resolve(c *gin.Context) (string, string, bool) {
	key, err := fileutil.CleanKey(c.Param("key"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	path, err := fileutil.ResolveKey(s.root, key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return key, path, true
}

func (s *Server) serveFile(c *gin.Context) {
	_, path, ok := s.resolve(c)
	if !ok {
		return
	}
	file, err := os.Open(path)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

func (s *Server) putFile(c *gin.Context) {
	key, path, ok := s.resolve(c)
	if !ok {
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		logging.ErrorWithContext(s.logger, "store upload failed", "upload_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the server root is writable"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	s.logger.Info("stored upload", logging.String("key", key), logging.Int("bytes", len(data)))
	c.Status(http.StatusCreated)
}
