// Package apitest provides an in-memory stand-in for the remote file API so
// client code can be exercised end to end.
package apitest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// Prefix is the path the API is mounted under.
	Prefix = "/android"

	authHeader = "X-Auth-Token"
)

// StoredFile is a file held by the fake server.
type StoredFile struct {
	Name        string
	Data        []byte
	ContentType string
	Modified    time.Time
}

// Server represents the fake file API
type Server struct {
	Token string

	router *gin.Engine
	srv    *httptest.Server

	mu        sync.Mutex
	files     map[string]StoredFile
	overrides map[string]int
	hits      map[string]int
}

// NewServer creates and starts a fake API that accepts token.
func NewServer(token string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		Token:     token,
		router:    gin.New(),
		files:     make(map[string]StoredFile),
		overrides: make(map[string]int),
		hits:      make(map[string]int),
	}
	s.router.Use(gin.Recovery())

	api := s.router.Group(Prefix)
	api.GET("/health", s.track("health"), s.health)

	authed := api.Group("", s.requireToken)
	authed.POST("/upload", s.track("upload"), s.upload)
	authed.GET("/list", s.track("list"), s.list)
	authed.GET("/download/:name", s.track("download"), s.download)
	authed.DELETE("/delete/:name", s.track("delete"), s.remove)

	s.srv = httptest.NewServer(s.router)
	return s
}

// URL returns the base URL clients should be configured with.
func (s *Server) URL() string {
	return s.srv.URL + Prefix
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// GetRouter returns the underlying gin router
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// PutFile stores a file as if it had been uploaded.
func (s *Server) PutFile(name string, data []byte, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = StoredFile{Name: name, Data: data, Modified: modified}
}

// File returns a stored file.
func (s *Server) File(name string) (StoredFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[name]
	return f, ok
}

// FileCount returns the number of stored files.
func (s *Server) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// FailWith makes every later call to endpoint ("health", "upload", "list",
// "download", "delete") answer with status. A zero status clears it.
func (s *Server) FailWith(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.overrides, endpoint)
		return
	}
	s.overrides[endpoint] = status
}

// Hits returns how many requests reached endpoint.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

func (s *Server) track(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.hits[endpoint]++
		status, forced := s.overrides[endpoint]
		s.mu.Unlock()

		if forced {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader(authHeader) != s.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing authentication token"})
		return
	}
	c.Next()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty filename"})
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

	s.mu.Lock()
	s.files[fh.Filename] = StoredFile{
		Name:        fh.Filename,
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Modified:    time.Now(),
	}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"message":    "File uploaded successfully",
		"filename":   fh.Filename,
		"size_bytes": len(data),
	})
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	files := make([]gin.H, 0, len(s.files))
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := s.files[name]
		files = append(files, gin.H{
			"name":     f.Name,
			"size":     len(f.Data),
			"modified": f.Modified.Unix(),
		})
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) download(c *gin.Context) {
	f, ok := s.File(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", f.Data)
}

func (s *Server) remove(c *gin.Context) {
	name := c.Param("name")

	s.mu.Lock()
	_, ok := s.files[name]
	delete(s.files, name)
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully", "filename": name})
}
