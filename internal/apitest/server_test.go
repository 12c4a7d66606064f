package apitest

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, req)
	return w
}

func TestHealthIsPublic(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	w := serve(s, httptest.NewRequest(http.MethodGet, Prefix+"/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if s.Hits("health") != 1 {
		t.Errorf("expected 1 health hit, got %d", s.Hits("health"))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/list"},
		{http.MethodPost, "/upload"},
		{http.MethodGet, "/download/a.txt"},
		{http.MethodDelete, "/delete/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, Prefix+tt.path, nil)
			req.Header.Set(authHeader, "wrong")

			w := serve(s, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestUploadStoresFile(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write([]byte("hello"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, Prefix+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(authHeader, "secret")

	w := serve(s, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	f, ok := s.File("notes.txt")
	if !ok {
		t.Fatal("expected notes.txt to be stored")
	}
	if string(f.Data) != "hello" {
		t.Errorf("unexpected data: %q", f.Data)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	req := httptest.NewRequest(http.MethodPost, Prefix+"/upload", nil)
	req.Header.Set(authHeader, "secret")

	if w := serve(s, req); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestListIsSortedByName(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()
	s.PutFile("b.txt", []byte("bb"), time.Unix(200, 0))
	s.PutFile("a.txt", []byte("a"), time.Unix(100, 0))

	req := httptest.NewRequest(http.MethodGet, Prefix+"/list", nil)
	req.Header.Set(authHeader, "secret")
	w := serve(s, req)

	var resp struct {
		Files []struct {
			Name     string `json:"name"`
			Size     int64  `json:"size"`
			Modified int64  `json:"modified"`
		} `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Files))
	}
	if resp.Files[0].Name != "a.txt" || resp.Files[0].Size != 1 || resp.Files[0].Modified != 100 {
		t.Errorf("unexpected first entry: %+v", resp.Files[0])
	}
}

func TestDeleteMissingFile(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	req := httptest.NewRequest(http.MethodDelete, Prefix+"/delete/missing.txt", nil)
	req.Header.Set(authHeader, "secret")

	if w := serve(s, req); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestFailWithOverridesAndClears(t *testing.T) {
	s := NewServer("secret")
	defer s.Close()

	s.FailWith("health", http.StatusServiceUnavailable)
	if w := serve(s, httptest.NewRequest(http.MethodGet, Prefix+"/health", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	s.FailWith("health", 0)
	if w := serve(s, httptest.NewRequest(http.MethodGet, Prefix+"/health", nil)); w.Code != http.StatusOK {
		t.Errorf("expected status 200 after clearing, got %d", w.Code)
	}
	if s.Hits("health") != 2 {
		t.Errorf("expected 2 hits, got %d", s.Hits("health"))
	}
}
