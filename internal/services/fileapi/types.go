package fileapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	EndpointHealth   = "/health"
	EndpointUpload   = "/upload"
	EndpointList     = "/list"
	EndpointDownload = "/download/"
	EndpointDelete   = "/delete/"
)

// Request describes a single call against the file API.
type Request struct {
	Endpoint string
	Method   string
	Header   http.Header
	// Form is sent URL-encoded when no FilePath is set.
	Form url.Values
	// FilePath, when set, is sent as a multipart "file" part.
	FilePath string
}

// Response captures the outcome of a Request. StatusCode is zero exactly when
// TransportErr is set.
type Response struct {
	StatusCode   int
	Raw          []byte
	Data         any
	TransportErr error
}

// Body returns the raw response body as text.
func (r *Response) Body() string {
	return string(r.Raw)
}

// Expect returns nil when the response carries the expected status code,
// the transport error when there was no response, and a *StatusError otherwise.
func (r *Response) Expect(endpoint string, code int) error {
	if r.TransportErr != nil {
		return r.TransportErr
	}
	if r.StatusCode != code {
		return &StatusError{
			Endpoint: endpoint,
			Expected: code,
			Actual:   r.StatusCode,
			Body:     r.Body(),
		}
	}
	return nil
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// PrettyJSON renders the parsed body indented, or "null" when the body was not JSON.
func (r *Response) PrettyJSON() string {
	out, err := json.MarshalIndent(r.Data, "", "    ")
	if err != nil {
		return r.Body()
	}
	return string(out)
}

// FileMetadata represents one stored file as returned by /list
type FileMetadata struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// ModifiedTime returns Modified as a local time.Time.
func (f FileMetadata) ModifiedTime() time.Time {
	return time.Unix(f.Modified, 0)
}

// isoLayouts are the timestamp shapes the server has been seen to emit.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON accepts both {name,size,modified:unix} and the server's
// {filename,size_bytes,modified:iso8601} shape.
func (f *FileMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string          `json:"name"`
		Filename  string          `json:"filename"`
		Size      *int64          `json:"size"`
		SizeBytes *int64          `json:"size_bytes"`
		Modified  json.RawMessage `json:"modified"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Name
	if f.Name == "" {
		f.Name = raw.Filename
	}

	f.Size = 0
	switch {
	case raw.Size != nil:
		f.Size = *raw.Size
	case raw.SizeBytes != nil:
		f.Size = *raw.SizeBytes
	}

	modified, err := parseModified(raw.Modified)
	if err != nil {
		return fmt.Errorf("file %q: %w", f.Name, err)
	}
	f.Modified = modified
	return nil
}

func parseModified(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		for _, layout := range isoLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts.Unix(), nil
			}
		}
		return 0, fmt.Errorf("unrecognized modified timestamp %q", s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	fl, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int64(fl), nil
}

// ListResponse represents the API response for /list
type ListResponse struct {
	Files []FileMetadata `json:"files"`
}

// TotalSize sums the size of every listed file.
func (l *ListResponse) TotalSize() int64 {
	var total int64
	for _, f := range l.Files {
		total += f.Size
	}
	return total
}

// Contains reports whether a file with the given name is listed.
func (l *ListResponse) Contains(name string) bool {
	for _, f := range l.Files {
		if f.Name == name {
			return true
		}
	}
	return false
}
