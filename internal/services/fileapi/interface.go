package fileapi

import "context"

// ClientAPI defines the methods required to talk to the file API.
// It mirrors the concrete client so it can be mocked in tests.
type ClientAPI interface {
	Do(ctx context.Context, req *Request) *Response
	Health(ctx context.Context) (*Response, error)
	Upload(ctx context.Context, filePath string) (*Response, error)
	List(ctx context.Context) (*ListResponse, *Response, error)
	Download(ctx context.Context, name string) (*Response, error)
	Delete(ctx context.Context, name string) (*Response, error)
}
