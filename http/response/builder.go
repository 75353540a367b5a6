package response // import "github.com/avosk/shelfmark/http/response"

import (
	"net/http"
)

// Builder accumulates status, headers and body before a single Write.
type Builder struct {
	w          http.ResponseWriter
	r          *http.Request
	statusCode int
	headers    map[string]string
	body       []byte
}

func New(w http.ResponseWriter, r *http.Request) *Builder {
	return &Builder{
		w:          w,
		r:          r,
		statusCode: http.StatusOK,
		headers:    map[string]string{},
	}
}

func (b *Builder) WithStatus(statusCode int) *Builder {
	b.statusCode = statusCode
	return b
}

func (b *Builder) WithHeader(key, value string) *Builder {
	b.headers[key] = value
	return b
}

func (b *Builder) WithBody(body []byte) *Builder {
	b.body = body
	return b
}

func (b *Builder) Write() {
	b.w.Header().Set("X-Content-Type-Options", "nosniff")
	b.w.Header().Set("X-Frame-Options", "DENY")
	for key, value := range b.headers {
		b.w.Header().Set(key, value)
	}
	b.w.WriteHeader(b.statusCode)
	if len(b.body) > 0 && b.r.Method != http.MethodHead {
		b.w.Write(b.body)
	}
}
