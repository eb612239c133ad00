package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing. API bodies
// are JSON; the docs page is HTML.
var compressibleTypes = []string{
	"application/json",
	"application/problem+json",
	"application/openapi+json",
	"application/openapi+yaml",
	"text/html",
	"text/plain",
}

// Compress returns a compression middleware offering br alongside chi's
// gzip and deflate encoders. Brotli is preferred when the client accepts it.
func Compress(level int) func(http.Handler) http.Handler {
	compressor := chimiddleware.NewCompressor(level, compressibleTypes...)
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return compressor.Handler
}
