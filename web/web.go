// Package web serves the PWA shell: service worker, offline document,
// manifest and static assets.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
)

//go:embed index.html sw.js offline.html manifest.webmanifest static
var assets embed.FS

const apiPrefixPlaceholder = `"__API_PREFIX__"`

// Register mounts the shell routes on mux. apiPrefix is baked into sw.js so
// the worker never caches API responses.
func Register(mux *http.ServeMux, apiPrefix string) {
	worker := serviceWorker(apiPrefix)
	mux.HandleFunc("GET /sw.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(worker)
	})
	mux.HandleFunc("GET /{$}", serveFile("index.html", "text/html; charset=utf-8", nil))
	mux.HandleFunc("GET /offline-fallback", serveFile("offline.html", "text/html; charset=utf-8", nil))
	mux.HandleFunc("GET /manifest.webmanifest", serveFile("manifest.webmanifest", "application/manifest+json", nil))

	static, _ := fs.Sub(assets, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
}

func serviceWorker(apiPrefix string) []byte {
	src, err := assets.ReadFile("sw.js")
	if err != nil {
		panic(err)
	}
	literal, _ := json.Marshal(apiPrefix)
	return bytes.Replace(src, []byte(apiPrefixPlaceholder), literal, 1)
}

func serveFile(name, contentType string, headers func(http.Header)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := assets.ReadFile(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		if headers != nil {
			headers(w.Header())
		}
		_, _ = w.Write(body)
	}
}
