package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/connorshinn/unsplash-Backgrounds/internal/cachekey"
	"github.com/connorshinn/unsplash-Backgrounds/internal/pool"
	"github.com/connorshinn/unsplash-Backgrounds/internal/unsplash"
)

const demoKeyHint = "Access forbidden. Your Unsplash API key may be a Demo key with limited access. " +
	"Try using ?query=wallpaper instead of ?topics=wallpapers, or apply for Production API access " +
	"at https://unsplash.com/oauth/applications"

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if s.bindingErr != nil {
		http.Error(w, s.bindingErr.Error(), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	p := cachekey.Params{
		Collections: q.Get("collections"),
		Topics:      q.Get("topics"),
		Query:       q.Get("query"),
		Width:       q.Get("w"),
		Height:      q.Get("h"),
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := cachekey.Encode(p)
	img, err := s.images.Serve(r.Context(), key, p)
	if err != nil {
		s.writeServeError(w, key, err)
		return
	}

	s.logServe(key, p, img)
	writeImageHeaders(w.Header(), img, p)

	if !img.CacheHit {
		w.Header().Set("Location", img.RedirectURL)
		w.WriteHeader(http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Body); err != nil {
		s.logger.Error().Err(err).Str("cache_key", key).Msg("image body write failed")
	}
}

func (s *Server) writeServeError(w http.ResponseWriter, key string, err error) {
	s.logger.Error().Err(err).Str("cache_key", key).Msg("serve failed")

	var rateLimit *unsplash.RateLimitError
	switch {
	case errors.Is(err, unsplash.ErrForbidden):
		http.Error(w, demoKeyHint, http.StatusForbidden)
	case errors.As(err, &rateLimit):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimit.RetryAfter))
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusServiceUnavailable)
	case errors.Is(err, pool.ErrNoCandidates):
		http.Error(w, "No images available", http.StatusBadGateway)
	default:
		http.Error(w, "Bad Gateway: "+err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) logServe(key string, p cachekey.Params, img *pool.ServedImage) {
	status := "MISS"
	if img.CacheHit {
		status = "HIT"
	}
	s.logger.Info().
		Str("cache_status", status).
		Str("cache_key", key).
		Str("dimensions", dimensionsLabel(p)).
		Str("source_url", sourceURL(img.PhotoID)).
		Str("file_size", humanSize(img.Size)).
		Str("category", p.Category()).
		Str("photographer", img.Photographer).
		Msg("image served")
}

// writeImageHeaders sets the metadata header family shared by hit and miss
// responses, including the cache-control trio that keeps intermediaries
// from caching on our behalf.
func writeImageHeaders(h http.Header, img *pool.ServedImage, p cachekey.Params) {
	status := "MISS"
	if img.CacheHit {
		status = "HIT"
	}
	h.Set("X-Cache-Status", status)
	h.Set("X-Unsplash-Photographer", img.Photographer)
	h.Set("X-Image-Width", orAuto(p.Width))
	h.Set("X-Image-Height", orAuto(p.Height))
	h.Set("X-Image-Source-URL", sourceURL(img.PhotoID))
	h.Set("X-Unsplash-Category", p.Category())

	if img.CacheHit {
		h.Set("X-Image-File-Size", strconv.FormatInt(img.Size, 10))
		h.Set("X-Image-File-Size-KB", fmt.Sprintf("%.2f", float64(img.Size)/1024))
		h.Set("X-Image-File-Size-MB", fmt.Sprintf("%.2f", float64(img.Size)/1024/1024))
	} else {
		h.Set("X-Image-File-Size", "unknown")
	}

	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

func orAuto(v string) string {
	if v == "" {
		return "auto"
	}
	return v
}

func sourceURL(photoID string) string {
	return "https://unsplash.com/photos/" + photoID
}

func dimensionsLabel(p cachekey.Params) string {
	if p.Width != "" && p.Height != "" {
		return p.Width + "x" + p.Height
	}
	return "auto"
}

func humanSize(size int64) string {
	if size < 0 {
		return "unknown"
	}
	if size > 1024*1024 {
		return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
	}
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}
