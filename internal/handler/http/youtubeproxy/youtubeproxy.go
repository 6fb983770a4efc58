// Package youtubeproxy serves the local iframe wrapper that
// internal/headerextract's YouTube strategy points at instead of embedding
// youtube.com directly (spec.md §4.6 step 3, §6).
package youtubeproxy

import (
	"fmt"
	"html"
	"net/http"
	"regexp"

	"feedreader/pkg/config"
)

// Config holds the embed knobs spec.md §6 documents as environment-driven
// and optional, grounded on pkg/config/env.go's GetEnv* idiom.
type Config struct {
	Autoplay       bool
	Loop           bool
	Mute           bool
	Controls       bool
	Rel            bool
	ModestBranding bool
	PlaysInline    bool
}

// LoadConfig reads the youtube-proxy embed defaults from the environment.
func LoadConfig() Config {
	return Config{
		Autoplay:       config.GetEnvBool("YOUTUBE_PROXY_AUTOPLAY", false),
		Loop:           config.GetEnvBool("YOUTUBE_PROXY_LOOP", false),
		Mute:           config.GetEnvBool("YOUTUBE_PROXY_MUTE", false),
		Controls:       config.GetEnvBool("YOUTUBE_PROXY_CONTROLS", true),
		Rel:            config.GetEnvBool("YOUTUBE_PROXY_REL", false),
		ModestBranding: config.GetEnvBool("YOUTUBE_PROXY_MODESTBRANDING", true),
		PlaysInline:    config.GetEnvBool("YOUTUBE_PROXY_PLAYSINLINE", true),
	}
}

// videoIDPattern is deliberately stricter than headerextract's
// extraction regexes: this endpoint only ever needs to validate a caller
// has already supplied exactly an 11-character YouTube video id.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Handler returns the GET /api/youtube-proxy handler. Per-request query
// params (same names as Config's fields, "1"/"0") override the process
// default for every knob except playsinline, which the page always needs
// for a mobile-safe embed.
func Handler(defaults Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := r.URL.Query().Get("v")
		if !videoIDPattern.MatchString(videoID) {
			writeBadRequest(w)
			return
		}

		cfg := defaults
		applyBoolOverride(r, "autoplay", &cfg.Autoplay)
		applyBoolOverride(r, "loop", &cfg.Loop)
		applyBoolOverride(r, "mute", &cfg.Mute)
		applyBoolOverride(r, "controls", &cfg.Controls)
		applyBoolOverride(r, "rel", &cfg.Rel)
		applyBoolOverride(r, "modestbranding", &cfg.ModestBranding)
		applyBoolOverride(r, "playsinline", &cfg.PlaysInline)

		// No X-Frame-Options: this page exists to BE embedded (spec.md §6).
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, renderPage(videoID, cfg))
	}
}

func applyBoolOverride(r *http.Request, param string, field *bool) {
	v := r.URL.Query().Get(param)
	switch v {
	case "1":
		*field = true
	case "0":
		*field = false
	}
}

func writeBadRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprint(w, `<!DOCTYPE html><html><body><p>missing required "v" parameter</p></body></html>`)
}

func renderPage(videoID string, cfg Config) string {
	embedURL := fmt.Sprintf("https://www.youtube-nocookie.com/embed/%s?%s", videoID, buildEmbedQuery(videoID, cfg))
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>html,body,iframe{margin:0;padding:0;width:100%%;height:100%%;border:0;}</style></head>
<body>
<iframe src="%s" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>
</body>
</html>`, html.EscapeString(embedURL))
}

func buildEmbedQuery(videoID string, cfg Config) string {
	q := make([]string, 0, 8)
	q = append(q, boolParam("autoplay", cfg.Autoplay))
	q = append(q, boolParam("mute", cfg.Mute))
	q = append(q, boolParam("controls", cfg.Controls))
	q = append(q, boolParam("rel", cfg.Rel))
	q = append(q, boolParam("modestbranding", cfg.ModestBranding))
	q = append(q, boolParam("playsinline", cfg.PlaysInline))
	if cfg.Loop {
		q = append(q, "loop=1", "playlist="+videoID)
	}
	out := ""
	for i, part := range q {
		if i > 0 {
			out += "&"
		}
		out += part
	}
	return out
}

func boolParam(name string, value bool) string {
	if value {
		return name + "=1"
	}
	return name + "=0"
}
