package handlers

import (
	"fmt"
	"net/http"
	"strings"
)

// Robots serves robots.txt for the public site.
func Robots(appURL string) http.HandlerFunc {
	body := robotsTxt(appURL)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(body))
	}
}

func robotsTxt(appURL string) string {
	var b strings.Builder
	b.WriteString("User-Agent: *\nAllow: /\nDisallow: /api/\nDisallow: /studio/\n")
	if appURL != "" {
		fmt.Fprintf(&b, "\nHost: %s\n", strings.TrimRight(appURL, "/"))
	}
	return b.String()
}
