package cms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const imageCDN = "https://cdn.sanity.io/images"

// ImageURLBuilder turns image asset references into CDN URLs.
type ImageURLBuilder struct {
	projectID string
	dataset   string
}

func NewImageURLBuilder(projectID, dataset string) *ImageURLBuilder {
	return &ImageURLBuilder{projectID: projectID, dataset: dataset}
}

// URL builds the CDN URL for an asset reference such as
// "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg". A positive width adds a
// resize parameter.
func (b *ImageURLBuilder) URL(ref string, width int) (string, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}
	id, dims, format := parts[1], parts[2], parts[3]
	if id == "" || format == "" {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}
	w, h, ok := strings.Cut(dims, "x")
	if !ok || !isDigits(w) || !isDigits(h) {
		return "", fmt.Errorf("malformed image dimensions in %q", ref)
	}

	u := fmt.Sprintf("%s/%s/%s/%s-%s.%s", imageCDN, url.PathEscape(b.projectID), url.PathEscape(b.dataset), id, dims, format)
	if width > 0 {
		u += "?w=" + strconv.Itoa(width)
	}
	return u, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
