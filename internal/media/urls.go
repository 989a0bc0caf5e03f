// Package media validates and normalizes inbound video links. This is pure
// pre-processing: the coordinator only ever sees the canonical URL string.
package media

import (
	"regexp"
	"strings"
)

var patterns = []*regexp.Regexp{
	// YouTube
	regexp.MustCompile(`^(https?://)?(www\.)?youtube\.com/(watch\?v=|shorts/|embed/|v/|.+?v=)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^(https?://)?(www\.)?youtu\.be/[a-zA-Z0-9_-]{11}`),
	// TikTok videos and short links
	regexp.MustCompile(`^(https?://)?(www\.|m\.|vm\.)?tiktok\.com/.+?/video/\d+`),
	regexp.MustCompile(`^(https?://)?(www\.|m\.|vm\.)?tiktok\.com/.+?/v/\d+`),
	regexp.MustCompile(`^(https?://)?(vm\.|vt\.|m\.)?tiktok\.com/\w+/?$`),
	// Instagram posts and reels
	regexp.MustCompile(`^(https?://)?(www\.)?instagram\.com/(p|reel|tv)/[a-zA-Z0-9_-]+/?`),
	// Other platforms
	regexp.MustCompile(`^(https?://)?(www\.)?vk\.com/video(-?\d+_\d+)`),
	regexp.MustCompile(`^(https?://)?(www\.)?dailymotion\.com/video/[a-zA-Z0-9]+`),
	regexp.MustCompile(`^(https?://)?(www\.)?vimeo\.com/[0-9]+`),
}

var homePages = []string{
	"https://www.tiktok.com/",
	"https://tiktok.com/",
	"https://www.instagram.com/",
	"https://instagram.com/",
	"https://www.youtube.com/",
	"https://youtube.com/",
}

// Valid reports whether the text looks like a downloadable video link.
// Bare home/profile pages are rejected even when a platform matches.
func Valid(url string) bool {
	for _, base := range homePages {
		if strings.HasPrefix(url, base) &&
			!strings.Contains(url, "/video/") &&
			!strings.Contains(url, "/watch?") &&
			!strings.Contains(url, "/shorts/") &&
			!strings.Contains(url, "/p/") &&
			!strings.Contains(url, "/reel/") {
			return false
		}
	}
	for _, pattern := range patterns {
		if pattern.MatchString(url) {
			return true
		}
	}
	return false
}

// Normalize produces the canonical URL the extraction engine receives:
// shorts and youtu.be links become watch URLs, tracking parameters are
// stripped. Returns false when the link is not recognized.
func Normalize(url string) (string, bool) {
	url = strings.TrimSpace(url)
	if url == "" || !Valid(url) {
		return "", false
	}
	lower := strings.ToLower(url)

	if strings.Contains(lower, "youtube.com/shorts/") {
		if id := segmentAfter(url, "shorts/"); id != "" {
			return "https://www.youtube.com/watch?v=" + id, true
		}
	}
	if strings.Contains(lower, "youtu.be/") {
		if id := segmentAfter(url, "youtu.be/"); id != "" {
			return "https://www.youtube.com/watch?v=" + id, true
		}
	}
	if strings.Contains(lower, "youtube.com/watch") {
		// keep only the v= parameter
		return strings.SplitN(url, "&", 2)[0], true
	}
	if strings.Contains(lower, "tiktok.com") ||
		strings.Contains(lower, "instagram.com") ||
		strings.Contains(lower, "vk.com") ||
		strings.Contains(lower, "vimeo.com") ||
		strings.Contains(lower, "dailymotion.com") {
		return strings.SplitN(url, "?", 2)[0], true
	}
	return url, true
}

// segmentAfter returns the path segment following marker, cut at the next
// separator.
func segmentAfter(url, marker string) string {
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(marker):]
	rest = strings.SplitN(rest, "?", 2)[0]
	rest = strings.SplitN(rest, "/", 2)[0]
	return rest
}
