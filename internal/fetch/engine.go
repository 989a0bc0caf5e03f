// Package fetch wraps yt-dlp as the media extraction engine. It owns the
// shared downloads directory and gives every fetch a collision-free output
// name so concurrent downloads never clobber each other.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"vidgate/lib/sl"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
)

// Heights offered to users; anything else reported by the extractor is
// ignored.
var allowedHeights = []int{360, 480, 720, 1080, 1440, 2160}

const defaultHeight = 720

type Engine struct {
	dir     string
	maxSize int64
	log     *slog.Logger
}

func New(dir string, maxSize int64, log *slog.Logger) (*Engine, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating downloads dir: %w", err)
	}
	return &Engine{
		dir:     dir,
		maxSize: maxSize,
		log:     log.With(sl.Module("fetch")),
	}, nil
}

// Fetch downloads the video capped at the given vertical resolution and
// returns the local file path. The caller owns the file and removes it
// after handoff.
func (e *Engine) Fetch(ctx context.Context, url string, height int) (string, error) {
	if height <= 0 {
		height = defaultHeight
	}

	name := uuid.NewString()
	dl := ytdlp.New().
		Format(fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)).
		MergeOutputFormat("mp4").
		NoPlaylist().
		RestrictFilenames().
		Output(filepath.Join(e.dir, name+".%(ext)s"))
	// Hint the extractor to skip known-oversize videos up front; the
	// coordinator still enforces the ceiling on the produced file.
	if e.maxSize > 0 {
		dl = dl.MaxFileSize(strconv.FormatInt(e.maxSize, 10))
	}

	_, err := dl.Run(ctx, url)
	if err != nil {
		e.removeLeftovers(name)
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	// The merge postprocessor normally produces an .mp4; fall back to
	// whatever extension the extractor picked.
	merged := filepath.Join(e.dir, name+".mp4")
	if _, err := os.Stat(merged); err == nil {
		return merged, nil
	}
	matches, _ := filepath.Glob(filepath.Join(e.dir, name+".*"))
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("no output file produced for %s", url)
}

// Qualities probes the available vertical resolutions for a URL. On any
// probe failure it falls back to the default height so the user still gets
// a working keyboard.
func (e *Engine) Qualities(ctx context.Context, url string) []int {
	probe := ytdlp.New().
		SkipDownload().
		NoPlaylist().
		DumpSingleJSON()

	result, err := probe.Run(ctx, url)
	if err != nil || result == nil {
		e.log.Warn("quality probe failed", slog.String("url", url))
		return []int{defaultHeight}
	}
	return parseHeights(result.Stdout)
}

// removeLeftovers deletes partial output a failed run may have written.
func (e *Engine) removeLeftovers(name string) {
	matches, _ := filepath.Glob(filepath.Join(e.dir, name+".*"))
	for _, match := range matches {
		_ = os.Remove(match)
	}
}

// parseHeights extracts the usable format heights from a yt-dlp info dump,
// filtered against allowedHeights, sorted and deduplicated.
func parseHeights(raw string) []int {
	var info struct {
		Formats []struct {
			Height int `json:"height"`
		} `json:"formats"`
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return []int{defaultHeight}
	}

	seen := make(map[int]bool)
	var heights []int
	for _, format := range info.Formats {
		if seen[format.Height] {
			continue
		}
		for _, allowed := range allowedHeights {
			if format.Height == allowed {
				seen[format.Height] = true
				heights = append(heights, format.Height)
				break
			}
		}
	}
	if len(heights) == 0 {
		return []int{defaultHeight}
	}
	sort.Ints(heights)
	return heights
}
