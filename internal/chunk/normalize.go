package chunk

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/pkg/models"
)

// Normalizer filters raw change records into well-formed change units.
type Normalizer struct {
	excluded map[string]bool
	logger   zerolog.Logger
}

// NewNormalizer creates a Normalizer. When extensions is empty the default
// binary/non-reviewable extension set is used.
func NewNormalizer(extensions []string, logger zerolog.Logger) *Normalizer {
	excluded := DefaultExcludedExtensions()
	if len(extensions) > 0 {
		excluded = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			excluded[strings.TrimPrefix(ext, ".")] = true
		}
	}
	return &Normalizer{excluded: excluded, logger: logger}
}

// DefaultExcludedExtensions returns the extensions that never carry
// reviewable text: images, archives, executables, libraries, media, fonts
// and compiled artifacts. Matching is case-sensitive on the suffix after the
// final dot.
func DefaultExcludedExtensions() map[string]bool {
	return map[string]bool{
		"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
		"ico": true, "tif": true, "tiff": true, "webp": true, "svg": true,
		"exe": true, "dll": true, "so": true, "dylib": true, "a": true, "lib": true,
		"zip": true, "tar": true, "gz": true, "bz2": true, "xz": true, "7z": true,
		"rar": true, "jar": true, "war": true, "ear": true, "class": true,
		"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
		"ppt": true, "pptx": true, "bin": true, "dat": true, "o": true,
		"mp3": true, "mp4": true, "avi": true, "mov": true, "wmv": true,
		"flv": true, "webm": true, "ttf": true, "woff": true, "woff2": true,
		"eot": true, "pyc": true, "pyd": true, "pyo": true,
	}
}

// Normalize shapes raw change records into change units. Records that are
// nil, lack a path, carry no patch text, or point at an excluded extension
// are dropped. Ordering is preserved and duplicate paths pass through
// unchanged. Normalize never fails; empty or nil input yields an empty list.
func (n *Normalizer) Normalize(records []*models.RawChange) []models.ChangeUnit {
	units := make([]models.ChangeUnit, 0, len(records))
	for _, rec := range records {
		if rec == nil || rec.Path == "" || rec.Patch == "" {
			continue
		}
		if n.isExcluded(rec.Path) {
			n.logger.Info().Str("path", rec.Path).Msg("Skipping binary or non-reviewable file")
			continue
		}
		units = append(units, models.ChangeUnit{
			Path:      rec.Path,
			PatchText: rec.Patch,
			Status:    models.ParseStatus(rec.Status),
			Additions: rec.Additions,
			Deletions: rec.Deletions,
			Changes:   rec.Changes,
		})
	}
	n.logger.Debug().
		Int("records", len(records)).
		Int("units", len(units)).
		Msg("Normalized change records")
	return units
}

func (n *Normalizer) isExcluded(path string) bool {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return false
	}
	return n.excluded[path[idx+1:]]
}
