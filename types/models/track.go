package models

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Track is a song as known to the local library.
//
// Title and PrimaryArtist are non-empty after normalization (trimmed, NFC) —
// enforced by Track.Normalize, which the repository calls before every write.
type Track struct {
	BaseModel
	Title         string   `json:"title" gorm:"not null"`
	PrimaryArtist string   `json:"primaryArtist" gorm:"not null"`
	AlbumRef      string   `json:"albumRef,omitempty"`
	DurationMs    *int     `json:"durationMs,omitempty"`
	Year          *int     `json:"year,omitempty"`
	BPM           *float64 `json:"bpm,omitempty"`
	IsLocalFile   bool     `json:"isLocalFile" gorm:"not null;default:false"`
	LocalPath     string   `json:"localPath,omitempty"`
	QualityRating *int     `json:"qualityRating,omitempty"`

	// ISRC/catalog identifiers used by Identity & Matching for strong-match
	// short-circuits (spec.md §4.1 step 2). Optional — most local imports
	// never carry one.
	ISRC           string `json:"isrc,omitempty"`
	DiscogsRelease string `json:"discogsRelease,omitempty"`
	FileHash       string `json:"fileHash,omitempty"`
}

func (Track) TableName() string { return "tracks" }

// Normalize trims and NFC-normalizes Title and PrimaryArtist in place and
// reports an error if either is empty afterward. The repository calls this
// before every Create/Update so the invariant in spec.md §3 always holds.
func (t *Track) Normalize() error {
	t.Title = normalizeField(t.Title)
	t.PrimaryArtist = normalizeField(t.PrimaryArtist)
	if t.Title == "" || t.PrimaryArtist == "" {
		return fmt.Errorf("track title and primary artist must be non-empty after normalization")
	}
	return nil
}

func normalizeField(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimFunc(s, unicode.IsSpace)
}
