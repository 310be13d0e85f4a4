// Package comic defines the comic unit entity and the filename
// classification that decides which work-directory files belong to the
// domain at all.
package comic

import "regexp"

// Role is the classification of a scan file, derived purely from its
// filename prefix.
type Role int

const (
	// RoleNone marks a filename that is not a recognized scan. No other
	// component ever stores such a file.
	RoleNone Role = iota
	// RoleCoverAlbum is the cropped front cover (single slot).
	RoleCoverAlbum
	// RoleCoverFull is the full cover spread (single slot).
	RoleCoverFull
	// RoleCoverStrip is the belt strip (single slot).
	RoleCoverStrip
	// RolePage is a content page (many allowed).
	RolePage
)

// Filename prefixes for each role. Changing these is a format migration,
// not a runtime configuration.
const (
	CoverAlbumPrefix = "coverA"
	CoverFullPrefix  = "coverF"
	CoverStripPrefix = "coverS"
	PagePrefix       = "page"

	// Ext is the only image extension the pipeline admits.
	Ext = ".jpg"
)

// scanPattern is the single gate deciding whether a file is part of the
// domain: a role prefix, an optional underscore and numeric token, and
// the fixed extension.
var scanPattern = regexp.MustCompile(`^(coverA|coverF|coverS|page)_?\d*\.jpg$`)

// Classify maps a filename to its role, or RoleNone when the filename
// does not match the scan pattern. It is total and deterministic.
func Classify(filename string) Role {
	m := scanPattern.FindStringSubmatch(filename)
	if m == nil {
		return RoleNone
	}
	switch m[1] {
	case CoverAlbumPrefix:
		return RoleCoverAlbum
	case CoverFullPrefix:
		return RoleCoverFull
	case CoverStripPrefix:
		return RoleCoverStrip
	default:
		return RolePage
	}
}

// Recognized reports whether filename is a scan file the pipeline cares about.
func Recognized(filename string) bool {
	return Classify(filename) != RoleNone
}

// SingleSlot reports whether r is a role of which a comic holds at most
// one instance.
func (r Role) SingleSlot() bool {
	return r == RoleCoverAlbum || r == RoleCoverFull || r == RoleCoverStrip
}

func (r Role) String() string {
	switch r {
	case RoleCoverAlbum:
		return "cover_album"
	case RoleCoverFull:
		return "cover_full"
	case RoleCoverStrip:
		return "cover_strip"
	case RolePage:
		return "page"
	default:
		return "none"
	}
}
