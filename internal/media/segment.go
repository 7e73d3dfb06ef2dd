// Package media holds the segment descriptors playback tests compare and the
// domain comparator that decides their equality.
package media

import "time"

// OpenEnd marks a byte range that runs to the end of the resource.
const OpenEnd int64 = -1

// URIResolver returns the candidate locations of a segment, best first.
// Resolvers are often closures over manifest state, so two references with
// different resolver functions can still locate the same bytes.
type URIResolver func() []string

// StaticURIs returns a resolver that always yields uris.
func StaticURIs(uris ...string) URIResolver {
	return func() []string {
		return uris
	}
}

// SegmentReference locates one media segment in time and in bytes.
type SegmentReference struct {
	// Position is the segment number within its stream.
	Position int

	// StartTime and EndTime bound the presentation interval.
	StartTime time.Duration
	EndTime   time.Duration

	// StartByte and EndByte bound the byte range, inclusive.
	// EndByte is OpenEnd when the range runs to the end of the resource.
	StartByte int64
	EndByte   int64

	Resolver URIResolver
}

// URIs resolves the segment's locations. A nil resolver yields none.
func (r SegmentReference) URIs() []string {
	return resolve(r.Resolver)
}

// InitSegmentReference locates the initialization segment of a stream.
type InitSegmentReference struct {
	StartByte int64
	EndByte   int64
	Resolver  URIResolver
}

// URIs resolves the init segment's locations. A nil resolver yields none.
func (r InitSegmentReference) URIs() []string {
	return resolve(r.Resolver)
}

func resolve(fn URIResolver) []string {
	if fn == nil {
		return nil
	}
	return fn()
}
