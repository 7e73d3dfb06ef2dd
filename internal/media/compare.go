package media

import "slices"

// Kind discriminates the values Compare knows about.
type Kind int

const (
	// KindOpaque is anything Compare has no opinion on.
	KindOpaque Kind = iota
	KindSegment
	KindInit
)

func (k Kind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindInit:
		return "init_segment"
	default:
		return "opaque"
	}
}

// Verdict is the tri-state outcome of Compare.
type Verdict int

const (
	// NoOpinion defers to default equality. It never means "not equal".
	NoOpinion Verdict = iota
	Equal
	NotEqual
)

func (v Verdict) String() string {
	switch v {
	case Equal:
		return "equal"
	case NotEqual:
		return "not_equal"
	default:
		return "no_opinion"
	}
}

// Applies reports whether the comparator reached a decision.
func (v Verdict) Applies() bool {
	return v != NoOpinion
}

// Classify returns the kind of v. Both value and pointer forms are
// recognized; a nil pointer is opaque.
func Classify(v any) Kind {
	switch r := v.(type) {
	case SegmentReference:
		return KindSegment
	case *SegmentReference:
		if r != nil {
			return KindSegment
		}
	case InitSegmentReference:
		return KindInit
	case *InitSegmentReference:
		if r != nil {
			return KindInit
		}
	}
	return KindOpaque
}

// Compare decides equality of two segment references by their domain
// fields.
//
// Pairs of different kinds, or of opaque values, yield NoOpinion. Otherwise
// the resolved URI lists are compared first (length, then pairwise in
// order) and a mismatch is NotEqual regardless of the other fields. Segment
// references then require equal position, start and end time, start and end
// byte; init references require equal start and end byte. Resolver
// functions themselves are never compared.
func Compare(first, second any) Verdict {
	kind := Classify(first)
	if kind == KindOpaque || kind != Classify(second) {
		return NoOpinion
	}

	switch kind {
	case KindSegment:
		a, b := segmentOf(first), segmentOf(second)
		if !slices.Equal(a.URIs(), b.URIs()) {
			return NotEqual
		}
		return verdict(a.Position == b.Position &&
			a.StartTime == b.StartTime &&
			a.EndTime == b.EndTime &&
			a.StartByte == b.StartByte &&
			a.EndByte == b.EndByte)

	case KindInit:
		a, b := initOf(first), initOf(second)
		if !slices.Equal(a.URIs(), b.URIs()) {
			return NotEqual
		}
		return verdict(a.StartByte == b.StartByte && a.EndByte == b.EndByte)
	}

	return NoOpinion
}

func segmentOf(v any) SegmentReference {
	if p, ok := v.(*SegmentReference); ok {
		return *p
	}
	return v.(SegmentReference)
}

func initOf(v any) InitSegmentReference {
	if p, ok := v.(*InitSegmentReference); ok {
		return *p
	}
	return v.(InitSegmentReference)
}

func verdict(equal bool) Verdict {
	if equal {
		return Equal
	}
	return NotEqual
}
