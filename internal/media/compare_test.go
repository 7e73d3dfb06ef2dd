package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func segment() SegmentReference {
	return SegmentReference{
		Position:  3,
		StartTime: 20 * time.Second,
		EndTime:   30 * time.Second,
		StartByte: 1000,
		EndByte:   OpenEnd,
		Resolver:  StaticURIs("https://cdn-a.example.com/3.mp4", "https://cdn-b.example.com/3.mp4"),
	}
}

func initSegment() InitSegmentReference {
	return InitSegmentReference{
		StartByte: 0,
		EndByte:   999,
		Resolver:  StaticURIs("https://cdn-a.example.com/init.mp4"),
	}
}

func TestCompare_IdenticalSegments(t *testing.T) {
	a, b := segment(), segment()

	assert.Equal(t, Equal, Compare(a, b))
	assert.Equal(t, Equal, Compare(&a, &b), "pointer forms are recognized")
	assert.Equal(t, Equal, Compare(a, &b), "value and pointer mix")
}

func TestCompare_ResolverIdentityIgnored(t *testing.T) {
	a, b := segment(), segment()
	b.Resolver = func() []string {
		return []string{"https://cdn-a.example.com/3.mp4", "https://cdn-b.example.com/3.mp4"}
	}

	assert.Equal(t, Equal, Compare(a, b))
}

func TestCompare_SingleFieldChange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SegmentReference)
	}{
		{"position", func(r *SegmentReference) { r.Position++ }},
		{"start time", func(r *SegmentReference) { r.StartTime += time.Millisecond }},
		{"end time", func(r *SegmentReference) { r.EndTime -= time.Millisecond }},
		{"start byte", func(r *SegmentReference) { r.StartByte = 0 }},
		{"end byte", func(r *SegmentReference) { r.EndByte = 2000 }},
		{"uri order", func(r *SegmentReference) {
			r.Resolver = StaticURIs("https://cdn-b.example.com/3.mp4", "https://cdn-a.example.com/3.mp4")
		}},
		{"uri count", func(r *SegmentReference) { r.Resolver = StaticURIs("https://cdn-a.example.com/3.mp4") }},
		{"nil resolver", func(r *SegmentReference) { r.Resolver = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := segment(), segment()
			tt.mutate(&b)
			assert.Equal(t, NotEqual, Compare(a, b))
		})
	}
}

func TestCompare_URIMismatchWinsOverFields(t *testing.T) {
	a, b := segment(), segment()
	b.Resolver = StaticURIs("https://elsewhere.example.com/3.mp4")
	b.Position = 99

	assert.Equal(t, NotEqual, Compare(a, b))
}

func TestCompare_InitSegments(t *testing.T) {
	a, b := initSegment(), initSegment()
	assert.Equal(t, Equal, Compare(a, b))

	b.EndByte = 1000
	assert.Equal(t, NotEqual, Compare(a, b))

	c := initSegment()
	c.Resolver = StaticURIs("https://cdn-b.example.com/init.mp4")
	assert.Equal(t, NotEqual, Compare(a, c))
}

func TestCompare_NoOpinion(t *testing.T) {
	var nilSeg *SegmentReference

	tests := []struct {
		name          string
		first, second any
	}{
		{"segment vs init", segment(), initSegment()},
		{"init vs segment", initSegment(), segment()},
		{"segment vs string", segment(), "3.mp4"},
		{"opaque pair", 1, 1},
		{"nil pair", nil, nil},
		{"nil pointer", nilSeg, segment()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Compare(tt.first, tt.second)
			assert.Equal(t, NoOpinion, v)
			assert.False(t, v.Applies())
		})
	}
}

func TestClassify(t *testing.T) {
	seg, ini := segment(), initSegment()

	assert.Equal(t, KindSegment, Classify(seg))
	assert.Equal(t, KindSegment, Classify(&seg))
	assert.Equal(t, KindInit, Classify(ini))
	assert.Equal(t, KindInit, Classify(&ini))
	assert.Equal(t, KindOpaque, Classify(struct{ Position int }{3}))
	assert.Equal(t, "init_segment", KindInit.String())
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "not_equal", NotEqual.String())
	assert.Equal(t, "no_opinion", NoOpinion.String())
	assert.True(t, NotEqual.Applies())
}
