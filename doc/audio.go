package doc

import (
	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/ident"
	"github.com/clinpipe/clinpipe/span"
)

// RawAudioLabel is the reserved label of the auto-generated segment covering
// the full unprocessed audio signal.
const RawAudioLabel = "RAW_AUDIO"

// AudioBuffer abstracts the audio payload. Concrete I/O (decoding,
// resampling) lives in external loader operations; the core only needs the
// signal's duration and an opaque handle.
type AudioBuffer interface {
	Duration() float64
}

// FileAudioBuffer points at an audio file on disk.
type FileAudioBuffer struct {
	Path       string
	SampleRate int
	Seconds    float64
}

func (b FileAudioBuffer) Duration() float64 { return b.Seconds }

// PlaceholderAudioBuffer stands in for a signal whose samples are not
// available (e.g. a de-identified export keeping only timing).
type PlaceholderAudioBuffer struct {
	Seconds float64
}

func (b PlaceholderAudioBuffer) Duration() float64 { return b.Seconds }

// AudioDocument holds a frozen audio payload and its annotations, anchored
// to time intervals instead of character spans.
type AudioDocument struct {
	uid    string
	audio  AudioBuffer
	anns   *anot.Store
	meta   map[string]interface{}
	rawSeg *anot.AudioSegment
}

// NewAudio creates an audio document. As for text documents, the raw
// segment's identifier is derived from the document identifier.
func NewAudio(audio AudioBuffer, opts ...Option) *AudioDocument {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.uid == "" {
		o.uid = ident.New()
	}
	d := &AudioDocument{
		uid:   o.uid,
		audio: audio,
		anns:  anot.NewStore(),
		meta:  o.meta,
	}
	d.rawSeg = anot.NewAudioSegment(
		RawAudioLabel,
		span.TimeSpan{Start: 0, End: audio.Duration()},
		anot.WithID(ident.Derive(o.uid, "raw")),
	)
	return d
}

func (d *AudioDocument) ID() string { return d.uid }

func (d *AudioDocument) Audio() AudioBuffer { return d.audio }

func (d *AudioDocument) Anns() *anot.Store { return d.anns }

func (d *AudioDocument) Metadata() map[string]interface{} { return d.meta }

// RawSegment returns the auto-generated segment spanning the whole signal.
func (d *AudioDocument) RawSegment() *anot.AudioSegment { return d.rawSeg }

// Add registers an annotation; the raw segment's label is reserved.
func (d *AudioDocument) Add(ann anot.Annotation) error {
	if ann.Label() == RawAudioLabel {
		return errors.Newf("cannot add annotation with reserved label %s", RawAudioLabel)
	}
	return d.anns.Add(ann)
}

// Get retrieves an annotation by identifier, injecting the raw segment.
func (d *AudioDocument) Get(id string) (anot.Annotation, error) {
	if id == d.rawSeg.ID() {
		return d.rawSeg, nil
	}
	return d.anns.Get(id)
}

// ByLabel collects annotations with the given label, injecting the raw
// segment when asked for it.
func (d *AudioDocument) ByLabel(label string) []anot.Annotation {
	if label == RawAudioLabel {
		return []anot.Annotation{d.rawSeg}
	}
	return d.anns.ByLabel(label)
}
