package service

// minUsableRawText is the shortest stored raw text worth re-running the
// extraction model on. Anything shorter means the original recognition
// produced nothing and only a fresh OCR pass can help.
const minUsableRawText = 20

// maxStoredRawText caps the raw text persisted with a record.
const maxStoredRawText = 3000

type ReprocessDecision int

const (
	// ReprocessSkip: no usable text and no source file; retrying would
	// only burn an external call.
	ReprocessSkip ReprocessDecision = iota
	// ReprocessReuseText: stored raw text is good enough, re-run
	// extraction over it.
	ReprocessReuseText
	// ReprocessReExtract: raw text is unusable but the source file is
	// still on disk; OCR it again first.
	ReprocessReExtract
)

// DecideReprocess is the pure retry policy: a function of the stored raw
// text length and file availability only, so it can be tested without
// touching the filesystem.
func DecideReprocess(rawTextLen int, fileAvailable bool) ReprocessDecision {
	if rawTextLen >= minUsableRawText {
		return ReprocessReuseText
	}
	if fileAvailable {
		return ReprocessReExtract
	}
	return ReprocessSkip
}
