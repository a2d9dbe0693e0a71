package speechtotext

// FinalResult is a finalized recognition result for one utterance segment.
type FinalResult struct {
	Transcript string
	// Language is the primary language subtag the engine detected, e.g.
	// "hi". It is empty when the engine did not report one.
	Language string
}

// HasLanguage reports whether the engine detected a language.
func (r FinalResult) HasLanguage() bool { return r.Language != "" }
