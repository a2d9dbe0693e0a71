package events

const (
	KindLanguageDetected Kind = "language.detected"
	KindLanguageChanged  Kind = "language.changed"
)

// LanguageDetected carries a language reported by recognition.
type LanguageDetected struct {
	Base
	Code     string
	Accepted bool
}

func NewLanguageDetected(code string, accepted bool) LanguageDetected {
	return LanguageDetected{Base: NewBase(KindLanguageDetected), Code: code, Accepted: accepted}
}

// LanguageChanged carries a change of the session language.
type LanguageChanged struct {
	Base
	From string
	To   string
}

func NewLanguageChanged(from, to string) LanguageChanged {
	return LanguageChanged{Base: NewBase(KindLanguageChanged), From: from, To: to}
}
