package domain

// Text is a body with optional language hints. Texts compare with ==.
type Text struct {
	Body         string   `json:"text"`
	FromLanguage Language `json:"-"`
	ToLanguage   Language `json:"-"`
}

// NewText builds a Text without hints.
func NewText(body string) Text {
	return Text{Body: body}
}

// WithLanguages returns a copy of t with the given hints.
func (t Text) WithLanguages(from, to Language) Text {
	t.FromLanguage = from
	t.ToLanguage = to
	return t
}
