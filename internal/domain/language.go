// Package domain contains the core domain types for the translation dispatcher.
package domain

import "strings"

// Language is a supported translation language.
//
// The zero value is the unset hint: it is not part of the enumeration and is
// never returned by ParseLanguage. It means "detect" for a source language
// and "use the default" for a target language.
type Language uint8

const (
	BG Language = iota + 1
	EN
	DE
	FR
	ES
	// OTHER is a recognized language outside the supported set.
	OTHER
)

var languageNames = map[Language]string{
	BG:    "BG",
	EN:    "EN",
	DE:    "DE",
	FR:    "FR",
	ES:    "ES",
	OTHER: "OTHER",
}

var languagesByName = map[string]Language{
	"BG":    BG,
	"EN":    EN,
	"DE":    DE,
	"FR":    FR,
	"ES":    ES,
	"OTHER": OTHER,
}

// ParseLanguage uppercases code and looks it up. Unknown codes map to OTHER.
func ParseLanguage(code string) Language {
	if l, ok := languagesByName[strings.ToUpper(code)]; ok {
		return l
	}
	return OTHER
}

// Languages returns the supported languages.
func Languages() []Language {
	return []Language{BG, EN, DE, FR, ES}
}

// String returns the upper-case name, e.g. "EN".
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return ""
}

// Code returns the lower-case ISO 639-1 code used by translation backends.
func (l Language) Code() string {
	return strings.ToLower(l.String())
}

// IsSet reports whether l holds a hint.
func (l Language) IsSet() bool {
	return l != 0
}

// Supported reports whether l can be used as a translation source or target.
func (l Language) Supported() bool {
	return l >= BG && l <= ES
}
