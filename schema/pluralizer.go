package schema

import "github.com/gertd/go-pluralize"

// Pluralizer supplies the singular/plural fallbacks used by name resolution.
type Pluralizer interface {
	IsPlural(word string) bool
	Pluralize(word string) string
	Singularize(word string) string
}

type englishPluralizer struct {
	client *pluralize.Client
}

// DefaultPluralizer returns an English pluralizer.
func DefaultPluralizer() Pluralizer {
	return englishPluralizer{client: pluralize.NewClient()}
}

func (p englishPluralizer) IsPlural(word string) bool      { return p.client.IsPlural(word) }
func (p englishPluralizer) Pluralize(word string) string   { return p.client.Plural(word) }
func (p englishPluralizer) Singularize(word string) string { return p.client.Singular(word) }
