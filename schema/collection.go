package schema

type namedObject interface {
	Name() ObjectName
}

// collection resolves loosely specified names against tables or
// procedures. Within a level the first match in load order wins.
type collection[T namedObject] struct {
	items      []T
	pluralizer Pluralizer
}

func (c *collection[T]) all() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// tryFind tries the qualified name, then its plural and singular forms,
// then the same three ignoring the schema.
func (c *collection[T]) tryFind(on ObjectName) (T, bool) {
	if on.Schema != "" {
		if item, ok := c.variants(on.Name, func(name string) (T, bool) {
			return c.match(on.Schema, name, false)
		}); ok {
			return item, true
		}
	}
	return c.variants(on.Name, func(name string) (T, bool) {
		return c.match("", name, true)
	})
}

func (c *collection[T]) variants(name string, match func(string) (T, bool)) (T, bool) {
	if item, ok := match(name); ok {
		return item, true
	}
	if c.pluralizer == nil {
		var zero T
		return zero, false
	}
	if item, ok := match(c.pluralizer.Pluralize(name)); ok {
		return item, true
	}
	if c.pluralizer.IsPlural(name) {
		return match(c.pluralizer.Singularize(name))
	}
	var zero T
	return zero, false
}

func (c *collection[T]) match(schema, name string, anySchema bool) (T, bool) {
	h := Homogenize(name)
	hs := Homogenize(schema)
	for _, item := range c.items {
		n := item.Name()
		if Homogenize(n.Name) != h {
			continue
		}
		if anySchema || n.Schema == "" || Homogenize(n.Schema) == hs {
			return item, true
		}
	}
	var zero T
	return zero, false
}
