package sim

import (
	"log"
	"strings"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the given name does not follow the naming
// convention. Names are dot-separated elements, each element starts with a
// capital letter and contains only letters, digits, or an index in square
// brackets, e.g. `Sim.DMA[0].StreamPort`.
func NameMustBeValid(name string) {
	if name == "" {
		log.Panic("name must not be empty")
	}

	for _, elem := range strings.Split(name, ".") {
		nameElementMustBeValid(name, elem)
	}
}

func nameElementMustBeValid(name, elem string) {
	if elem == "" {
		log.Panicf("name %q contains an empty element", name)
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		log.Panicf("element %q of name %q must start with a capital letter",
			elem, name)
	}

	inIndex := false

	for _, r := range elem {
		switch {
		case r == '[' && !inIndex:
			inIndex = true
		case r == ']' && inIndex:
			inIndex = false
		case r >= '0' && r <= '9':
		case !inIndex && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
		default:
			log.Panicf("element %q of name %q contains invalid character %q",
				elem, name, r)
		}
	}

	if inIndex {
		log.Panicf("element %q of name %q has an unclosed index", elem, name)
	}
}
