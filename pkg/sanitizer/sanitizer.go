package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reResourceSeparators = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimDashes         = regexp.MustCompile(`-+`)
)

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseDashes(s string) string {
	s = reTrimDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func NormalizeName(input string) string {
	p := Pipeline{
		dropControl,
		TrimAndNormalize,
	}
	return p.Apply(input)
}

func NormalizeEmail(input string) string {
	p := Pipeline{
		dropControl,
		strings.TrimSpace,
		strings.ToLower,
		func(s string) string { return strings.Join(strings.Fields(s), "") },
	}
	return p.Apply(input)
}

func NormalizeResourceID(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToUpper,
		func(s string) string { return reResourceSeparators.ReplaceAllString(s, "-") },
		collapseDashes,
	}
	return p.Apply(input)
}
