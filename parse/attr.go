package parse

import (
	"regexp"
	"strings"
)

// regex pattern for extracting `key=value` parameters from a tag value
var linePattern = regexp.MustCompile(`([A-Za-z0-9-]+)=("[^"]*"|[^",]*)`)

// Attr is one attribute of a key-value tag.
type Attr struct {
	Key   string
	Value string
	Quote bool
}

func (a Attr) String() string {
	if a.Quote {
		return a.Key + `="` + a.Value + `"`
	}
	return a.Key + "=" + a.Value
}

// parseAttrs keeps attribute order. Values are substrings of value.
func parseAttrs(value string) []Attr {
	m := linePattern.FindAllStringSubmatchIndex(value, -1)
	if len(m) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(m))
	for _, loc := range m {
		a := Attr{Key: value[loc[2]:loc[3]], Value: value[loc[4]:loc[5]]}
		if len(a.Value) >= 2 && a.Value[0] == '"' && a.Value[len(a.Value)-1] == '"' {
			a.Value = a.Value[1 : len(a.Value)-1]
			a.Quote = true
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func formatAttrs(attrs []Attr) string {
	s := make([]string, len(attrs))
	for i, a := range attrs {
		s[i] = a.String()
	}
	return strings.Join(s, ",")
}
