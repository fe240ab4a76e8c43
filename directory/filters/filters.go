package filters

import (
	"fmt"
	"strings"
)

// Filter builds an LDAP search filter string.
type Filter interface {
	String() string
}

type rawFilter string

func (f rawFilter) String() string {
	return string(f)
}

type andFilter struct {
	parts []Filter
}

func And(parts ...Filter) Filter {
	return andFilter{parts: parts}
}

func (f andFilter) String() string {
	return combine("&", f.parts)
}

type orFilter struct {
	parts []Filter
}

func Or(parts ...Filter) Filter {
	return orFilter{parts: parts}
}

func (f orFilter) String() string {
	return combine("|", f.parts)
}

type notFilter struct {
	part Filter
}

func Not(f Filter) Filter {
	return notFilter{part: f}
}

func (f notFilter) String() string {
	return "(!" + f.part.String() + ")"
}

type geFilter struct {
	attr  string
	value int64
}

func Ge(attr string, value int64) Filter {
	return geFilter{attr: attr, value: value}
}

func (f geFilter) String() string {
	return fmt.Sprintf("(%s>=%d)", f.attr, f.value)
}

func Eq(attr, value string) Filter {
	return rawFilter("(" + attr + "=" + value + ")")
}

func Present(attr string) Filter {
	return rawFilter("(" + attr + "=*)")
}

// Raw wraps an already formatted filter string.
func Raw(filter string) Filter {
	return rawFilter(filter)
}

func combine(op string, parts []Filter) string {
	var sb strings.Builder
	sb.WriteString("(" + op)
	for _, p := range parts {
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	return sb.String()
}
