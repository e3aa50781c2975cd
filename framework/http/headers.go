package http

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/http/httpguts"
)

type headerField struct {
	name   string // spelling from the last WithHeader, else the first add
	values []string
}

// headerBag is an ordered, case-insensitive, case-preserving header table.
// It is never mutated after being shared; every change works on a clone.
type headerBag struct {
	fields []headerField
	index  map[string]int // lowercase name → position in fields
}

func (h headerBag) clone() headerBag {
	out := headerBag{
		fields: make([]headerField, len(h.fields)),
		index:  make(map[string]int, len(h.index)),
	}
	for i, f := range h.fields {
		out.fields[i] = headerField{name: f.name, values: slices.Clone(f.values)}
	}
	for k, v := range h.index {
		out.index[k] = v
	}
	return out
}

func (h headerBag) names() []string {
	return lo.Map(h.fields, func(f headerField, _ int) string { return f.name })
}

func (h headerBag) all() map[string][]string {
	out := make(map[string][]string, len(h.fields))
	for _, f := range h.fields {
		out[f.name] = slices.Clone(f.values)
	}
	return out
}

func (h headerBag) has(name string) bool {
	_, ok := h.index[strings.ToLower(name)]
	return ok
}

func (h headerBag) get(name string) []string {
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return []string{}
	}
	return slices.Clone(h.fields[i].values)
}

func (h headerBag) line(name string) string {
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return strings.Join(h.fields[i].values, ", ")
}

// with drops any header matching name and appends name, spelled as given,
// with values.
func (h headerBag) with(op, name string, values []string) (headerBag, error) {
	values, err := validateHeader(op, name, values)
	if err != nil {
		return h, err
	}
	out, _ := h.without(name)
	out = out.clone()
	out.append(name, values)
	return out, nil
}

func (h headerBag) withAdded(op, name string, values []string) (headerBag, error) {
	values, err := validateHeader(op, name, values)
	if err != nil {
		return h, err
	}
	out := h.clone()
	if i, ok := out.index[strings.ToLower(name)]; ok {
		out.fields[i].values = append(out.fields[i].values, values...)
		return out, nil
	}
	out.append(name, values)
	return out, nil
}

func (h headerBag) without(name string) (headerBag, bool) {
	key := strings.ToLower(name)
	i, ok := h.index[key]
	if !ok {
		return h, false
	}
	out := headerBag{
		fields: slices.Delete(h.clone().fields, i, i+1),
		index:  make(map[string]int, len(h.index)-1),
	}
	out.reindex()
	return out, true
}

// withHost sets Host to value, moving it to the front when newly added.
func (h headerBag) withHost(value string) headerBag {
	out := h.clone()
	if i, ok := out.index["host"]; ok {
		out.fields[i].values = []string{value}
		return out
	}
	out.fields = slices.Insert(out.fields, 0, headerField{name: "Host", values: []string{value}})
	out.reindex()
	return out
}

func (h *headerBag) append(name string, values []string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[strings.ToLower(name)] = len(h.fields)
	h.fields = append(h.fields, headerField{name: name, values: values})
}

func (h *headerBag) reindex() {
	clear(h.index)
	if h.index == nil {
		h.index = make(map[string]int, len(h.fields))
	}
	for i, f := range h.fields {
		h.index[strings.ToLower(f.name)] = i
	}
}

// validateHeader checks name against the RFC 7230 token grammar and each
// value against visible ASCII, SP and HTAB (obs-text is rejected), returning
// the values trimmed of SP and HTAB.
func validateHeader(op, name string, values []string) ([]string, error) {
	if !httpguts.ValidHeaderFieldName(name) {
		return nil, invalidArgument(op, "header name must be an RFC 7230 compatible string, got %q", name)
	}
	if len(values) == 0 {
		return nil, invalidArgument(op, "header values of %q must be a non-empty list", name)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if !httpguts.ValidHeaderFieldValue(v) || !isASCII(v) {
			return nil, invalidArgument(op, "header value of %q must be an RFC 7230 compatible string, got %q", name, v)
		}
		out[i] = strings.Trim(v, " \t")
	}
	return out, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
