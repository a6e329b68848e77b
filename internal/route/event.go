// Package route turns dashboard URLs into navigation events and dispatches each event to the
// first registered pattern that matches it.
package route

import (
	"net/url"
	"strings"
)

// Event is one parsed navigation. It is produced once per navigation and never modified.
type Event struct {
	Raw   string
	Path  []string
	Query url.Values
}

// Parse accepts any of
//
//	#constituencies/aberdeen-south
//	party-trends/leading-party-by-issue
//	#constituencies/bristol-west?filter=leading-party-for-each-constituency
//	?filter=strength-of-political-parties&party=labour#party-trends
//	https://host/page?filter=x#countries/wales
//
// A query in front of the hash (location.search) is merged with one inside the fragment;
// fragment values come first.
func Parse(raw string) Event {
	raw = strings.TrimSpace(raw)
	ev := Event{Raw: raw, Query: url.Values{}}

	search, fragment := "", raw
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		before := raw[:i]
		fragment = raw[i+1:]
		if j := strings.IndexByte(before, '?'); j >= 0 {
			search = before[j+1:]
		}
	}

	pathPart, fragQuery := fragment, ""
	if i := strings.IndexByte(fragment, '?'); i >= 0 {
		pathPart, fragQuery = fragment[:i], fragment[i+1:]
	}

	for _, seg := range strings.Split(strings.Trim(pathPart, "/"), "/") {
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		ev.Path = append(ev.Path, seg)
	}

	// ParseQuery keeps every well-formed pair even when it reports an error
	for _, q := range []string{fragQuery, search} {
		values, _ := url.ParseQuery(q)
		for k, vs := range values {
			for _, v := range vs {
				ev.Query.Add(k, v)
			}
		}
	}
	expandEmbedded(ev.Query)

	return ev
}

// expandEmbedded lifts "k=v" pairs hidden in an escaped value, as in
// filter=strength-of-political-parties%26party%3Dlabour, into their own keys unless already set.
func expandEmbedded(q url.Values) {
	for key, vs := range q {
		for _, v := range vs {
			if !strings.Contains(v, "&") {
				continue
			}
			for _, pair := range strings.Split(v, "&")[1:] {
				k, val, ok := strings.Cut(pair, "=")
				if !ok || k == "" || k == key {
					continue
				}
				if _, exists := q[k]; !exists {
					q.Set(k, val)
				}
			}
		}
	}
}

// Segment returns the i-th path segment or ""
func (e Event) Segment(i int) string {
	if i < 0 || i >= len(e.Path) {
		return ""
	}
	return e.Path[i]
}

// Fragment renders the event's path back into "#a/b"
func (e Event) Fragment() string {
	return "#" + strings.Join(escapeSegments(e.Path), "/")
}

func escapeSegments(path []string) []string {
	out := make([]string, len(path))
	for i, seg := range path {
		out[i] = url.PathEscape(seg)
	}
	return out
}

// FormatURL builds the outbound fragment URL: "#a/b" followed by "?filter=<filter>" when a filter
// is active. filter may itself carry trailing "&key=value" pairs, which are kept as query pairs.
func FormatURL(path []string, filter string) string {
	var b strings.Builder
	b.WriteString("#")
	b.WriteString(strings.Join(escapeSegments(path), "/"))
	if filter == "" {
		return b.String()
	}
	parts := strings.Split(filter, "&")
	b.WriteString("?filter=")
	b.WriteString(url.QueryEscape(parts[0]))
	for _, pair := range parts[1:] {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		b.WriteString("&")
		b.WriteString(url.QueryEscape(k))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}
