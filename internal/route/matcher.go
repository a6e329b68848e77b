package route

import (
	"fmt"
	"sort"
	"strings"

	"resultsdash/internal"
)

// Params holds the values a pattern captured, keyed by capture name
type Params map[string]string

// Handler receives a matched event and its captures
type Handler func(ev Event, params Params)

// Pattern decides whether an event has its shape.
type Pattern interface {
	Match(ev Event) (Params, bool)

	// Covers reports whether every event other matches is also matched by this pattern. A pattern
	// that covers a later one makes the later one unreachable under first-match-wins.
	Covers(other Pattern) bool

	String() string
}

// SegmentPattern matches the fragment path. Segments starting with ':' capture; a trailing '?'
// marks the last segment optional. Other segments are literals.
type SegmentPattern struct {
	segments []string
	optional bool
}

// Segments compiles a pattern such as ":tabItem/:item?" or "party-trends/:trendType"
func Segments(pattern string) (*SegmentPattern, error) {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	p := &SegmentPattern{}
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("pattern %q has an empty segment", pattern)
		}
		if strings.HasSuffix(part, "?") {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: only the last segment may be optional", pattern)
			}
			p.optional = true
			part = strings.TrimSuffix(part, "?")
		}
		p.segments = append(p.segments, part)
	}
	return p, nil
}

func (p *SegmentPattern) required() int {
	if p.optional {
		return len(p.segments) - 1
	}
	return len(p.segments)
}

// Match implements Pattern
func (p *SegmentPattern) Match(ev Event) (Params, bool) {
	if len(ev.Path) < p.required() || len(ev.Path) > len(p.segments) || len(ev.Path) == 0 {
		return nil, false
	}
	params := Params{}
	for i, seg := range p.segments {
		if i >= len(ev.Path) {
			break
		}
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			params[name] = ev.Path[i]
			continue
		}
		if seg != ev.Path[i] {
			return nil, false
		}
	}
	return params, true
}

// Covers implements Pattern
func (p *SegmentPattern) Covers(other Pattern) bool {
	o, ok := other.(*SegmentPattern)
	if !ok {
		return false
	}
	if o.required() < p.required() || len(o.segments) > len(p.segments) {
		return false
	}
	for i, seg := range o.segments {
		mine := p.segments[i]
		if strings.HasPrefix(mine, ":") {
			continue
		}
		if strings.HasPrefix(seg, ":") || seg != mine {
			return false
		}
	}
	return true
}

func (p *SegmentPattern) String() string {
	s := strings.Join(p.segments, "/")
	if p.optional {
		s += "?"
	}
	return s
}

// QueryPattern matches query predicates regardless of the path. Equals pins a key's primary
// token (the part before any '&'); Captures requires a key to be present and captures it.
type QueryPattern struct {
	Equals   map[string]string
	Captures []string
}

// Query builds a QueryPattern from "key=value" predicates and bare capture keys, e.g.
// Query("filter=strength-of-political-parties", "party")
func Query(predicates ...string) *QueryPattern {
	p := &QueryPattern{Equals: map[string]string{}}
	for _, pred := range predicates {
		if k, v, ok := strings.Cut(pred, "="); ok {
			p.Equals[k] = v
			continue
		}
		p.Captures = append(p.Captures, pred)
	}
	return p
}

// Primary returns value up to the first '&'
func Primary(value string) string {
	token, _, _ := strings.Cut(value, "&")
	return token
}

// Match implements Pattern. Every pinned key is captured too, with its full value.
func (p *QueryPattern) Match(ev Event) (Params, bool) {
	params := Params{}
	for k, want := range p.Equals {
		if _, ok := ev.Query[k]; !ok {
			return nil, false
		}
		got := ev.Query.Get(k)
		if Primary(got) != want {
			return nil, false
		}
		params[k] = got
	}
	for _, k := range p.Captures {
		if _, ok := ev.Query[k]; !ok {
			return nil, false
		}
		params[k] = ev.Query.Get(k)
	}
	return params, true
}

func (p *QueryPattern) requiredKeys() map[string]bool {
	keys := make(map[string]bool, len(p.Equals)+len(p.Captures))
	for k := range p.Equals {
		keys[k] = true
	}
	for _, k := range p.Captures {
		keys[k] = true
	}
	return keys
}

// Covers implements Pattern
func (p *QueryPattern) Covers(other Pattern) bool {
	o, ok := other.(*QueryPattern)
	if !ok {
		return false
	}
	theirs := o.requiredKeys()
	for k := range p.requiredKeys() {
		if !theirs[k] {
			return false
		}
	}
	for k, v := range p.Equals {
		if ov, ok := o.Equals[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (p *QueryPattern) String() string {
	parts := make([]string, 0, len(p.Equals)+len(p.Captures))
	for k, v := range p.Equals {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	for _, k := range p.Captures {
		parts = append(parts, k+"=:"+k)
	}
	return "?" + strings.Join(parts, "&")
}

type entry struct {
	pattern Pattern
	handler Handler
}

// Matcher holds patterns in registration order and dispatches first-match-wins.
type Matcher struct {
	routes []entry
	log    *internal.Logger
}

// NewMatcher creates an empty matcher
func NewMatcher(logger *internal.Logger) *Matcher {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Matcher{log: logger.With("route")}
}

// Handle appends a pattern. Patterns must be registered most specific first: registering a
// pattern that an earlier one already covers is an error, since it could never be reached.
func (m *Matcher) Handle(p Pattern, h Handler) error {
	for _, r := range m.routes {
		if r.pattern.Covers(p) {
			return fmt.Errorf("route %s is unreachable: %s was registered first and matches everything it does", p, r.pattern)
		}
	}
	m.routes = append(m.routes, entry{pattern: p, handler: h})
	return nil
}

// Dispatch parses raw and runs the first matching handler. It returns false, and changes nothing,
// when no pattern matches.
func (m *Matcher) Dispatch(raw string) bool {
	return m.DispatchEvent(Parse(raw))
}

// DispatchEvent is Dispatch for an already parsed event
func (m *Matcher) DispatchEvent(ev Event) bool {
	for _, r := range m.routes {
		if params, ok := r.pattern.Match(ev); ok {
			m.log.Debug("%q matched %s", ev.Raw, r.pattern)
			r.handler(ev, params)
			return true
		}
	}
	m.log.Debug("%q matched no route", ev.Raw)
	return false
}

// Patterns lists the registered patterns in dispatch order
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.routes))
	for i, r := range m.routes {
		out[i] = r.pattern.String()
	}
	return out
}
