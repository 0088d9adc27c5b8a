package declare

import (
	"net/url"
	"strings"
)

// Options configures a test or a group. Extra carries pass-through fields that the
// execution engine interprets; the registry only merges them.
type Options struct {
	URL    string         `yaml:"url,omitempty" json:"url,omitempty"`
	Prompt string         `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Extra  map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// Clone returns a copy of o whose Extra map is not shared.
func (o Options) Clone() Options {
	out := o
	if o.Extra != nil {
		out.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// overlay applies over on top of base, last value wins per key. Empty strings count as
// unset. URL is copied naively here; callers resolve it with ResolveURL.
func overlay(base, over Options) Options {
	out := base.Clone()
	if over.URL != "" {
		out.URL = over.URL
	}
	if over.Prompt != "" {
		out.Prompt = over.Prompt
	}
	for k, v := range over.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(over.Extra))
		}
		out.Extra[k] = v
	}
	return out
}

// mergeGroups folds the options of every group on the stack, outermost first. The URL
// of the result is naive; callers resolve it with ResolveURL.
func mergeGroups(groups []Group) Options {
	var merged Options
	for _, g := range groups {
		merged = overlay(merged, g.Options)
	}
	return merged
}

// ResolveURL picks the effective URL from candidates ordered from least to most specific
// (worker default, enclosing group, test). Empty candidates are skipped so they never
// mask an ancestor value. An absolute candidate replaces the current value; a relative
// reference ("/login", "./next", "?q=1") resolves against it. A relative candidate with
// nothing to resolve against is not usable. The result has a scheme, or is empty.
func ResolveURL(candidates ...string) string {
	var result string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !IsRelativeRef(c) {
			result = AddProtocolIfMissing(c)
			continue
		}
		if result == "" {
			continue
		}
		base, err := url.Parse(result)
		if err != nil {
			continue
		}
		ref, err := url.Parse(c)
		if err != nil {
			continue
		}
		result = base.ResolveReference(ref).String()
	}
	return result
}

// IsRelativeRef reports whether u is a reference that only resolves against a base URL.
func IsRelativeRef(u string) bool {
	return strings.HasPrefix(u, "/") ||
		strings.HasPrefix(u, "./") ||
		strings.HasPrefix(u, "../") ||
		strings.HasPrefix(u, "?") ||
		strings.HasPrefix(u, "#")
}

// AddProtocolIfMissing prefixes a scheme-less URL with https://, or http:// for local
// hosts.
func AddProtocolIfMissing(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	host := strings.ToLower(u)
	if strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1") || strings.HasPrefix(host, "0.0.0.0") {
		return "http://" + u
	}
	return "https://" + u
}
