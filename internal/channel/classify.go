package channel

import (
	"regexp"
	"strings"
)

// Kind is the classification of a channel name.
type Kind int

const (
	// Public channels require no authentication.
	Public Kind = iota
	// Private channels require authentication before subscription.
	Private
	// Presence channels are private channels with membership tracking.
	Presence
)

func (k Kind) String() string {
	switch k {
	case Private:
		return "private"
	case Presence:
		return "presence"
	default:
		return "public"
	}
}

// Matcher tests channel or event names against a list of glob patterns,
// where "*" matches any run of characters. Patterns are compiled once.
type Matcher struct {
	exprs []*regexp.Regexp
}

// NewMatcher compiles the given glob patterns.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		m.exprs = append(m.exprs, compileGlob(p))
	}
	return m
}

// Match reports whether name matches any of the compiled patterns.
func (m *Matcher) Match(name string) bool {
	for _, re := range m.exprs {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func compileGlob(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}

// Classifier maps channel names to their kind using configured pattern lists.
// Classification is total: every name is exactly one of public, private or
// presence, and presence wins over plain private.
type Classifier struct {
	private  *Matcher
	presence *Matcher
}

// NewClassifier builds a classifier from private and presence pattern lists.
func NewClassifier(privatePatterns, presencePatterns []string) *Classifier {
	return &Classifier{
		private:  NewMatcher(privatePatterns),
		presence: NewMatcher(presencePatterns),
	}
}

// Classify returns the kind of the given channel name.
func (c *Classifier) Classify(name string) Kind {
	if c.presence.Match(name) {
		return Presence
	}
	if c.private.Match(name) {
		return Private
	}
	return Public
}

// IsPrivate reports whether the channel requires authentication.
// Every presence channel is private for authentication purposes, regardless
// of how the private pattern list is configured.
func (c *Classifier) IsPrivate(name string) bool {
	return c.private.Match(name) || c.presence.Match(name)
}

// IsPresence reports whether the channel carries membership tracking.
func (c *Classifier) IsPresence(name string) bool {
	return c.presence.Match(name)
}
