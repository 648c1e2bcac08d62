package forwarder

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChannelID is an int64 channel identifier with a lenient YAML unmarshaler.
// A non-integer scalar does not abort the document parse; it is recorded
// as-is so the validator can report the type violation alongside every
// other problem in the document.
type ChannelID struct {
	value int64
	raw   string
	valid bool
}

// ID wraps a known-good channel identifier.
func ID(v int64) ChannelID {
	return ChannelID{value: v, valid: true}
}

func (c ChannelID) Int64() int64 { return c.value }

// Valid reports whether the configured value was an integer.
func (c ChannelID) Valid() bool { return c.valid }

func (c ChannelID) String() string {
	if c.valid {
		return strconv.FormatInt(c.value, 10)
	}
	return c.raw
}

func (c *ChannelID) UnmarshalYAML(node *yaml.Node) error {
	var v int64
	if err := node.Decode(&v); err == nil {
		*c = ChannelID{value: v, valid: true}
		return nil
	}
	*c = ChannelID{raw: node.Value}
	return nil
}

// HashtagRule is a named tag that includes or excludes messages from
// forwarding. A forward rule may override the forwarder-wide
// mention-everyone policy for messages carrying this tag.
type HashtagRule struct {
	Name                    string `yaml:"name"`
	OverrideMentionEveryone bool   `yaml:"override_mention_everyone"`
}

// Forwarder binds one Telegram source channel to one Discord destination
// channel with a filtering policy. Constructed at configuration load and
// immutable afterwards; a reload produces a brand-new rule set.
type Forwarder struct {
	ForwarderName     string        `yaml:"forwarder_name"`
	TgChannelID       ChannelID     `yaml:"tg_channel_id"`
	DiscordChannelID  ChannelID     `yaml:"discord_channel_id"`
	ForwardEverything bool          `yaml:"forward_everything"`
	ForwardHashtags   []HashtagRule `yaml:"forward_hashtags"`
	ExcludedHashtags  []HashtagRule `yaml:"excluded_hashtags"`
	MentionEveryone   bool          `yaml:"mention_everyone"`
}

// Names returns the lowercased tag names of the given rules as a set.
func Names(rules []HashtagRule) map[string]struct{} {
	set := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		set[strings.ToLower(r.Name)] = struct{}{}
	}
	return set
}

// Intersect returns the sorted intersection of two tag-name sets.
func Intersect(a, b map[string]struct{}) []string {
	var shared []string
	for name := range a {
		if _, ok := b[name]; ok {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	return shared
}

// RuleSet is the validated, ordered collection of forwarders for one
// configuration version. Immutable; concurrent readers need no lock.
type RuleSet struct {
	forwarders []Forwarder
}

func NewRuleSet(forwarders []Forwarder) *RuleSet {
	rs := &RuleSet{forwarders: make([]Forwarder, len(forwarders))}
	copy(rs.forwarders, forwarders)
	return rs
}

func (rs *RuleSet) Len() int { return len(rs.forwarders) }

// Forwarders returns the directives in document order. Callers must treat
// the returned slice as read-only.
func (rs *RuleSet) Forwarders() []Forwarder { return rs.forwarders }

// ByName looks up a forwarder by its unique name.
func (rs *RuleSet) ByName(name string) (Forwarder, bool) {
	for _, fw := range rs.forwarders {
		if fw.ForwarderName == name {
			return fw, true
		}
	}
	return Forwarder{}, false
}

// TelegramChannelFor returns the source channel bound to the named forwarder.
func (rs *RuleSet) TelegramChannelFor(name string) (int64, bool) {
	fw, ok := rs.ByName(name)
	if !ok {
		return 0, false
	}
	return fw.TgChannelID.Int64(), true
}
