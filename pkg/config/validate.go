package config

import (
	"fmt"
	"strings"

	"github.com/tinyland-inc/bridgeclaw/pkg/forwarder"
)

// Validate runs every semantic check over the document and accumulates the
// violations instead of stopping at the first, so a single pass reports
// every problem. Returns (true, nil) for a clean document.
func Validate(cfg *Config) (bool, []string) {
	var violations []string

	if msg := validateApplication(cfg.App); msg != "" {
		violations = append(violations, msg)
	}
	if msg := validateOpenAI(cfg.OpenAI); msg != "" {
		violations = append(violations, msg)
	}

	seen := make(map[[2]int64]struct{}, len(cfg.Forwarders))
	for _, fw := range cfg.Forwarders {
		violations = append(violations, validateForwarder(fw, seen)...)
	}

	violations = append(violations, validateSharedHashtags(cfg.Forwarders)...)

	return len(violations) == 0, violations
}

// validateApplication checks the application section. The rotation
// threshold must be positive: a zero limit would make every maintenance
// sweep truncate the history files, wiping all resume points.
func validateApplication(ac AppConfig) string {
	if ac.HistorySizeLimit <= 0 {
		return "application: history_size_limit must be a positive number of megabytes"
	}
	return ""
}

// validateOpenAI checks the sentiment-analysis integration settings: when
// the feature is enabled, the key, organization and prompt template must
// all be present.
func validateOpenAI(oc OpenAIConfig) string {
	if !oc.Enabled {
		return ""
	}
	if oc.APIKey == "" || oc.Organization == "" || oc.SentimentAnalysisPrompt == "" {
		return "openai: api_key, organization and sentiment_analysis_prompt must be set when enabled is true"
	}
	return ""
}

func validateForwarder(fw forwarder.Forwarder, seen map[[2]int64]struct{}) []string {
	var violations []string
	prefix := fmt.Sprintf("forwarder %q:", fw.ForwarderName)

	if !fw.TgChannelID.Valid() {
		violations = append(violations,
			fmt.Sprintf("%s tg_channel_id must be an integer (got %q)", prefix, fw.TgChannelID.String()))
	}
	if !fw.DiscordChannelID.Valid() {
		violations = append(violations,
			fmt.Sprintf("%s discord_channel_id must be an integer (got %q)", prefix, fw.DiscordChannelID.String()))
	}

	// Duplicate (tg, discord) pairs are tracked across all forwarders in
	// document order; only well-typed pairs participate.
	if fw.TgChannelID.Valid() && fw.DiscordChannelID.Valid() {
		pair := [2]int64{fw.TgChannelID.Int64(), fw.DiscordChannelID.Int64()}
		if _, dup := seen[pair]; dup {
			violations = append(violations,
				fmt.Sprintf("%s duplicate forwarder combination (tg_channel_id %d, discord_channel_id %d)",
					prefix, pair[0], pair[1]))
		} else {
			seen[pair] = struct{}{}
		}
	}

	if fw.MentionEveryone {
		for _, tag := range fw.ForwardHashtags {
			if tag.OverrideMentionEveryone {
				violations = append(violations,
					fmt.Sprintf("%s override_mention_everyone has no effect when mention_everyone is true", prefix))
				break
			}
		}
	}

	if shared := forwarder.Intersect(forwarder.Names(fw.ForwardHashtags), forwarder.Names(fw.ExcludedHashtags)); len(shared) > 0 {
		violations = append(violations,
			fmt.Sprintf("%s hashtags [%s] appear in both forward_hashtags and excluded_hashtags",
				prefix, strings.Join(shared, ", ")))
	}

	if !fw.ForwardEverything && len(fw.ForwardHashtags) == 0 {
		violations = append(violations,
			fmt.Sprintf("%s forward_hashtags must be set when forward_everything is false", prefix))
	}

	return violations
}

// validateSharedHashtags checks that forwarders sharing a source channel
// never listen on the same hashtag, which would forward one message twice.
// Detection stops at the first conflicting pair per channel group.
func validateSharedHashtags(forwarders []forwarder.Forwarder) []string {
	var violations []string
	byChannel := make(map[int64][]map[string]struct{})
	conflicted := make(map[int64]bool)

	for _, fw := range forwarders {
		if !fw.TgChannelID.Valid() || len(fw.ForwardHashtags) == 0 {
			continue
		}
		id := fw.TgChannelID.Int64()
		if conflicted[id] {
			continue
		}
		names := forwarder.Names(fw.ForwardHashtags)
		for _, existing := range byChannel[id] {
			if shared := forwarder.Intersect(existing, names); len(shared) > 0 {
				violations = append(violations,
					fmt.Sprintf("shared hashtags [%s] found for forwarders with tg_channel_id %d; the same message would be forwarded more than once",
						strings.Join(shared, ", "), id))
				conflicted[id] = true
				break
			}
		}
		if !conflicted[id] {
			byChannel[id] = append(byChannel[id], names)
		}
	}

	return violations
}
