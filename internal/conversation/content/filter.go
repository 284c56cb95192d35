// Package content enforces outbound message constraints: brand-safe
// language and a hard brevity cap. Every bot reply passes through here
// before it reaches the channel.
package content

import (
	"strings"
	"sync"
)

// DefaultMaxLength is the brevity cap in characters when no explicit
// cap is configured.
const DefaultMaxLength = 300

// sentenceBoundaryRatio: truncating at a sentence boundary is only
// acceptable when it keeps at least this share of the cap.
const sentenceBoundaryRatio = 0.7

// Filter holds the mutable blacklist. Safe for concurrent use; the
// admin API mutates the list while the orchestrator reads it.
type Filter struct {
	mu        sync.RWMutex
	blacklist map[string]struct{}
}

// NewFilter creates a filter with the given initial blacklist phrases.
func NewFilter(phrases ...string) *Filter {
	f := &Filter{blacklist: make(map[string]struct{}, len(phrases))}
	for _, p := range phrases {
		f.AddToBlacklist(p)
	}
	return f
}

// AddToBlacklist adds a phrase, case-insensitively.
func (f *Filter) AddToBlacklist(phrase string) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return
	}
	f.mu.Lock()
	f.blacklist[phrase] = struct{}{}
	f.mu.Unlock()
}

// RemoveFromBlacklist removes a phrase. Removing an absent phrase is a
// no-op.
func (f *Filter) RemoveFromBlacklist(phrase string) {
	f.mu.Lock()
	delete(f.blacklist, strings.ToLower(strings.TrimSpace(phrase)))
	f.mu.Unlock()
}

// Blacklist returns a snapshot of the current phrases.
func (f *Filter) Blacklist() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.blacklist))
	for p := range f.blacklist {
		out = append(out, p)
	}
	return out
}

// IsBrandSafe reports whether the text contains no blacklisted phrase.
func (f *Filter) IsBrandSafe(text string) bool {
	lower := strings.ToLower(text)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for phrase := range f.blacklist {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// Sanitize masks every blacklisted phrase with asterisks, preserving
// length. Matching is case-insensitive.
func (f *Filter) Sanitize(text string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for phrase := range f.blacklist {
		text = maskPhrase(text, phrase)
	}
	return text
}

func maskPhrase(text, phrase string) string {
	lower := strings.ToLower(text)
	mask := strings.Repeat("*", len(phrase))

	var b strings.Builder
	for {
		i := strings.Index(lower, phrase)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(mask)
		text = text[i+len(phrase):]
		lower = lower[i+len(phrase):]
	}
}

// EnforceBrevity truncates text to maxLength characters. When a sentence
// boundary falls in the last 30% of the cap the text is cut there, so
// the reply still ends on a full sentence; otherwise it is hard-cut with
// an ellipsis.
func EnforceBrevity(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	truncated := string(runes[:maxLength])
	if i := strings.LastIndex(truncated, "."); i > int(float64(maxLength)*sentenceBoundaryRatio) {
		return truncated[:i+1]
	}

	return truncated + "..."
}
