package audit

import "regexp"

const redacted = "[REDACTED]"

// redactionPattern pairs a compiled matcher with how much of the match to
// replace: the whole match, or (when groupIdx > 0) just that capture group
// — used for key=value assignments where the key name itself is not a
// secret and should remain legible.
type redactionPattern struct {
	re       *regexp.Regexp
	groupIdx int
}

// redactionPatterns holds the five secret shapes redacted from audit
// fields, applied in this fixed order. None of them can match a 64-char
// lowercase hex digest or a plain "namespace:segment" action identifier,
// which is the property exercised by the redactor's tests.
var redactionPatterns = []redactionPattern{
	// 1. Source-forge personal/OAuth/installation tokens.
	{re: regexp.MustCompile(`\b(?:ghp_|gho_|ghs_|github_pat_)[A-Za-z0-9_]{36,}\b`)},
	// 2. Chat-bot style bot token: long numeric id, colon, url-safe payload.
	{re: regexp.MustCompile(`\b\d{8,}:[A-Za-z0-9_-]{35,}\b`)},
	// 3. HTTP Authorization header value.
	{re: regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9+/_.=-]{8,}\b`)},
	// 4. Key=value secret assignments; only the value is replaced.
	{re: regexp.MustCompile(`(?i)\b(?:api[_-]?key|api[_-]?secret|access[_-]?token|auth[_-]?token|authorization_token|bearer[_-]?token|secret[_-]?key|private[_-]?key|password|passwd|credential|token)\s*[:=]\s*([^\s"']{8,})`), groupIdx: 1},
	// 5. JSON web tokens.
	{re: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`)},
}

// Redact replaces every secret-pattern match in s with [REDACTED], applying
// all five patterns in order. Plain prose, structured action identifiers
// (e.g. "git:privileged:push"), ISO-8601 timestamps, short numeric ids,
// and 64-char hex digests are never matched and pass through unchanged.
func Redact(s string) string {
	for _, p := range redactionPatterns {
		if p.groupIdx == 0 {
			s = p.re.ReplaceAllString(s, redacted)
			continue
		}
		s = p.re.ReplaceAllStringFunc(s, func(match string) string {
			loc := p.re.FindStringSubmatchIndex(match)
			if loc == nil {
				return match
			}
			start, end := loc[2*p.groupIdx], loc[2*p.groupIdx+1]
			if start < 0 || end < 0 {
				return match
			}
			return match[:start] + redacted + match[end:]
		})
	}
	return s
}

// RedactEntry returns a copy of e with Actor, Action, Target, and Reason
// redacted. CommandHash, Role, Decision, and Timestamp are never touched.
func RedactEntry(e Entry) Entry {
	e.Actor = Redact(e.Actor)
	e.Action = Redact(e.Action)
	e.Target = Redact(e.Target)
	e.Reason = Redact(e.Reason)
	return e
}
