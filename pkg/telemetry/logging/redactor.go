package logging

import (
	"log/slog"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

// Redactor masks credentials, and optionally IP addresses, in log output.
type Redactor struct {
	patterns  []*redactPattern
	redactIPs bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternDSNPassword = "dsn_password"
	PatternPassword    = "password"
)

var (
	ipv4Candidate = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	ipv6Candidate = regexp.MustCompile(`[0-9A-Fa-f]*:[0-9A-Fa-f:]*:[0-9A-Fa-f.]*(?:%[0-9A-Za-z_.-]+)?`)
)

var sensitiveKeys = []string{"password", "passwd", "pwd", "secret", "token"}

// NewRedactor creates a Redactor. Credentials are always masked; IP
// addresses only when redactIPs is set.
func NewRedactor(redactIPs bool) *Redactor {
	return &Redactor{
		redactIPs: redactIPs,
		patterns: []*redactPattern{
			{
				// user:secret@tcp(host:3306)/db as built by the MySQL driver
				name:        PatternDSNPassword,
				regex:       regexp.MustCompile(`([^\s:/@]+):[^\s@]*@(tcp|unix)\(`),
				replacement: "$1:***@$2(",
			},
			{
				name:        PatternPassword,
				regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)(\s*[:=]\s*)[^\s&,;]+`),
				replacement: "$1$2***",
			},
		},
	}
}

// RedactString masks sensitive substrings of value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}

	if r.redactIPs {
		value = ipv4Candidate.ReplaceAllStringFunc(value, redactIfIP)
		value = ipv6Candidate.ReplaceAllStringFunc(value, redactIfIP)
	}

	return value
}

// RedactAttr returns a with sensitive values masked. Groups are redacted
// recursively and errors are flattened to their redacted message.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if isSensitiveKey(a.Key) {
		if v.Kind() == slog.KindString && v.String() == "" {
			return slog.String(a.Key, "")
		}
		return slog.String(a.Key, "***")
	}

	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}

	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))

	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, r.RedactString(x.Error()))
		case []string:
			if r.redactIPs {
				out := make([]string, len(x))
				for i, s := range x {
					out[i] = r.RedactString(s)
				}
				return slog.Any(a.Key, out)
			}
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func redactIfIP(candidate string) string {
	addr, err := netip.ParseAddr(candidate)
	if err != nil {
		return candidate
	}
	return RedactIP(addr.String())
}

// RedactIP masks an IP address, keeping only the first IPv4 octet or the
// first IPv6 group. Values that are not addresses are returned unchanged.
func RedactIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	if addr.Is4() || addr.Is4In6() {
		a := addr.Unmap().As4()
		return strconv.Itoa(int(a[0])) + ".*.*.*"
	}
	first, _, _ := strings.Cut(addr.WithZone("").String(), ":")
	if first == "" {
		first = "0"
	}
	return first + ":*:*:*"
}

// RedactDSN masks the password in a MySQL driver DSN.
func RedactDSN(dsn string) string {
	return NewRedactor(false).RedactString(dsn)
}
