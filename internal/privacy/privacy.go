// Package privacy scrubs sensitive material from text that leaves the
// process, such as telemetry messages and log lines. Remote audio URLs may
// embed credentials or patient-identifying paths, so they are reduced to
// stable hashes that still distinguish host classes for debugging.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`\bhttps?://\S+`)

	// Credential shapes that show up outside URLs, e.g. in header dumps
	// or config error text.
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)api[_-]?key[=:]\S+`),
		regexp.MustCompile(`(?i)token[=:]\S+`),
		regexp.MustCompile(`(?i)auth[=:]\S+`),
		regexp.MustCompile(`(?i)bearer\s+\S+`),
	}
)

// ScrubMessage replaces every URL in message with its anonymized form and
// redacts credential-shaped fragments found outside URLs.
func ScrubMessage(message string) string {
	scrubbed := urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	for _, re := range secretPatterns {
		scrubbed = re.ReplaceAllString(scrubbed, "[REDACTED]")
	}
	return scrubbed
}

// AnonymizeURL reduces a URL to a deterministic hash token. The hash input
// keeps the scheme, a coarse host class, the port, and the path shape, so
// distinct endpoints stay distinguishable in aggregated telemetry without
// revealing hostnames, credentials, or file names.
func AnonymizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		sum := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", sum[:8])
	}

	var parts []string
	if parsed.Scheme != "" {
		parts = append(parts, parsed.Scheme)
	}
	if host := parsed.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if port := parsed.Port(); port != "" {
		parts = append(parts, "port-"+port)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		parts = append(parts, anonymizePath(parsed.Path))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", sum[:12])
}

// GenerateSystemID returns a fresh installation identifier in the form
// XXXX-XXXX-XXXX, with the groups drawn from 6 random bytes as uppercase hex.
func GenerateSystemID() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	raw := strings.ToUpper(hex.EncodeToString(buf))
	return raw[:4] + "-" + raw[4:8] + "-" + raw[8:], nil
}

// IsValidSystemID reports whether id looks like a generated system ID.
// Hex digits of either case are accepted.
func IsValidSystemID(id string) bool {
	if len(id) != 14 || id[4] != '-' || id[9] != '-' {
		return false
	}
	_, err := hex.DecodeString(id[:4] + id[5:9] + id[10:])
	return err == nil
}

// categorizeHost maps a hostname or IP literal to a coarse class. Domains
// keep only their TLD.
func categorizeHost(host string) string {
	if host == "localhost" {
		return "localhost"
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		switch {
		case addr.IsLoopback():
			return "localhost"
		case addr.IsPrivate(), addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast(), addr.IsMulticast():
			return "private-ip"
		default:
			return "public-ip"
		}
	}
	if i := strings.LastIndex(host, "."); i >= 0 && i < len(host)-1 {
		return "domain-" + host[i+1:]
	}
	return "unknown-host"
}

// anonymizePath keeps the segment count and the rough kind of each segment
// while hashing anything that could identify a file or a person.
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	segments := strings.Split(path, "/")
	anonymized := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch {
		case segment == "":
			continue
		case isCommonAudioSegment(segment):
			anonymized = append(anonymized, "audio")
		case isNumeric(segment):
			anonymized = append(anonymized, "numeric")
		default:
			sum := sha256.Sum256([]byte(segment))
			anonymized = append(anonymized, fmt.Sprintf("seg-%x", sum[:4]))
		}
	}
	return strings.Join(anonymized, "/")
}

// isCommonAudioSegment reports whether a path segment is a generic audio
// directory name that carries no identifying information.
func isCommonAudioSegment(segment string) bool {
	segment = strings.ToLower(segment)
	for _, name := range []string{"audio", "voice", "recording", "sample", "upload", "media"} {
		if strings.Contains(segment, name) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
