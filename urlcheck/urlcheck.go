// Package urlcheck normalizes user supplied URLs and rejects targets on
// private or local networks before anything is fetched.
//
// The checks are purely syntactic. No DNS resolution happens here, so a public
// hostname that resolves to a private address is not caught.
package urlcheck

import (
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/seo-optimizer/seoscan/errs"
)

// MaxLength is the longest URL accepted, in bytes.
const MaxLength = 2048

// Policy controls the call-site specific parts of validation.
type Policy struct {
	// RequireScheme rejects input without an explicit scheme instead of
	// defaulting to https.
	RequireScheme bool
}

var (
	dottedQuad    = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)
	leadingScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// Validate returns the normalized absolute form of raw or an errs.InvalidURL error.
func Validate(raw string, policy Policy) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errs.New(errs.InvalidURL, "url is empty")
	}
	if len(s) > MaxLength {
		return "", errs.New(errs.InvalidURL, "url is too long")
	}

	if !leadingScheme.MatchString(s) {
		if policy.RequireScheme {
			return "", errs.New(errs.InvalidURL, "url has no scheme")
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", errs.Wrap(errs.InvalidURL, "url does not parse", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errs.New(errs.InvalidURL, "scheme not allowed: "+u.Scheme)
	}
	if u.User != nil {
		return "", errs.New(errs.InvalidURL, "url carries credentials")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errs.New(errs.InvalidURL, "url has no host")
	}
	if IsBlockedHost(host) {
		return "", errs.New(errs.InvalidURL, "host not allowed: "+host)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// IsBlockedHost reports whether host (without port or brackets) names a
// local, loopback or private target.
func IsBlockedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	switch {
	case host == "localhost", strings.HasSuffix(host, ".localhost"):
		return true
	case strings.HasSuffix(host, ".local"):
		return true
	case host == "0.0.0.0", host == "::1":
		return true
	}

	if strings.Contains(host, ":") {
		return isBlockedIPv6(host)
	}
	if octets, ok := parseIPv4(host); ok {
		return isPrivateIPv4(octets)
	}
	return false
}

func isBlockedIPv6(host string) bool {
	if strings.HasPrefix(host, "fe80:") || strings.HasPrefix(host, "fc") || strings.HasPrefix(host, "fd") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		// unparseable literal, let the fetch fail on its own
		return false
	}
	if addr.Is4In6() {
		a := addr.Unmap().As4()
		return isPrivateIPv4(a)
	}
	return addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() || addr.IsPrivate()
}

func parseIPv4(host string) ([4]byte, bool) {
	var out [4]byte
	if !dottedQuad.MatchString(host) {
		return out, false
	}
	for i, part := range strings.Split(host, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return out, false
		}
		out[i] = byte(n)
	}
	return out, true
}

func isPrivateIPv4(o [4]byte) bool {
	a, b := o[0], o[1]
	switch {
	case a == 10, a == 127, a == 0:
		return true
	case a == 169 && b == 254:
		return true
	case a == 192 && b == 168:
		return true
	case a == 172 && b >= 16 && b <= 31:
		return true
	}
	return false
}
