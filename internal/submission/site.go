package submission

import "strings"

const defaultScheme = "https"

// Site is the host a submission targets.
type Site struct {
	Scheme string
	Host   string
}

// ParseSite reads a host field. A leading http:// or https:// is honored; anything else
// is taken as a bare host served over https. Surrounding whitespace and trailing slashes
// are dropped.
func ParseSite(raw string) Site {
	host := strings.TrimSpace(raw)
	scheme := defaultScheme
	for _, s := range []string{"https", "http"} {
		prefix := s + "://"
		if len(host) >= len(prefix) && strings.EqualFold(host[:len(prefix)], prefix) {
			scheme = s
			host = host[len(prefix):]
			break
		}
	}
	return Site{Scheme: scheme, Host: strings.TrimRight(host, "/")}
}

// Origin returns scheme://host.
func (s Site) Origin() string {
	return s.Scheme + "://" + s.Host
}

// KeyLocation is where IndexNow expects the ownership file for key.
func (s Site) KeyLocation(key string) string {
	return s.Origin() + "/" + key + ".txt"
}

// NormalizeURLs makes root-relative entries absolute on site. Other entries pass through
// untouched. The result always has the same length and order as urls.
func NormalizeURLs(site Site, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		if strings.HasPrefix(u, "/") {
			out[i] = site.Origin() + u
			continue
		}
		out[i] = u
	}
	return out
}
