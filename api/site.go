package api

import (
	"net/url"
	"regexp"
	"strings"
)

// Site is one of the supported imageboards. Every site has exactly one extraction rule.
type Site int

const (
	SiteDvach Site = iota
	SiteArhivach
	SiteFourChan
)

// fourChanBoardsHost completes root-relative links found on 4chan pages.
const fourChanBoardsHost = "https://boards.4chan.org"

// UnknownThreadID is used when the thread number can't be found in the URL.
const UnknownThreadID = "unknown"

var allowedHosts = map[string]Site{
	"2ch.su":           SiteDvach,
	"arhivach.vc":      SiteArhivach,
	"4chan.org":        SiteFourChan,
	"boards.4chan.org": SiteFourChan,
}

var threadIDPattern = regexp.MustCompile(`(?:res/|thread/)(\d+)`)

func (s Site) String() string {
	switch s {
	case SiteDvach:
		return "2ch"
	case SiteArhivach:
		return "arhivach"
	case SiteFourChan:
		return "4chan"
	default:
		return "unknown"
	}
}

func (s Site) rule() extractionRule {
	if s == SiteFourChan {
		return imageBoardRule{}
	}
	return genericRule{}
}

// Thread is a parsed thread URL. It is derived once per run and never changes.
type Thread struct {
	URL  *url.URL
	ID   string
	Site Site
}

// ParseThread validates the thread URL against the list of supported hosts
// and extracts the site and thread id from it.
func ParseThread(rawURL string) (Thread, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Thread{}, &ValidationError{err: ErrInvalidURL, url: rawURL}
	}
	if u.Scheme != "https" || u.Host == "" {
		return Thread{}, &ValidationError{err: ErrInvalidURL, url: rawURL}
	}

	site, ok := siteForHost(u.Hostname())
	if !ok {
		return Thread{}, &ValidationError{err: ErrUnsupportedHost, url: rawURL}
	}

	return Thread{
		URL:  u,
		ID:   ThreadID(u.Path),
		Site: site,
	}, nil
}

// ThreadID returns the thread number from "res/<digits>" or "thread/<digits>".
func ThreadID(path string) string {
	m := threadIDPattern.FindStringSubmatch(path)
	if m == nil {
		return UnknownThreadID
	}
	return m[1]
}

func siteForHost(host string) (Site, bool) {
	host = strings.ToLower(host)
	for {
		if site, ok := allowedHosts[host]; ok {
			return site, true
		}
		_, parent, found := strings.Cut(host, ".")
		if !found {
			return 0, false
		}
		host = parent
	}
}
