package browser

import (
	"net/http"

	"github.com/mvalderrama/quakewatch/app/scrape"
	"github.com/mvalderrama/quakewatch/app/source"
)

// Factory opens a fresh single-use session per crawl. Crawls own their
// session lifecycle, so nothing browser-side is shared between them.
// The session kind comes from the profile: a full playwright browser by
// default, or a StaticSession for mirrors that render without JavaScript.
type Factory struct {
	headless   bool
	userAgent  string
	httpClient *http.Client
}

func NewFactory(headless bool, userAgent string, httpClient *http.Client) *Factory {
	return &Factory{headless: headless, userAgent: userAgent, httpClient: httpClient}
}

func (f *Factory) NewSession(kind string) (scrape.Session, error) {
	if kind == source.SessionStatic {
		return NewStaticSession(f.httpClient, f.userAgent), nil
	}
	return NewSession(f.headless, f.userAgent)
}
