package browser

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const mockFeedPage = `<!DOCTYPE html>
<html>
<body>
	<article data-testid="tweet">
		<div data-testid="tweetText">EARTHQUAKE Magnitude = 5.1</div>
		<time datetime="2024-03-05T14:32:00Z">Mar 5</time>
		<a href="/phivolcs_dost/status/100">link</a>
	</article>
	<article data-testid="tweet">
		<div data-testid="tweetText">Weather advisory</div>
	</article>
</body>
</html>`

func TestStaticSession_FindAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mockFeedPage))
	}))
	defer server.Close()

	session := NewStaticSession(server.Client(), "test-agent")
	if err := session.Open(server.URL); err != nil {
		t.Fatalf("Expected no error opening page, got: %v", err)
	}
	defer session.Close()

	articles := session.FindAll(`article[data-testid*="tweet"]`)
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	texts := articles[0].FindAll(`div[data-testid*="tweetText"]`)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text block, got %d", len(texts))
	}
	text, err := texts[0].Text()
	if err != nil {
		t.Fatalf("Expected no error reading text, got: %v", err)
	}
	if text != "EARTHQUAKE Magnitude = 5.1" {
		t.Errorf("Unexpected text: %q", text)
	}

	times := articles[0].FindAll("time")
	if len(times) != 1 {
		t.Fatalf("Expected 1 time element, got %d", len(times))
	}
	datetime, err := times[0].Attribute("datetime")
	if err != nil {
		t.Fatalf("Expected no error reading attribute, got: %v", err)
	}
	if datetime != "2024-03-05T14:32:00Z" {
		t.Errorf("Unexpected datetime: %q", datetime)
	}
}

func TestStaticSession_WaitForAllTimesOutOnNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	session := NewStaticSession(server.Client(), "")
	if err := session.Open(server.URL); err != nil {
		t.Fatalf("Expected no error opening page, got: %v", err)
	}
	defer session.Close()

	if _, err := session.WaitForAll("article", time.Second); err == nil {
		t.Errorf("Expected a timeout error for missing elements")
	}
}

func TestStaticSession_MissingAttributeIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/x">x</a></body></html>`))
	}))
	defer server.Close()

	session := NewStaticSession(server.Client(), "")
	if err := session.Open(server.URL); err != nil {
		t.Fatalf("Expected no error opening page, got: %v", err)
	}
	defer session.Close()

	links := session.FindAll("a")
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	role, err := links[0].Attribute("role")
	if err != nil {
		t.Fatalf("Expected no error for missing attribute, got: %v", err)
	}
	if role != "" {
		t.Errorf("Expected empty value for missing attribute, got %q", role)
	}
}
