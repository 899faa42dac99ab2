package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const mockMirrorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>PHIVOLCS mirror</title>
	<item>
		<title>EARTHQUAKE Magnitude = 5.2 Depth = 10 km</title>
		<link>https://x.com/phivolcs_dost/status/201</link>
		<pubDate>Tue, 05 Mar 2024 14:32:00 GMT</pubDate>
	</item>
	<item>
		<title>Weather outlook for Tuesday</title>
		<link>https://x.com/phivolcs_dost/status/202</link>
		<pubDate>Tue, 05 Mar 2024 15:00:00 GMT</pubDate>
	</item>
	<item>
		<title>LINDOL advisory, intensity IV</title>
		<link>https://x.com/phivolcs_dost/status/203</link>
		<pubDate>Tue, 05 Mar 2024 16:00:00 GMT</pubDate>
	</item>
	<item>
		<title>LINDOL advisory, intensity IV</title>
		<link>https://x.com/phivolcs_dost/status/203</link>
		<pubDate>Tue, 05 Mar 2024 16:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

var testKeywords = []string{"EARTHQUAKE", "LINDOL", "MAGNITUDE"}

func TestSource_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(mockMirrorFeed))
	}))
	defer server.Close()

	source := NewSource(server.Client(), "test-agent")

	posts, err := source.Run(context.Background(), server.URL, testKeywords)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Two keyword matches, the duplicate entry collapsed.
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	// Most recent first.
	if posts[0].Identifier != "https://x.com/phivolcs_dost/status/203" {
		t.Errorf("Expected the newer post first, got %s", posts[0].Identifier)
	}
	if posts[1].Identifier != "https://x.com/phivolcs_dost/status/201" {
		t.Errorf("Expected the older post second, got %s", posts[1].Identifier)
	}

	if posts[1].PostedAt == "" {
		t.Errorf("Expected the source timestamp string to be carried through")
	}
}

func TestSource_Run_BadFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	source := NewSource(server.Client(), "test-agent")

	if _, err := source.Run(context.Background(), server.URL, testKeywords); err == nil {
		t.Errorf("Expected an error for unparseable feed data")
	}
}

func TestSource_Run_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewSource(server.Client(), "test-agent")

	if _, err := source.Run(context.Background(), server.URL, testKeywords); err == nil {
		t.Errorf("Expected an error for non-200 response")
	}
}
