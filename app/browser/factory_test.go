package browser

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvalderrama/quakewatch/app/source"
)

func TestFactory_NewSessionStaticKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mockFeedPage))
	}))
	defer server.Close()

	factory := NewFactory(true, "test-agent", server.Client())

	session, err := factory.NewSession(source.SessionStatic)
	if err != nil {
		t.Fatalf("Expected no error opening static session, got: %v", err)
	}
	defer session.Close()

	if _, ok := session.(*StaticSession); !ok {
		t.Fatalf("Expected a static session for kind %q, got %T", source.SessionStatic, session)
	}

	if err := session.Open(server.URL); err != nil {
		t.Fatalf("Expected no error opening page, got: %v", err)
	}
	articles := session.FindAll(`article[data-testid*="tweet"]`)
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles through the factory session, got %d", len(articles))
	}
}
