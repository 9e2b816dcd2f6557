package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *TwitterClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
	return newTwitterClient(ts, srv.URL, 2*time.Second, srv.Client().Transport, nil)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestNewTwitterClient_DisabledWithoutToken(t *testing.T) {
	t.Parallel()

	p := NewTwitterClient("", "", 0, nil)
	if _, ok := p.(Disabled); !ok {
		t.Fatalf("expected Disabled provider, got %T", p)
	}
	if _, err := p.LookupProfile(context.Background(), "acme"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("LookupProfile() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestTwitterClient_LookupProfile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/acme", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user.fields"); got != "description,public_metrics" {
			t.Errorf("user.fields = %q", got)
		}
		writeJSON(w, `{"data":{"id":"42","name":"Acme Corp","username":"acme","description":"We build widgets",
			"public_metrics":{"followers_count":5000,"following_count":12,"tweet_count":900}}}`)
	})
	mux.HandleFunc("/2/users/by/username/ghost", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"errors":[{"title":"Not Found Error","detail":"Could not find user"}]}`)
	})
	c := newTestClient(t, mux)

	p, err := c.LookupProfile(context.Background(), "acme")
	if err != nil {
		t.Fatalf("LookupProfile() error = %v", err)
	}
	if p.Name != "Acme Corp" || p.Bio != "We build widgets" || p.Followers != 5000 || p.PostCount != 900 {
		t.Errorf("unexpected profile %+v", p)
	}

	if _, err := c.LookupProfile(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupProfile(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestTwitterClient_RecentPosts(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/42/tweets", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("max_results") != "5" {
			t.Errorf("max_results = %q, want clamped to 5", q.Get("max_results"))
		}
		if q.Get("exclude") != "replies,retweets" {
			t.Errorf("exclude = %q", q.Get("exclude"))
		}
		writeJSON(w, `{"data":[
			{"id":"3","text":"third","created_at":"2024-05-03T10:00:00.000Z",
			 "public_metrics":{"like_count":10,"retweet_count":2},
			 "entities":{"hashtags":[{"tag":"golang"},{"tag":"golang"}],"urls":[{"title":"Launch post"}]},
			 "context_annotations":[{"domain":{"name":"Tech"},"entity":{"name":"Go"}}]},
			{"id":"2","text":"second","created_at":"2024-05-02T10:00:00.000Z","public_metrics":{"like_count":1}},
			{"id":"1","text":"first","created_at":"2024-05-01T10:00:00.000Z","public_metrics":{"like_count":0}},
			{"id":"0","text":"zeroth","created_at":"2024-04-30T10:00:00.000Z","public_metrics":{"like_count":0}}
		]}`)
	})
	c := newTestClient(t, mux)

	posts, err := c.RecentPosts(context.Background(), "42", 3)
	if err != nil {
		t.Fatalf("RecentPosts() error = %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len(posts) = %d, want 3", len(posts))
	}
	first := posts[0]
	if first.Engagement() != 12 {
		t.Errorf("Engagement() = %d, want 12", first.Engagement())
	}
	if len(first.Hashtags) != 1 || first.Hashtags[0] != "golang" {
		t.Errorf("Hashtags = %v", first.Hashtags)
	}
	if len(first.LinkTitles) != 1 || len(first.Topics) != 2 {
		t.Errorf("LinkTitles = %v, Topics = %v", first.LinkTitles, first.Topics)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}

func TestTwitterClient_LookupPost(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets/99", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("expansions") != "author_id" {
			t.Errorf("expansions = %q", r.URL.Query().Get("expansions"))
		}
		writeJSON(w, `{"data":{"id":"99","text":"Shipping beats perfection","author_id":"7","conversation_id":"99",
			"public_metrics":{"like_count":5,"retweet_count":1}},
			"includes":{"users":[{"id":"7","name":"Jane","username":"jane","public_metrics":{"followers_count":10}}]}}`)
	})
	c := newTestClient(t, mux)

	post, author, err := c.LookupPost(context.Background(), "99")
	if err != nil {
		t.Fatalf("LookupPost() error = %v", err)
	}
	if post.Text != "Shipping beats perfection" || post.ConversationID != "99" {
		t.Errorf("unexpected post %+v", post)
	}
	if author == nil || author.Username != "jane" {
		t.Errorf("unexpected author %+v", author)
	}
}

func TestTwitterClient_ConversationSortedOldestFirst(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets/search/recent", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "conversation_id:99" {
			t.Errorf("query = %q", got)
		}
		writeJSON(w, `{"data":[
			{"id":"101","text":"2/ later","created_at":"2024-05-01T10:02:00.000Z"},
			{"id":"100","text":"1/ earlier","created_at":"2024-05-01T10:01:00.000Z"}
		]}`)
	})
	c := newTestClient(t, mux)

	posts, err := c.Conversation(context.Background(), "99")
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "100" || posts[1].ID != "101" {
		t.Errorf("unexpected order %+v", posts)
	}
}

func TestTwitterClient_Errors(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/limited", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("/2/tweets/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/2/users/by/username/garbled", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{not json`)
	})
	c := newTestClient(t, mux)

	if _, err := c.LookupProfile(context.Background(), "limited"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("429 error = %v, want ErrProviderUnavailable", err)
	}
	if _, _, err := c.LookupPost(context.Background(), "404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 error = %v, want ErrNotFound", err)
	}
	if _, err := c.LookupProfile(context.Background(), "garbled"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("decode error = %v, want ErrProviderUnavailable", err)
	}
}

func TestTwitterClient_TimeoutKeepsCause(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
	c := newTwitterClient(ts, srv.URL, 50*time.Millisecond, srv.Client().Transport, nil)

	_, err := c.LookupProfile(context.Background(), "slow")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded in the chain", err)
	}
}
