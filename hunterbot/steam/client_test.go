package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	lru "github.com/hashicorp/golang-lru"
)

func testClient(t *testing.T, apiKey string, handlerFn http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handlerFn)
	t.Cleanup(srv.Close)

	cache, _ := lru.New(vanityCacheSize)
	return &Client{
		apiKey:      apiKey,
		apiBase:     srv.URL,
		httpClient:  srv.Client(),
		vanityCache: cache,
	}
}

func Test_ResolveSteamID(t *testing.T) {
	c := testClient(t, "", nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare steam64",
			input: "76561198000000001",
			want:  "76561198000000001",
		},
		{
			name:  "profiles url",
			input: "https://steamcommunity.com/profiles/76561198000000001",
			want:  "76561198000000001",
		},
		{
			name:  "profiles url with trailing slash",
			input: "https://steamcommunity.com/profiles/76561198000000001/",
			want:  "76561198000000001",
		},
		{
			name:    "garbage",
			input:   "not a steam id",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "1234567",
			wantErr: true,
		},
		{
			name:    "vanity url without api key",
			input:   "https://steamcommunity.com/id/gaben",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ResolveSteamID(ctx, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveSteamID(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveSteamID(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ResolveSteamID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func Test_ResolveVanityURL(t *testing.T) {
	var calls int32
	c := testClient(t, "key", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"response":{"success":1,"steamid":"76561198000000001"}}`))
	})
	ctx := context.Background()

	got, err := c.ResolveVanityURL(ctx, "gaben")
	if err != nil {
		t.Fatalf("ResolveVanityURL() error = %v", err)
	}
	if got != "76561198000000001" {
		t.Errorf("ResolveVanityURL() = %q", got)
	}

	// Second lookup is served from the cache.
	if _, err := c.ResolveVanityURL(ctx, "gaben"); err != nil {
		t.Fatalf("cached ResolveVanityURL() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("api calls = %d, want 1", n)
	}
}

func Test_ResolveVanityURL_NoMatch(t *testing.T) {
	c := testClient(t, "key", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"success":42}}`))
	})

	if _, err := c.ResolveVanityURL(context.Background(), "nobody"); err == nil {
		t.Fatal("expected error for unresolved vanity name")
	}
}

func Test_VerifyAccount(t *testing.T) {
	t.Run("keyless falls back to shape check", func(t *testing.T) {
		c := testClient(t, "", nil)

		ok, err := c.VerifyAccount(context.Background(), "76561198000000001")
		if err != nil || !ok {
			t.Errorf("VerifyAccount() = %v, %v, want true, nil", ok, err)
		}

		ok, err = c.VerifyAccount(context.Background(), "bogus")
		if err != nil || ok {
			t.Errorf("VerifyAccount() = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("with key checks player summaries", func(t *testing.T) {
		c := testClient(t, "key", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"players":[{"steamid":"76561198000000001"}]}}`))
		})

		ok, err := c.VerifyAccount(context.Background(), "76561198000000001")
		if err != nil || !ok {
			t.Errorf("VerifyAccount() = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		c := testClient(t, "key", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"players":[]}}`))
		})

		ok, err := c.VerifyAccount(context.Background(), "76561198000000001")
		if err != nil || ok {
			t.Errorf("VerifyAccount() = %v, %v, want false, nil", ok, err)
		}
	})
}

func Test_VerifyWishlist(t *testing.T) {
	t.Run("app on wishlist", func(t *testing.T) {
		c := testClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"items":[{"appid":440},{"appid":12345}]}}`))
		})

		verdict, err := c.VerifyWishlist(context.Background(), "76561198000000001", "12345")
		if err != nil {
			t.Fatalf("VerifyWishlist() error = %v", err)
		}
		if verdict != VerdictPresent {
			t.Errorf("verdict = %v, want VerdictPresent", verdict)
		}
	})

	t.Run("app missing", func(t *testing.T) {
		c := testClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{"items":[{"appid":440}]}}`))
		})

		verdict, err := c.VerifyWishlist(context.Background(), "76561198000000001", "12345")
		if err != nil {
			t.Fatalf("VerifyWishlist() error = %v", err)
		}
		if verdict != VerdictAbsent {
			t.Errorf("verdict = %v, want VerdictAbsent", verdict)
		}
	})

	t.Run("empty wishlist", func(t *testing.T) {
		c := testClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":{}}`))
		})

		verdict, err := c.VerifyWishlist(context.Background(), "76561198000000001", "12345")
		if err != nil {
			t.Fatalf("VerifyWishlist() error = %v", err)
		}
		if verdict != VerdictAbsent {
			t.Errorf("verdict = %v, want VerdictAbsent", verdict)
		}
	})

	t.Run("server errors are unreachable, not absent", func(t *testing.T) {
		c := testClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		verdict, err := c.VerifyWishlist(context.Background(), "76561198000000001", "12345")
		if err == nil {
			t.Fatal("expected error for 5xx response")
		}
		if verdict != VerdictUnreachable {
			t.Errorf("verdict = %v, want VerdictUnreachable", verdict)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls int32
		c := testClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"response":{"items":[{"appid":12345}]}}`))
		})

		verdict, err := c.VerifyWishlist(context.Background(), "76561198000000001", "12345")
		if err != nil {
			t.Fatalf("VerifyWishlist() error = %v", err)
		}
		if verdict != VerdictPresent {
			t.Errorf("verdict = %v, want VerdictPresent", verdict)
		}
		if n := atomic.LoadInt32(&calls); n != 2 {
			t.Errorf("api calls = %d, want 2", n)
		}
	})
}

func Test_VerifyEngagement(t *testing.T) {
	c := NewClient("")
	verdict, err := c.VerifyEngagement(context.Background(), "76561198000000001", "post-ref")
	if err != nil {
		t.Fatalf("VerifyEngagement() error = %v", err)
	}
	if verdict != VerdictConfirmed {
		t.Errorf("verdict = %v, want VerdictConfirmed", verdict)
	}
}

func Test_Verdict(t *testing.T) {
	tests := []struct {
		verdict   Verdict
		str       string
		satisfied bool
	}{
		{VerdictUnreachable, "unreachable", false},
		{VerdictAbsent, "absent", false},
		{VerdictPresent, "present", true},
	}

	for _, tt := range tests {
		if got := tt.verdict.String(); got != tt.str {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.verdict, got, tt.str)
		}
		if got := tt.verdict.Satisfied(); got != tt.satisfied {
			t.Errorf("Verdict(%d).Satisfied() = %v, want %v", tt.verdict, got, tt.satisfied)
		}
	}
}
