package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"legalthings.one/internal/iam"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/users/u1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json, text/plain" {
			t.Errorf("Accept = %q", accept)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		io.WriteString(w, `{
			"id": "u1",
			"first_name": "Alice",
			"last_name": "Jansen",
			"email": "alice@example.com",
			"organization": {"id": "org-1", "type": "primary"}
		}`)
	})

	user, err := client.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.ID != "u1" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.HasRole(iam.RoleAdmin) {
		t.Fatal("organization type did not reach the role derivation")
	}
}

func TestGetOrganization(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizations/org-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "org-1", "name": "LegalThings", "type": "secondary"}`)
	})

	org, err := client.GetOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if org.Name != "LegalThings" || org.Type != iam.OrgSecondary {
		t.Fatalf("unexpected organization: %+v", org)
	}
}

func TestResponseClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		check       func(t *testing.T, err error)
	}{
		{
			name:        "plain-text 404 is not found, not a failure",
			status:      http.StatusNotFound,
			contentType: "text/plain",
			body:        "no such user",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, iam.ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
			},
		},
		{
			name:        "json 404 is a gateway error",
			status:      http.StatusNotFound,
			contentType: "application/json",
			body:        `{"error": "nope"}`,
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) || gw.Status != http.StatusNotFound {
					t.Fatalf("error = %v, want a 404 gateway error", err)
				}
			},
		},
		{
			name:        "plain-text failure carries the body as message",
			status:      http.StatusInternalServerError,
			contentType: "text/plain",
			body:        "database on fire",
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) {
					t.Fatalf("error = %v, want a gateway error", err)
				}
				if gw.Message != "database on fire" {
					t.Fatalf("message = %q", gw.Message)
				}
			},
		},
		{
			name:        "foreign content type is a gateway error even on 200",
			status:      http.StatusOK,
			contentType: "text/html",
			body:        "<html></html>",
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) {
					t.Fatalf("error = %v, want a gateway error", err)
				}
				if gw.Message != "server responded with a 200 status and text/html" {
					t.Fatalf("message = %q", gw.Message)
				}
			},
		},
		{
			name:        "empty body is corrupt",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        "",
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) || gw.Message != "corrupt JSON response" {
					t.Fatalf("error = %v, want corrupt JSON response", err)
				}
			},
		},
		{
			name:        "json null body is corrupt, not a zero-valued entity",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `null`,
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) || gw.Message != "corrupt JSON response" {
					t.Fatalf("error = %v, want corrupt JSON response", err)
				}
			},
		},
		{
			name:        "unparseable body is corrupt",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{"id":`,
			check: func(t *testing.T, err error) {
				var gw *iam.GatewayError
				if !errors.As(err, &gw) || gw.Message != "corrupt JSON response" {
					t.Fatalf("error = %v, want corrupt JSON response", err)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := client.GetUser(context.Background(), "u1")
			if err == nil {
				t.Fatal("expected an error")
			}
			tc.check(t, err)
		})
	}
}

func TestGetSessionPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"user": {"id": "u1", "last_name": "Jansen", "organization": {"id": "org-1"}}}`)
	})

	data, err := client.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if data.User == nil || data.User.Organization.ID != "org-1" {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestCreateOneTimeSessionPartyKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		party   any
		wantKey string
	}{
		{
			name:    "registered user goes under user",
			party:   &iam.User{ID: "u1", Email: "alice@example.com"},
			wantKey: "user",
		},
		{
			name:    "external party goes under party",
			party:   map[string]any{"email": "guest@example.com"},
			wantKey: "party",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var body map[string]any
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode request: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"id": "sess-ots", "user": {"id": "u1"}}`)
			})

			sess, err := client.CreateOneTimeSession(context.Background(), tc.party, "onboarding", map[string]any{"step": 1})
			if err != nil {
				t.Fatalf("CreateOneTimeSession: %v", err)
			}
			if sess.ID != "sess-ots" {
				t.Fatalf("session id = %q", sess.ID)
			}

			if _, ok := body[tc.wantKey]; !ok {
				t.Fatalf("payload misses %q key: %v", tc.wantKey, body)
			}
			action, ok := body["action"].(map[string]any)
			if !ok || action["state"] != "onboarding" {
				t.Fatalf("payload action = %v", body["action"])
			}
			if _, ok := action["data"]; !ok {
				t.Fatal("payload action misses data")
			}
		})
	}

	if _, err := (&Client{}).CreateOneTimeSession(context.Background(), nil, "x", nil); !errors.Is(err, iam.ErrInvalidInput) {
		t.Fatalf("nil party error = %v, want ErrInvalidInput", err)
	}
}

func TestClientOptions(t *testing.T) {
	t.Parallel()

	if _, err := New("   "); !errors.Is(err, iam.ErrInvalidInput) {
		t.Fatalf("empty base URL error = %v, want ErrInvalidInput", err)
	}

	client, err := New("http://iam.local/", WithTimeout(time.Second), WithRateLimit(10, 2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.baseURL != "http://iam.local" {
		t.Fatalf("baseURL = %q, want trailing slash trimmed", client.baseURL)
	}
	if client.http.Timeout != time.Second {
		t.Fatalf("timeout = %v", client.http.Timeout)
	}
	if client.limiter == nil {
		t.Fatal("rate limiter not configured")
	}
}

func TestBindThroughClient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions/known":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"user": {"id": "u1", "last_name": "Jansen", "organization": {"id": "org-1", "type": "secondary"}}}`)
		default:
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "no such session")
		}
	})

	sess, err := iam.BindSession(context.Background(), client, "known")
	if err != nil {
		t.Fatalf("BindSession: %v", err)
	}
	if sess == nil || sess.User.ID != "u1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	missing, err := iam.BindSession(context.Background(), client, "unknown")
	if err != nil || missing != nil {
		t.Fatalf("unknown session = (%+v, %v), want (nil, nil)", missing, err)
	}
}
