package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testGatewayConfig() *Config {
	return &Config{
		FrontendURL:       "http://frontend.test",
		ListenAddress:     ":0",
		AccessTokenCookie: "accessToken",
		LoginPath:         "/login",
		HomePath:          "/",
		PublicPaths:       []string{"/login", "/register"},
		Environment:       "test",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecide_TruthTable(t *testing.T) {
	tests := []struct {
		class    RouteClass
		hasToken bool
		want     Decision
	}{
		{Protected, false, RedirectToLogin},
		{Protected, true, Allow},
		{Public, true, RedirectToHome},
		{Public, false, Allow},
	}

	for _, tt := range tests {
		if got := Decide(tt.class, tt.hasToken); got != tt.want {
			t.Errorf("Decide(%v, %v) = %v, want %v", tt.class, tt.hasToken, got, tt.want)
		}
	}
}

func TestDecide_NoLoop(t *testing.T) {
	cfg := testGatewayConfig()
	table := NewRouteTable(cfg.PublicPaths)

	// Following a redirect must land on a page that allows the same token state.
	for _, hasToken := range []bool{true, false} {
		for _, start := range []string{"/", "/login", "/register", "/tasks"} {
			d := Decide(table.Classify(start), hasToken)
			var next string
			switch d {
			case RedirectToLogin:
				next = cfg.LoginPath
			case RedirectToHome:
				next = cfg.HomePath
			default:
				continue
			}
			if again := Decide(table.Classify(next), hasToken); again != Allow {
				t.Errorf("start %q token=%v: redirect to %q then %v", start, hasToken, next, again)
			}
		}
	}
}

func TestGuard_Evaluate(t *testing.T) {
	guard := NewGuard(testGatewayConfig(), discardLogger())

	tests := []struct {
		name   string
		path   string
		cookie string
		want   Decision
	}{
		{"root without token", "/", "", RedirectToLogin},
		{"login with token", "/login", "abc", RedirectToHome},
		{"register with token", "/register", "abc", RedirectToHome},
		{"login without token", "/login", "", Allow},
		{"protected with token", "/tasks", "abc", Allow},
		{"api without token", "/api/tasks", "", Allow},
		{"static asset without token", "/_next/static/app.js", "", Allow},
		{"favicon without token", "/favicon.ico", "", Allow},
		{"apiary without token", "/apiary", "", RedirectToLogin},
		{"dot segments out of api", "/api/../", "", RedirectToLogin},
		{"dot segments out of api to page", "/api/../tasks", "", RedirectToLogin},
		{"dot segments out of favicon", "/favicon.ico/../x", "", RedirectToLogin},
		{"dot segments out of image optimizer", "/_next/image/../../x", "", RedirectToLogin},
		{"dot segments into login", "/tasks/../login", "", Allow},
		{"dot segments into api", "/tasks/../api/tasks", "", Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}
			if got := guard.Evaluate(req); got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGuard_EmptyCookieCountsAsAbsent(t *testing.T) {
	guard := NewGuard(testGatewayConfig(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "accessToken=")

	if got := guard.Evaluate(req); got != RedirectToLogin {
		t.Errorf("expected redirect to login, got %v", got)
	}
}

func TestGuard_Middleware(t *testing.T) {
	guard := NewGuard(testGatewayConfig(), discardLogger())
	called := false
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("redirects to absolute login URL", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "http://app.example.com/tasks?page=2", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusTemporaryRedirect {
			t.Errorf("expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "http://app.example.com/login" {
			t.Errorf("expected Location http://app.example.com/login, got %q", loc)
		}
		if called {
			t.Error("next handler should not run on redirect")
		}
	})

	t.Run("honours forwarded proto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://app.example.com/login", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "abc"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if loc := w.Header().Get("Location"); loc != "https://app.example.com/" {
			t.Errorf("expected Location https://app.example.com/, got %q", loc)
		}
	})

	t.Run("allows through", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if !called {
			t.Error("expected next handler to run")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})
}
