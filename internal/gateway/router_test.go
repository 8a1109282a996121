package gateway

import "testing"

func TestRouteTable_Classify(t *testing.T) {
	table := NewRouteTable([]string{"/login", "/register"})

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/login", Public},
		{"/register", Public},
		{"/", Protected},
		{"/anything-else", Protected},
		{"/login/", Protected},
		{"/login/extra", Protected},
		{"/LOGIN", Protected},
		{"/tasks/42", Protected},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := table.Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRouteTable_Excluded(t *testing.T) {
	table := NewRouteTable(nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/health", true},
		{"/api/tasks/1", true},
		{"/_next/static/chunks/main.js", true},
		{"/_next/image", true},
		{"/_next/image/foo", true},
		{"/_next/imagex", true},
		{"/_next/staticx", false},
		{"/favicon.ico", true},
		{"/apiary", false},
		{"/_next/data/x.json", false},
		{"/favicon.ico.bak", false},
		{"/", false},
		{"/login", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := table.Excluded(tt.path); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRouteClass_String(t *testing.T) {
	if Public.String() != "public" || Protected.String() != "protected" {
		t.Errorf("unexpected strings: %q %q", Public, Protected)
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/tasks", "/tasks"},
		{"/login/", "/login/"},
		{"/api/../", "/"},
		{"/api/../tasks", "/tasks"},
		{"/_next/image/../../x", "/x"},
		{"/favicon.ico/../x", "/x"},
		{"//tasks//1", "/tasks/1"},
		{"/tasks/./1", "/tasks/1"},
		{"/../../etc", "/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanPath(tt.in); got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
