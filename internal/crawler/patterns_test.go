package crawler

import "testing"

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin", true},
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin/users/1", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/manual.pdf", true},
		{"*.pdf", "/docs/manual.pdf.html", false},
		{"/blog/*.html", "/blog/post.html", true},
		{"/blog/*.html", "/blog/2024/post.html", false},
		{"draft-*", "/posts/draft-1", true},
		{"/about", "/about", true},
		{"/about", "/about/team", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPathFilter_Allows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter pathFilter
		url    string
		want   bool
	}{
		{
			name: "no patterns allows everything",
			url:  "https://example.com/anything",
			want: true,
		},
		{
			name:   "ignore pattern rejects",
			filter: pathFilter{ignore: []string{"/admin/*"}},
			url:    "https://example.com/admin/login",
			want:   false,
		},
		{
			name:   "ignore pattern leaves other paths alone",
			filter: pathFilter{ignore: []string{"/admin/*"}},
			url:    "https://example.com/blog",
			want:   true,
		},
		{
			name:   "follow pattern must match",
			filter: pathFilter{follow: []string{"/docs/*"}},
			url:    "https://example.com/blog",
			want:   false,
		},
		{
			name:   "follow pattern allows match",
			filter: pathFilter{follow: []string{"/docs/*"}},
			url:    "https://example.com/docs/intro",
			want:   true,
		},
		{
			name:   "ignore wins over follow",
			filter: pathFilter{ignore: []string{"*.pdf"}, follow: []string{"/docs/*"}},
			url:    "https://example.com/docs/manual.pdf",
			want:   false,
		},
		{
			name:   "query string does not affect the path",
			filter: pathFilter{ignore: []string{"*.pdf"}},
			url:    "https://example.com/view?file=a.pdf",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.filter.allows(tt.url); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
