package metrics

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/", "/"},
		{"/teams", "/teams"},
		{"/teams/42", "/teams/:id"},
		{"/teams/42/join", "/teams/:id/join"},
		{"/admin/participants/9/approve", "/admin/participants/:id/approve"},
		{"/archive/abc-def", "/archive/:id"},
		{"/login", "/login"},
	}
	for _, tc := range cases {
		if got := canonicalPath(tc.in); got != tc.want {
			t.Errorf("canonicalPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
