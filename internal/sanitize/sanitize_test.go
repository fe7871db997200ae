package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	s := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hello", "hello"},
		{"empty", "", ""},
		{"script removed", "<script>alert(1)</script>hello", "hello"},
		{"bold kept", "<b>hi</b>", "<b>hi</b>"},
		{"event handler stripped", `<p onclick="steal()">x</p>`, "<p>x</p>"},
		{"iframe removed", `<iframe src="https://evil.example"></iframe>ok`, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, s.Sanitize(tt.input))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	s := New()
	once := s.Sanitize(`<a href="javascript:alert(1)">x</a><i>y</i>`)
	require.Equal(t, once, s.Sanitize(once))
}
