package ansi

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "hello world", want: "hello world"},
		{name: "color codes removed", in: "\x1b[31mred\x1b[0m text", want: "red text"},
		{name: "cursor sequences removed", in: "\x1b[2Kcleared", want: "cleared"},
		{name: "empty", in: "", want: ""},
		{name: "only escapes", in: "\x1b[1m\x1b[0m", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
