package paging

import (
	"errors"
	"testing"
)

func TestParseContinuationToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    int
		wantErr bool
	}{
		{name: "empty means start", token: "", want: 0},
		{name: "zero", token: "0", want: 0},
		{name: "positive", token: "42", want: 42},
		{name: "large", token: "100000", want: 100000},
		{name: "negative", token: "-1", wantErr: true},
		{name: "non numeric", token: "abc", wantErr: true},
		{name: "float", token: "2.5", wantErr: true},
		{name: "trailing garbage", token: "12x", wantErr: true},
		{name: "whitespace", token: " 3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContinuationToken(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseContinuationToken(%q) = %d, want error", tt.token, got)
				}
				if !errors.Is(err, ErrInvalidContinuationToken) {
					t.Errorf("error = %v, want ErrInvalidContinuationToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContinuationToken(%q) error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseContinuationToken(%q) = %d, want %d", tt.token, got, tt.want)
			}
		})
	}
}

func TestFormatContinuationToken_RoundTrip(t *testing.T) {
	for _, skip := range []int{0, 1, 5, 100, 99999} {
		token := FormatContinuationToken(skip)
		got, err := ParseContinuationToken(token)
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", skip, err)
		}
		if got != skip {
			t.Errorf("round trip of %d = %d", skip, got)
		}
	}
}

func TestTokenFromNextLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			name: "skip and top present",
			href: "https://ns.example.net/Queues?api-version=2021-05&$skip=2&$top=2",
			want: "2",
		},
		{
			name: "skip only",
			href: "https://ns.example.net/Queues?$skip=100",
			want: "100",
		},
		{
			name: "relative link",
			href: "/mytopic/Subscriptions/?$skip=5&$top=10",
			want: "5",
		},
		{name: "no skip parameter", href: "https://ns.example.net/Queues?$top=2", want: ""},
		{name: "empty href", href: "", want: ""},
		{name: "unparseable href", href: "://not a url", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenFromNextLink(tt.href); got != tt.want {
				t.Errorf("TokenFromNextLink(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}
