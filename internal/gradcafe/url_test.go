package gradcafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalResultURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips query and fragment", "http://thegradcafe.com/result/5?x=1#f", "https://www.thegradcafe.com/result/5"},
		{"forces https", "http://www.thegradcafe.com/result/912345", "https://www.thegradcafe.com/result/912345"},
		{"bare host collapses to www", "https://thegradcafe.com/result/7", "https://www.thegradcafe.com/result/7"},
		{"relative path gets canonical host", "/result/42", "https://www.thegradcafe.com/result/42"},
		{"already canonical is untouched", "https://www.thegradcafe.com/result/5", "https://www.thegradcafe.com/result/5"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalResultURL(tt.in))
		})
	}
}

func TestCanonicalResultURLIdempotent(t *testing.T) {
	urls := []string{
		"http://thegradcafe.com/result/5?x=1#f",
		"https://www.thegradcafe.com/result/912345",
		"/result/42?utm_source=x",
	}
	for _, u := range urls {
		once := CanonicalResultURL(u)
		assert.Equal(t, once, CanonicalResultURL(once))
	}
}

func TestValidResultURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.thegradcafe.com/result/5", true},
		{"https://thegradcafe.com/result/5", true},
		{"https://example.com/result/5", false},
		{"https://www.thegradcafe.com/survey/", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidResultURL(tt.in), tt.in)
	}
}
