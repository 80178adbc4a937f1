package utils

import (
	"fmt"
	"testing"
	"time"
)

func TestNormalizeFeatures(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a, ,b,,c ", "a, b, c"},
		{"Wifi, Support", "Wifi, Support"},
		{"", ""},
		{" , , ", ""},
		{"single", "single"},
		{"  spaced  ,  out  ", "spaced, out"},
	}

	for _, tc := range cases {
		if got := NormalizeFeatures(tc.in); got != tc.want {
			t.Errorf("NormalizeFeatures(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Photo!.png", "my_photo_.png"},
		{"clinic-tour.JPG", "clinic_tour.jpg"},
		{"simple.png", "simple.png"},
		{"über näme.png", "_ber_n_me.png"},
	}

	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStoredFileName(t *testing.T) {
	at := time.UnixMilli(1724750000123)
	want := fmt.Sprintf("%d_my_photo_.png", at.UnixMilli())

	if got := StoredFileName(at, "My Photo!.png"); got != want {
		t.Errorf("StoredFileName = %q, want %q", got, want)
	}
}
