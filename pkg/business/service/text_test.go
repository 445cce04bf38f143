package service

import "testing"

func TestSlugify(t *testing.T) {
	ts := NewTextService()

	cases := []struct {
		in, want string
	}{
		{"IP Cameras", "ip-cameras"},
		{"  Wi-Fi  Routers ", "wi-fi-routers"},
		{"Видеонаблюдение", "videonablyudenie"},
		{"<b>Alarm&nbsp;Systems</b>", "alarm-systems"},
		{"---", ""},
	}
	for _, c := range cases {
		if got := ts.Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	ts := NewTextService()

	if got := ts.NormalizeName("  Dome \n Camera  "); got != "Dome Camera" {
		t.Fatalf("NormalizeName = %q", got)
	}
	if got := ts.NormalizeName("<p>Dome</p> Camera"); got != "Dome Camera" {
		t.Fatalf("NormalizeName with markup = %q", got)
	}
}

func TestHumanize(t *testing.T) {
	ts := NewTextService()

	if got := ts.Humanize("power_supply"); got != "Power supply" {
		t.Fatalf("Humanize = %q", got)
	}
	if got := ts.Humanize(""); got != "" {
		t.Fatalf("Humanize empty = %q", got)
	}
}
