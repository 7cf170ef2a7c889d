package page

import "testing"

func TestSanitizeRoundTrip(t *testing.T) {
	cases := []Title{
		"AC/DC",
		"Rock music",
		"Drum and bass/Jungle",
		"No slashes here",
	}
	for _, title := range cases {
		sanitized := Sanitize(title)
		got := Unsanitize(sanitized)
		if got != title {
			t.Errorf("Unsanitize(Sanitize(%q)) = %q, want %q", title, got, title)
		}
	}
}

func TestSanitizeReplacesSlash(t *testing.T) {
	got := Sanitize("AC/DC")
	if got != "AC"+bigSolidus+"DC" {
		t.Errorf("Sanitize(%q) = %q", "AC/DC", got)
	}
}

func TestParseDumpFilename(t *testing.T) {
	tests := []struct {
		name                   string
		wantYear, wantMonth, wantDay int
		wantErr                bool
	}{
		{"enwiki-20240101-pages-articles-multistream.xml.bz2", 2024, 1, 1, false},
		{"enwiki-20240101-pages-articles-multistream", 2024, 1, 1, false},
		{"dewiki-20240101-pages-articles-multistream.xml.bz2", 0, 0, 0, true},
		{"enwiki-pages-articles-multistream", 0, 0, 0, true},
		{"enwiki-2024011-pages-articles-multistream", 0, 0, 0, true},
	}
	for _, tc := range tests {
		y, m, d, err := ParseDumpFilename(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDumpFilename(%q): expected error, got none", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDumpFilename(%q): unexpected error: %v", tc.name, err)
		}
		if y != tc.wantYear || m != tc.wantMonth || d != tc.wantDay {
			t.Errorf("ParseDumpFilename(%q) = %d-%d-%d, want %d-%d-%d",
				tc.name, y, m, d, tc.wantYear, tc.wantMonth, tc.wantDay)
		}
	}
}

func TestFormatDumpDateRoundTrip(t *testing.T) {
	y, m, d, err := ParseDumpFilename("enwiki-20240229-pages-articles-multistream.xml.bz2")
	if err != nil {
		t.Fatalf("ParseDumpFilename: %v", err)
	}
	got := FormatDumpDate(y, m, d)
	want := "2024-02-29"
	if got != want {
		t.Errorf("FormatDumpDate(%d,%d,%d) = %q, want %q", y, m, d, got, want)
	}
}
