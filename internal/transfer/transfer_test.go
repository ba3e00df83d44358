package transfer

import "testing"

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line       string
		wantUser   string
		wantSecret string
		wantValid  bool
	}{
		{"alice----pw1", "alice", "pw1", true},
		{"  alice ---- pw1  ", "alice", "pw1", true},
		{"bob----", "", "", false},
		{"----pw", "", "", false},
		{"nosep", "", "", false},
		{"a----b----c", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		got := ParseLine(tt.line)
		if got.Valid != tt.wantValid || got.Username != tt.wantUser || got.Secret != tt.wantSecret {
			t.Fatalf("ParseLine(%q) = %+v, want user=%q secret=%q valid=%v",
				tt.line, got, tt.wantUser, tt.wantSecret, tt.wantValid)
		}
	}
}

func TestParseLines_SkipsBlankKeepsInvalid(t *testing.T) {
	t.Parallel()

	recs := ParseLines([]string{"alice----pw", "", "   ", "bob----", "carol----pw2"})
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if !recs[0].Valid || recs[1].Valid || !recs[2].Valid {
		t.Fatalf("validity flags wrong: %+v", recs)
	}
}

func TestFormatLine_RoundTrip(t *testing.T) {
	t.Parallel()

	line := FormatLine("alice", "pw1")
	if line != "alice----pw1" {
		t.Fatalf("FormatLine = %q", line)
	}
	rec := ParseLine(line)
	if !rec.Valid || rec.Username != "alice" || rec.Secret != "pw1" {
		t.Fatalf("round trip failed: %+v", rec)
	}
}
