package flow

import "testing"

func TestParseValidLine(t *testing.T) {
	line := "10.0.0.1 192.168.1.5 80 54321 6 1000 0 1010 1500 10 1"
	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rec.DstPort != 80 {
		t.Errorf("DstPort = %d, want 80", rec.DstPort)
	}
	if rec.TimeFirst != 1000 || rec.TimeLast != 1010 {
		t.Errorf("times = %d,%d, want 1000,1010", rec.TimeFirst, rec.TimeLast)
	}
	if rec.Packets != 10 || rec.SynFlag != 1 {
		t.Errorf("packets/syn = %d/%d, want 10/1", rec.Packets, rec.SynFlag)
	}
}

func TestParseRejectsTooFewFields(t *testing.T) {
	if _, err := Parse("10.0.0.1 192.168.1.5 80"); err == nil {
		t.Fatal("expected error for short line")
	}
}

func TestParseRejectsBadIP(t *testing.T) {
	line := "not-an-ip 192.168.1.5 80 54321 6 1000 0 1010 1500 10 1"
	if _, err := Parse(line); err == nil {
		t.Fatal("expected error for malformed destination IP")
	}
}

func TestParseRejectsOutOfRangePort(t *testing.T) {
	line := "10.0.0.1 192.168.1.5 70000 54321 6 1000 0 1010 1500 10 1"
	if _, err := Parse(line); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestParseRejectsTimeLastBeforeTimeFirst(t *testing.T) {
	line := "10.0.0.1 192.168.1.5 80 54321 6 1000 0 999 1500 10 1"
	if _, err := Parse(line); err == nil {
		t.Fatal("expected error when time_last precedes time_first")
	}
}

func TestSkipBlankAndComment(t *testing.T) {
	cases := []string{"", "   ", "# comment", "#comment"}
	for _, c := range cases {
		if !Skip(c) {
			t.Errorf("Skip(%q) = false, want true", c)
		}
	}
	if Skip("10.0.0.1 192.168.1.5 80 54321 6 1000 0 1010 1500 10 1") {
		t.Error("Skip() = true for a real flow line")
	}
}
