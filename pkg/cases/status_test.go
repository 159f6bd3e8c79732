package cases

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Pass", Pass, false},
		{"pass", Pass, false},
		{"FAIL", Fail, false},
		{" skip ", Skip, false},
		{"", Pass, false},
		{"blocked", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusCycle(t *testing.T) {
	s := Pass
	seen := []Status{s}
	for i := 0; i < 3; i++ {
		s = s.Next()
		seen = append(seen, s)
	}
	want := []Status{Pass, Fail, Skip, Pass}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Next cycle = %v, want %v", seen, want)
		}
	}
	if Pass.Prev() != Skip || Skip.Prev() != Fail || Fail.Prev() != Pass {
		t.Error("Prev should reverse Next")
	}
	if Status("Blocked").Next() != Pass {
		t.Error("unknown status should restart at Pass")
	}
}

func TestValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("pass").Valid() {
		t.Error("lowercase status should not be valid")
	}
}
