package domain

import (
	"testing"
	"time"
)

func TestPartitionPrefix(t *testing.T) {
	p := PartitionRef{Year: 2024, Month: 3, Day: 7, Hour: 5}
	if got := p.Prefix(); got != "year=2024/month=3/day=7/hour=5/" {
		t.Fatalf("Prefix = %q", got)
	}
}

func TestPartitionOfRoundTrip(t *testing.T) {
	ts := time.Date(2024, 11, 30, 23, 59, 1, 0, time.UTC)
	p := PartitionOf(ts)
	want := PartitionRef{Year: 2024, Month: 11, Day: 30, Hour: 23}
	if p != want {
		t.Fatalf("PartitionOf = %+v, want %+v", p, want)
	}
	if !p.UTC().Equal(ts.Truncate(time.Hour)) {
		t.Fatalf("UTC = %v, want truncated hour", p.UTC())
	}
}

func TestPartitionOfConvertsZone(t *testing.T) {
	loc := time.FixedZone("plus5", 5*3600)
	ts := time.Date(2024, 1, 1, 2, 0, 0, 0, loc) // 2023-12-31T21 UTC
	p := PartitionOf(ts)
	want := PartitionRef{Year: 2023, Month: 12, Day: 31, Hour: 21}
	if p != want {
		t.Fatalf("PartitionOf = %+v, want %+v", p, want)
	}
}

func TestDestinationKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"year=2024/month=3/day=7/hour=5/a.json", "year=2024/month=3/day=7/hour=5/a.parquet"},
		{"a.json", "a.parquet"},
		{"a.json.json", "a.json.parquet"},
		{"noext", "noext.parquet"},
		{"dir/file.txt", "dir/file.txt.parquet"},
	}
	for _, tc := range cases {
		if got := DestinationKey(tc.in); got != tc.want {
			t.Fatalf("DestinationKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
		// pure, same output every call
		if again := DestinationKey(tc.in); again != DestinationKey(tc.in) {
			t.Fatalf("DestinationKey(%q) not deterministic", tc.in)
		}
	}
}

func TestReportTally(t *testing.T) {
	r := Report{Outcomes: []Outcome{
		{Status: StatusOK},
		{Status: StatusReadError},
		{Status: StatusOK},
		{Status: StatusSkipped},
	}}
	r.Tally()
	if r.Succeeded != 2 || r.Failed != 2 {
		t.Fatalf("tally = %d/%d, want 2/2", r.Succeeded, r.Failed)
	}
}
