package charts

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func TestPieKeepsOrderAndSum(t *testing.T) {
	agg := &domain.TermsAgg{Buckets: []domain.TermsBucket{
		{Key: "udp_flood", DocCount: 120},
		{Key: "syn_flood", DocCount: 40},
	}}

	got := Pie(agg)
	want := []domain.PieSlice{{Label: "udp_flood", Value: 120}, {Label: "syn_flood", Value: 40}}
	if len(got) != len(want) {
		t.Fatalf("expected %d slices, got %d", len(want), len(got))
	}
	var sum int64
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slice %d: expected %+v, got %+v", i, want[i], got[i])
		}
		sum += got[i].Value
	}
	if sum != 160 {
		t.Fatalf("expected sum 160, got %d", sum)
	}
}

func TestPieEmptyBucketsIsEmptySeries(t *testing.T) {
	got := Pie(&domain.TermsAgg{Buckets: []domain.TermsBucket{}})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil series, got %#v", got)
	}
}

func TestBars(t *testing.T) {
	got := Bars(&domain.TermsAgg{Buckets: []domain.TermsBucket{{Key: "10.0.0.0/24", DocCount: 7}}})
	if len(got) != 1 || got[0].IPRange != "10.0.0.0/24" || got[0].Count != 7 {
		t.Fatalf("unexpected bars: %+v", got)
	}
}

func TestLinesFormatsDays(t *testing.T) {
	agg := &domain.TopTypesOverTime{Buckets: []domain.TypeOverTimeBucket{
		{
			TermsBucket: domain.TermsBucket{Key: "udp_flood", DocCount: 5},
			OverTime: &domain.DateHistogramAgg{Buckets: []domain.DateBucket{
				{Key: 1717200000000, KeyAsString: "2024-06-01T00:00:00.000Z", DocCount: 2},
				{Key: 1717286400000, KeyAsString: "2024-06-02T00:00:00.000Z", DocCount: 3},
			}},
		},
	}}

	got, err := Lines(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "udp_flood" {
		t.Fatalf("unexpected series: %+v", got)
	}
	if got[0].Points[0] != (domain.LinePoint{Date: "01/06/24", Key: 1717200000000, Count: 2}) {
		t.Fatalf("unexpected first point: %+v", got[0].Points[0])
	}
	if got[0].Points[1] != (domain.LinePoint{Date: "02/06/24", Key: 1717286400000, Count: 3}) {
		t.Fatalf("unexpected second point: %+v", got[0].Points[1])
	}
}

func TestLineAxisIsChronological(t *testing.T) {
	agg := &domain.TopTypesOverTime{Buckets: []domain.TypeOverTimeBucket{
		{
			TermsBucket: domain.TermsBucket{Key: "udp_flood", DocCount: 9},
			OverTime: &domain.DateHistogramAgg{Buckets: []domain.DateBucket{
				{Key: 1717286400000, KeyAsString: "2024-06-02T00:00:00.000Z", DocCount: 4},
				{Key: 1717372800000, KeyAsString: "2024-06-03T00:00:00.000Z", DocCount: 5},
			}},
		},
		{
			TermsBucket: domain.TermsBucket{Key: "syn_flood", DocCount: 2},
			OverTime: &domain.DateHistogramAgg{Buckets: []domain.DateBucket{
				{Key: 1717200000000, KeyAsString: "2024-06-01T00:00:00.000Z", DocCount: 1},
				{Key: 1717286400000, KeyAsString: "2024-06-02T00:00:00.000Z", DocCount: 1},
			}},
		},
	}}

	lines, err := Lines(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := LineAxis(lines)
	want := []string{"01/06/24", "02/06/24", "03/06/24"}
	if len(got) != len(want) {
		t.Fatalf("LineAxis() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LineAxis() = %v, want %v", got, want)
		}
	}
}

func TestLineAxisEmpty(t *testing.T) {
	if got := LineAxis(nil); len(got) != 0 {
		t.Fatalf("expected empty axis, got %v", got)
	}
}

func TestLinesRejectsBadKey(t *testing.T) {
	agg := &domain.TopTypesOverTime{Buckets: []domain.TypeOverTimeBucket{{
		TermsBucket: domain.TermsBucket{Key: "udp_flood"},
		OverTime:    &domain.DateHistogramAgg{Buckets: []domain.DateBucket{{KeyAsString: "yesterday"}}},
	}}}
	_, err := Lines(agg)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestStackedDisjointDatesKeepBothCategories(t *testing.T) {
	agg := &domain.DateTypeBreakdown{Buckets: []domain.DateTypesBucket{
		{
			DateBucket:  domain.DateBucket{KeyAsString: "2024-06-01T00:00:00.000Z", DocCount: 4},
			AttackTypes: &domain.TermsAgg{Buckets: []domain.TermsBucket{{Key: "udp_flood", DocCount: 4}}},
		},
		{
			DateBucket:  domain.DateBucket{KeyAsString: "2024-06-02T00:00:00.000Z", DocCount: 9},
			AttackTypes: &domain.TermsAgg{Buckets: []domain.TermsBucket{{Key: "syn_flood", DocCount: 9}}},
		},
	}}

	got, err := Stacked(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Dates) != 2 || got.Dates[0] != "01/06/24" || got.Dates[1] != "02/06/24" {
		t.Fatalf("unexpected dates: %v", got.Dates)
	}
	if len(got.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(got.Series))
	}
	if got.Series[0].Name != "udp_flood" || got.Series[0].Counts[0] != 4 || got.Series[0].Counts[1] != 0 {
		t.Fatalf("unexpected udp_flood series: %+v", got.Series[0])
	}
	if got.Series[1].Name != "syn_flood" || got.Series[1].Counts[0] != 0 || got.Series[1].Counts[1] != 9 {
		t.Fatalf("unexpected syn_flood series: %+v", got.Series[1])
	}
}

func TestStackedEmptyDayKeepsAlignment(t *testing.T) {
	agg := &domain.DateTypeBreakdown{Buckets: []domain.DateTypesBucket{
		{DateBucket: domain.DateBucket{KeyAsString: "2024-06-01T00:00:00.000Z"}, AttackTypes: &domain.TermsAgg{Buckets: []domain.TermsBucket{}}},
		{
			DateBucket:  domain.DateBucket{KeyAsString: "2024-06-02T00:00:00.000Z", DocCount: 1},
			AttackTypes: &domain.TermsAgg{Buckets: []domain.TermsBucket{{Key: "udp_flood", DocCount: 1}}},
		},
	}}
	got, err := Stacked(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Series) != 1 || len(got.Series[0].Counts) != 2 || got.Series[0].Counts[1] != 1 {
		t.Fatalf("unexpected series: %+v", got.Series)
	}
}

func TestReshapeIsIdempotent(t *testing.T) {
	stacked := &domain.DateTypeBreakdown{Buckets: []domain.DateTypesBucket{
		{
			DateBucket: domain.DateBucket{KeyAsString: "2024-06-01T00:00:00.000Z", DocCount: 6},
			AttackTypes: &domain.TermsAgg{Buckets: []domain.TermsBucket{
				{Key: "c", DocCount: 1}, {Key: "a", DocCount: 2}, {Key: "b", DocCount: 3},
			}},
		},
	}}
	tile := tileFixture()

	render := func() []byte {
		s, err := Stacked(stacked)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rows := TreemapRows(tile)
		data, err := json.Marshal(struct {
			Stacked domain.StackedChart
			Rows    []domain.TreemapRow
			Tree    []domain.TreemapNode
		}{s, rows, TreemapTree(rows)})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	first := render()
	for i := 0; i < 20; i++ {
		if next := render(); !bytes.Equal(first, next) {
			t.Fatalf("reshape output changed on run %d:\n%s\n%s", i, first, next)
		}
	}
}

func TestBucketDayTimezonePolicy(t *testing.T) {
	tests := []struct {
		name string
		b    domain.DateBucket
		want string
	}{
		{"utc millis", domain.DateBucket{KeyAsString: "2024-12-31T00:00:00.000Z"}, "31/12/24"},
		{"no millis", domain.DateBucket{KeyAsString: "2024-12-31T00:00:00Z"}, "31/12/24"},
		{"positive offset midnight keeps day", domain.DateBucket{KeyAsString: "2025-01-01T00:00:00.000+03:00"}, "01/01/25"},
		{"negative offset midnight keeps day", domain.DateBucket{KeyAsString: "2024-12-31T00:00:00.000-05:00"}, "31/12/24"},
		{"epoch fallback", domain.DateBucket{Key: 1735603200000}, "31/12/24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BucketDay(tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("BucketDay() = %q, want %q", got, tt.want)
			}
		})
	}
}
