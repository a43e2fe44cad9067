package pagination

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       Params
		wantPage int
		wantSize int
	}{
		{"defaults", Params{}, 1, DefaultSize},
		{"negative page", Params{Page: -3, Size: 20}, 1, 20},
		{"size clamped", Params{Page: 2, Size: 500}, 2, MaxSize},
		{"passthrough", Params{Page: 4, Size: 25}, 4, 25},
	}
	for _, tc := range cases {
		got := Normalize(tc.in)
		if got.Page != tc.wantPage || got.Size != tc.wantSize {
			t.Errorf("%s: Normalize(%+v) = %+v, want page=%d size=%d",
				tc.name, tc.in, got, tc.wantPage, tc.wantSize)
		}
	}
}

func TestOffsetAndLimit(t *testing.T) {
	t.Parallel()

	p := Params{Page: 3, Size: 10}
	if got := p.Offset(); got != 20 {
		t.Fatalf("Offset() = %d, want 20", got)
	}
	if got := p.Limit(); got != 10 {
		t.Fatalf("Limit() = %d, want 10", got)
	}

	zero := Params{}
	if got := zero.Offset(); got != 0 {
		t.Fatalf("zero Offset() = %d, want 0", got)
	}
	if got := zero.Limit(); got != DefaultSize {
		t.Fatalf("zero Limit() = %d, want %d", got, DefaultSize)
	}
}
