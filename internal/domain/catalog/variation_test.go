package catalog

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestBuildVariationMatrixPricesEveryPair(t *testing.T) {
	serviceID := uuid.New()
	z1, z2 := uuid.New(), uuid.New()
	variants := []DraftVariant{
		{Variant: "Small", VariantKey: "Small"},
		{Variant: "Large Room", VariantKey: "Large-Room"},
	}
	prices := map[string]float64{
		PriceField("Small", z1):      10,
		PriceField("Large-Room", z1): 20,
		PriceField("Large-Room", z2): 5,
	}

	rows := BuildVariationMatrix(serviceID, variants, []uuid.UUID{z1, z2}, prices)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	got := make([]float64, len(rows))
	for i, row := range rows {
		if row.ServiceID != serviceID {
			t.Fatalf("row %d has service %s", i, row.ServiceID)
		}
		got[i] = row.Price
	}
	if want := []float64{10, 0, 20, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected prices %v, got %v", want, got)
	}
	if rows[2].Variant != "Large Room" || rows[2].VariantKey != "Large-Room" {
		t.Fatalf("unexpected variant labels %+v", rows[2])
	}
}

func TestBuildVariationMatrixKeepsTripleUnique(t *testing.T) {
	z := uuid.New()
	variants := []DraftVariant{
		{Variant: "Small", VariantKey: "Small"},
		{Variant: "Small", VariantKey: "Small"},
		{Variant: "", VariantKey: ""},
	}

	rows := BuildVariationMatrix(uuid.New(), variants, []uuid.UUID{z, z}, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	if rows := BuildVariationMatrix(uuid.New(), nil, []uuid.UUID{z}, nil); len(rows) != 0 {
		t.Fatalf("expected no rows without variants, got %d", len(rows))
	}
}

func TestVariantKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Small", "Small"},
		{"Deep Clean Plus", "Deep-Clean-Plus"},
		{"  Padded  ", "Padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := VariantKey(tt.name); got != tt.want {
			t.Errorf("VariantKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags(" clean, fast ,,clean, home ")
	if want := []string{"clean", "fast", "home"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := ParseTags(""); len(got) != 0 {
		t.Fatalf("expected no tags, got %v", got)
	}
}

func TestParsePrices(t *testing.T) {
	z := uuid.New()
	field := PriceField("Small", z)

	prices, errs := ParsePrices(url.Values{
		field:               {"12.5"},
		PriceField("B", z):  {""},
		"name":              {"ignored"},
		"min_bidding_price": {"abc"},
		"x_price":           {"abc"},
	})
	if errs != nil {
		t.Fatalf("unexpected errors %v", errs)
	}
	if len(prices) != 1 || prices[field] != 12.5 {
		t.Fatalf("unexpected prices %v", prices)
	}

	_, errs = ParsePrices(url.Values{field: {"-1"}, PriceField("Large-Room", z): {"abc"}})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}

func TestDraftsFromKeysPrefersKnownLabels(t *testing.T) {
	stored := []Variation{{Variant: "Large Room", VariantKey: "Large-Room"}}
	drafts := []DraftVariant{{Variant: "Extra Small", VariantKey: "Extra-Small"}}

	got := draftsFromKeys([]string{"Large-Room", "Extra-Small", "Mid-Size", " "}, variantLabels(drafts, stored))
	want := []DraftVariant{
		{Variant: "Large Room", VariantKey: "Large-Room"},
		{Variant: "Extra Small", VariantKey: "Extra-Small"},
		{Variant: "Mid Size", VariantKey: "Mid-Size"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
