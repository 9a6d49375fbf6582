package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DraftVariant is a variant being edited before the service is saved
type DraftVariant struct {
	Variant    string  `json:"variant"`
	VariantKey string  `json:"variant_key"`
	Price      float64 `json:"price"`
}

// VariantKey derives the slug of a variant label
func VariantKey(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// PriceField is the form field carrying the price of a variant in a zone
func PriceField(variantKey string, zoneID uuid.UUID) string {
	return fmt.Sprintf("%s_%s_price", variantKey, zoneID)
}

func isPriceField(field string) bool {
	rest, ok := strings.CutSuffix(field, "_price")
	if !ok {
		return false
	}
	key, zoneID, ok := cutLast(rest, "_")
	if !ok || key == "" {
		return false
	}
	_, err := uuid.Parse(zoneID)
	return err == nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// BuildVariationMatrix returns one variation per (variant, zone) pair. Variants
// are deduplicated by key and zones by id, keeping the first occurrence, so the
// result never holds two rows for the same (service, key, zone). A pair with no
// price in prices costs 0.
func BuildVariationMatrix(serviceID uuid.UUID, variants []DraftVariant, zones []uuid.UUID, prices map[string]float64) []Variation {
	seenKeys := make(map[string]struct{}, len(variants))
	uniqueVariants := make([]DraftVariant, 0, len(variants))
	for _, v := range variants {
		if _, ok := seenKeys[v.VariantKey]; ok || v.VariantKey == "" {
			continue
		}
		seenKeys[v.VariantKey] = struct{}{}
		uniqueVariants = append(uniqueVariants, v)
	}

	seenZones := make(map[uuid.UUID]struct{}, len(zones))
	uniqueZones := make([]uuid.UUID, 0, len(zones))
	for _, z := range zones {
		if _, ok := seenZones[z]; ok {
			continue
		}
		seenZones[z] = struct{}{}
		uniqueZones = append(uniqueZones, z)
	}

	rows := make([]Variation, 0, len(uniqueVariants)*len(uniqueZones))
	for _, v := range uniqueVariants {
		for _, z := range uniqueZones {
			rows = append(rows, Variation{
				ID:         uuid.New(),
				ServiceID:  serviceID,
				ZoneID:     z,
				Variant:    v.Variant,
				VariantKey: v.VariantKey,
				Price:      prices[PriceField(v.VariantKey, z)],
			})
		}
	}
	return rows
}

// ParsePrices collects every "{variant_key}_{zone_id}_price" form field. Other
// fields, min_bidding_price included, are ignored. Empty values are skipped;
// values that are not non-negative numbers are reported per field.
func ParsePrices(values url.Values) (map[string]float64, ValidationErrors) {
	prices := map[string]float64{}
	errs := ValidationErrors{}

	for field, vals := range values {
		if !isPriceField(field) || len(vals) == 0 {
			continue
		}
		raw := strings.TrimSpace(vals[0])
		if raw == "" {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			errs[field] = "Price must be a non-negative number"
			continue
		}
		prices[field] = price
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return prices, nil
}

// ParseTags splits a comma separated tag list. Labels are trimmed; empty and
// repeated labels are dropped.
func ParseTags(raw string) []string {
	seen := map[string]struct{}{}
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// variantLabels maps keys to labels, scratchpad entries first, then stored rows
func variantLabels(drafts []DraftVariant, stored []Variation) map[string]string {
	labels := map[string]string{}
	for _, v := range stored {
		labels[v.VariantKey] = v.Variant
	}
	for _, d := range drafts {
		labels[d.VariantKey] = d.Variant
	}
	return labels
}

// draftsFromKeys resolves the variant keys submitted by the edit form
func draftsFromKeys(keys []string, labels map[string]string) []DraftVariant {
	out := make([]DraftVariant, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		label, ok := labels[key]
		if !ok {
			label = strings.ReplaceAll(key, "-", " ")
		}
		out = append(out, DraftVariant{Variant: label, VariantKey: key})
	}
	return out
}
