package validator

import "testing"

type colorRequest struct {
	Color string  `json:"color" validate:"required,test_color"`
	Name  string  `form:"name" validate:"required,max=5"`
	Tax   float64 `json:"tax" validate:"gte=0,lte=100"`
}

func TestValidateReportsFieldMessages(t *testing.T) {
	RegisterEnum("test_color", func(s string) bool { return s == "red" || s == "blue" }, "Invalid color. Must be: red or blue")

	errs := Validate(&colorRequest{Color: "green", Name: "toolong", Tax: 120})
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if errs["color"] != "Invalid color. Must be: red or blue" {
		t.Fatalf("unexpected color message %q", errs["color"])
	}
	if errs["name"] != "Value is too long (max: 5)" {
		t.Fatalf("unexpected name message %q", errs["name"])
	}
	if errs["tax"] != "Value must be at most 100" {
		t.Fatalf("unexpected tax message %q", errs["tax"])
	}

	if errs := Validate(&colorRequest{Color: "red", Name: "ok", Tax: 0}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
