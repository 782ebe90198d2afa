package harvest

import (
	"testing"

	"github.com/seedandbeyond/snb-harvest/internal/domain/refdata"
)

func TestSanitizeDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.34", "12.34"},
		{"12.345", "12.34"},
		{"12a.3b4", "12.34"},
		{"1.2.3", "1.23"},
		{"007", "07"},
		{"0.50", "0.50"},
		{".", "0."},
		{".5", "0.5"},
		{"", ""},
		{"abc", ""},
		{"00.5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeDecimal(tt.in); got != tt.want {
				t.Errorf("SanitizeDecimal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormHangerWeightDerivation(t *testing.T) {
	t.Run("count times per-hanger weight", func(t *testing.T) {
		f := &Form{HangerType: "Large", NumberOfHangers: "18", IndividualHangerWeight: "0.5"}
		f.Recalc()
		if f.HangerWeight != "9.00" {
			t.Errorf("hanger weight = %q, want 9.00", f.HangerWeight)
		}
	})

	t.Run("no hanger type zeroes the weight", func(t *testing.T) {
		f := &Form{HangerWeight: "9.00"}
		f.Recalc()
		if f.HangerWeight != "0.00" {
			t.Errorf("hanger weight = %q, want 0.00", f.HangerWeight)
		}
	})

	t.Run("stale weight cleared when count removed", func(t *testing.T) {
		f := &Form{HangerType: "Large", HangerWeight: "9.00", NumberOfHangers: ""}
		f.Recalc()
		if f.HangerWeight != "" {
			t.Errorf("hanger weight = %q, want empty", f.HangerWeight)
		}
	})

	t.Run("invalid per-hanger weight keeps previous value", func(t *testing.T) {
		f := &Form{HangerType: "Large", NumberOfHangers: "18", IndividualHangerWeight: "x", HangerWeight: "9.00"}
		f.Recalc()
		if f.HangerWeight != "9.00" {
			t.Errorf("hanger weight = %q, want 9.00", f.HangerWeight)
		}
	})
}

func TestFormNetWeightDerivation(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want string
	}{
		{"gross minus tares", Form{GrossWeight: "100", HangerWeight: "9.00", CartWeight: "25.5"}, "65.50"},
		{"empty gross clears net", Form{GrossWeight: "", NetWeight: "65.50"}, ""},
		{"zero gross clears net", Form{GrossWeight: "0"}, ""},
		{"tares above gross clamp at zero", Form{GrossWeight: "10", HangerWeight: "9.00", CartWeight: "25.5"}, "0.00"},
		{"gross alone", Form{GrossWeight: "42"}, "42.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			f.Recalc()
			if f.NetWeight != tt.want {
				t.Errorf("net weight = %q, want %q", f.NetWeight, tt.want)
			}
		})
	}
}

func TestFormSetNumberOfPlants(t *testing.T) {
	f := &Form{AvailablePlants: "10"}

	if !f.SetNumberOfPlants("") {
		t.Error("empty input should be accepted")
	}
	if f.SetNumberOfPlants("abc") {
		t.Error("garbage input should be rejected")
	}
	if f.SetNumberOfPlants("-3") {
		t.Error("negative input should be rejected")
	}
	if !f.SetNumberOfPlants("12") {
		t.Error("over-available input should still be stored")
	}
	if !f.ExceedsAvailable() {
		t.Error("12 of 10 should report exceeds available")
	}
	if !f.SetNumberOfPlants("8") {
		t.Error("valid input should be accepted")
	}
	if f.ExceedsAvailable() {
		t.Error("8 of 10 should not report exceeds available")
	}
}

func TestFormApplyHanger(t *testing.T) {
	h := &refdata.Hanger{Name: "Large", Weight: "0.5"}

	t.Run("defaults hanger count", func(t *testing.T) {
		f := &Form{}
		f.ApplyHanger(h)
		if f.NumberOfHangers != "18" {
			t.Errorf("hanger count = %q, want 18", f.NumberOfHangers)
		}
		if f.HangerWeight != "9.00" {
			t.Errorf("hanger weight = %q, want 9.00", f.HangerWeight)
		}
	})

	t.Run("keeps count on rescan of same type", func(t *testing.T) {
		f := &Form{NumberOfHangers: "20"}
		f.ApplyHanger(h)
		f.ApplyHanger(h)
		if f.NumberOfHangers != "20" {
			t.Errorf("hanger count = %q, want 20", f.NumberOfHangers)
		}
		if f.HangerWeight != "10.00" {
			t.Errorf("hanger weight = %q, want 10.00", f.HangerWeight)
		}
	})
}

func validForm() *Form {
	f := &Form{
		AvailablePlants: "10",
		NumberOfPlants:  "8",
		HarvestName:     "HB-2024-001",
		Cart:            "CART-1",
		CartWeight:      "25.5",
		HangerType:      "Large",
		NumberOfHangers: "18",
		HangerWeight:    "9.00",
		GrossWeight:     "100",
		Location:        "DRY-01",
	}
	f.Recalc()
	return f
}

func TestFormValidateOrder(t *testing.T) {
	if err := validForm().Validate(); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Form)
		message string
	}{
		{
			"over available wins first",
			func(f *Form) { f.NumberOfPlants = "12" },
			"Number of plants (12) cannot exceed available plants (10)",
		},
		{
			"zero plants",
			func(f *Form) { f.NumberOfPlants = "0" },
			"Number of plants must be greater than 0",
		},
		{
			"missing harvest name",
			func(f *Form) { f.HarvestName = "" },
			"Please enter Harvest Name",
		},
		{
			"missing cart",
			func(f *Form) { f.Cart = "" },
			"Please Select Cart",
		},
		{
			"missing hanger type",
			func(f *Form) { f.HangerType = "" },
			"Please Select Hanger Type",
		},
		{
			"missing hanger weight",
			func(f *Form) { f.HangerWeight = "" },
			"Please Select Hanger Weight",
		},
		{
			"zero hangers",
			func(f *Form) { f.NumberOfHangers = "0" },
			"Please enter Number of Hangers greater than 0",
		},
		{
			"zero gross",
			func(f *Form) { f.GrossWeight = ""; f.NetWeight = "65.50" },
			"Please enter gross weight greater than 0",
		},
		{
			"missing location",
			func(f *Form) { f.Location = "" },
			"Please Select Drying Location",
		},
		{
			"zero net",
			func(f *Form) { f.NetWeight = "0.00" },
			"Net weight must be greater than 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(f)
			err := f.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Message != tt.message {
				t.Errorf("message = %q, want %q", err.Message, tt.message)
			}
		})
	}
}
