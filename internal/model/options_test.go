package model

import "testing"

func TestParseQuantizationMode(t *testing.T) {
	tests := []struct {
		input   string
		want    QuantizationMode
		wantErr bool
	}{
		{"kmeans", ModeKMeans, false},
		{" KMeans_Brightness ", ModeKMeansBrightness, false},
		{"contrast", ModeContrast, false},
		{"median-cut", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		got, err := ParseQuantizationMode(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseQuantizationMode(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseQuantizationMode(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestQuantizationModesHaveDescriptions(t *testing.T) {
	for _, mode := range QuantizationModes() {
		if mode.Description() == "" {
			t.Errorf("mode %s has no description", mode)
		}
	}
}

func TestProcessingOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	bad := []ProcessingOptions{
		{Mode: "bogus", MaxResolution: 128, UpscaleFactor: 1},
		{Mode: ModeKMeans, MaxResolution: 0, UpscaleFactor: 1},
		{Mode: ModeKMeans, MaxResolution: 128, UpscaleFactor: -2},
	}
	for _, opts := range bad {
		if err := opts.Validate(); err == nil {
			t.Errorf("expected %+v to be rejected", opts)
		}
	}
}
