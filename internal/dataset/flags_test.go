package dataset

import "testing"

func TestFlagsSetHasClear(t *testing.T) {
	var f Flags
	if f.Has(FirstFrame) || f.Has(NoMetadata) || f.Has(Quiet) {
		t.Fatal("zero value must have no flags set")
	}

	f = f.Set(FirstFrame).Set(Quiet)
	if !f.Has(FirstFrame) || !f.Has(Quiet) {
		t.Fatalf("flags not set: %v", f)
	}
	if f.Has(NoMetadata) {
		t.Fatal("NoMetadata leaked in")
	}

	f = f.Clear(FirstFrame)
	if f.Has(FirstFrame) {
		t.Fatal("FirstFrame survived Clear")
	}
	if !f.Has(Quiet) {
		t.Fatal("Clear removed an unrelated flag")
	}
}

func TestFlagsAllFlags(t *testing.T) {
	if !AllFlags.Has(FirstFrame) || !AllFlags.Has(NoMetadata) || !AllFlags.Has(Quiet) {
		t.Fatalf("AllFlags missing a defined flag: %v", AllFlags)
	}
	if AllFlags.Clear(AllFlags) != 0 {
		t.Fatal("clearing AllFlags must empty the set")
	}
}

func TestFlagsString(t *testing.T) {
	cases := []struct {
		f    Flags
		want string
	}{
		{0, "none"},
		{FirstFrame, "first-frame"},
		{NoMetadata | Quiet, "no-metadata,quiet"},
		{AllFlags, "first-frame,no-metadata,quiet"},
	}
	for _, tc := range cases {
		if got := tc.f.String(); got != tc.want {
			t.Errorf("Flags(%d).String() = %q, want %q", tc.f, got, tc.want)
		}
	}
}

func TestRegistryEntries(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("registry is empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i] <= names[i-1] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}

	for _, name := range []string{"themis_asi", "rego", "trex_nir", "trex_blue", "trex_rgb"} {
		desc, ok := Lookup(name)
		if !ok {
			t.Fatalf("dataset %q missing from registry", name)
		}
		if desc.Kind != KindFrameStream {
			t.Fatalf("dataset %q registered as %s", name, desc.Kind)
		}
		if desc.decoder == nil {
			t.Fatalf("dataset %q has no decoder", name)
		}
		if len(desc.TimeKeys) == 0 {
			t.Fatalf("dataset %q has no timestamp keys", name)
		}
	}
	for _, name := range []string{"skymap", "calibration"} {
		desc, ok := Lookup(name)
		if !ok {
			t.Fatalf("dataset %q missing from registry", name)
		}
		if desc.Kind != KindSingleRecord {
			t.Fatalf("dataset %q registered as %s", name, desc.Kind)
		}
	}

	if _, ok := Lookup("not_a_dataset"); ok {
		t.Fatal("Lookup invented a dataset")
	}
}

func TestOptionsNormalize(t *testing.T) {
	opts, err := ReadOptions{}.normalize()
	if err != nil {
		t.Fatalf("zero options must normalize: %v", err)
	}
	if opts.Workers != 1 || opts.MergeWorkers != 1 {
		t.Fatalf("workers = %d/%d, want 1/1", opts.Workers, opts.MergeWorkers)
	}

	opts, err = ReadOptions{Workers: 4}.normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.MergeWorkers != 4 {
		t.Fatalf("MergeWorkers = %d, want Workers default", opts.MergeWorkers)
	}
}
