package idlsave

import (
	"os"
	"path/filepath"
	"testing"

	"asiread/internal/testsupport"
)

func writeSkymapArchive(t *testing.T, dir, name string, schema int32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteSaveArchive(t, path, testsupport.SaveArchive{
		Schema: schema,
		Order:  []string{"SKYMAP", "GENERATION_INFO"},
		Structs: map[string][]testsupport.SaveTag{
			"SKYMAP": {
				{Name: "PROJECT_UID", Value: "themis"},
				{Name: "SITE_UID", Value: "gill"},
				{Name: "IMAGER_UID", Value: "themis19"},
				{Name: "SITE_MAP_LATITUDE", Value: float64(56.38)},
				{Name: "SITE_MAP_LONGITUDE", Value: float64(-94.64)},
				{Name: "SITE_MAP_ALTITUDE", Value: float64(150.0)},
				{Name: "FULL_ELEVATION", Value: []float32{10, 20, 30}},
				{Name: "FULL_AZIMUTH", Value: []float32{0, 90, 180}},
			},
			"GENERATION_INFO": testsupport.GenerationTags(),
		},
	})
	return path
}

func TestReadSkymap(t *testing.T) {
	dir := t.TempDir()
	path := writeSkymapArchive(t, dir, "themis_skymap_gill_20230101_v02.sav", 2)

	sm, err := ReadSkymap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sm.Project != "themis" || sm.Site != "gill" || sm.Version != "v02" {
		t.Fatalf("filename fields = %q/%q/%q", sm.Project, sm.Site, sm.Version)
	}
	if sm.Device != "themis19" {
		t.Fatalf("device = %q", sm.Device)
	}
	if sm.Latitude != 56.38 || sm.Longitude != -94.64 {
		t.Fatalf("site location = %v, %v", sm.Latitude, sm.Longitude)
	}
	if len(sm.Elevation) != 3 || sm.Elevation[2] != 30 {
		t.Fatalf("elevation = %v", sm.Elevation)
	}
	if sm.Generation.Author != "calibration team" {
		t.Fatalf("author = %q", sm.Generation.Author)
	}
	if sm.Generation.DateGenerated.IsZero() {
		t.Fatal("date generated should be parsed")
	}
	if !sm.Generation.ValidIntervalStop.IsZero() {
		t.Fatal("open-ended validity should have a zero stop time")
	}
	if len(sm.Generation.CCDCenter) != 2 {
		t.Fatalf("schema 2 archive should expose ccd center, got %v", sm.Generation.CCDCenter)
	}
}

func TestReadSkymap_SchemaGatesOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := writeSkymapArchive(t, dir, "themis_skymap_gill_20230101_v01.sav", 1)

	sm, err := ReadSkymap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sm.Generation.CCDCenter != nil || sm.Generation.PixelAspectRatio != 0 {
		t.Fatalf("schema 1 archive must not expose gated fields: %+v", sm.Generation)
	}
}

func TestReadSkymap_BadFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeSkymapArchive(t, dir, "weird_name.sav", 2)
	if _, err := ReadSkymap(path); err == nil {
		t.Fatal("expected error for unconventional file name")
	}
}

func TestReadCalibration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rego_654_flatfield_20230101_v01.sav")
	testsupport.WriteSaveArchive(t, path, testsupport.SaveArchive{
		Order: []string{"CALIBRATION", "GENERATION_INFO"},
		Structs: map[string][]testsupport.SaveTag{
			"CALIBRATION": {
				{Name: "DETECTOR_UID", Value: "654"},
				{Name: "FLAT_FIELD_MULTIPLIER", Value: []float32{1.0, 1.1, 0.9, 1.05}},
				{Name: "RAYLEIGHS_PERDN_PERSECOND", Value: float32(4.3)},
			},
			"GENERATION_INFO": testsupport.GenerationTags(),
		},
	})

	cal, err := ReadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal.Project != "rego" || cal.Device != "654" || cal.Version != "v01" {
		t.Fatalf("filename fields = %q/%q/%q", cal.Project, cal.Device, cal.Version)
	}
	if len(cal.FlatField) != 4 || cal.FlatField[1] != 1.1 {
		t.Fatalf("flat field = %v", cal.FlatField)
	}
	if cal.RayleighsPerDN != 4.3 {
		t.Fatalf("rayleighs = %v", cal.RayleighsPerDN)
	}
}

func TestParse_BadSignature(t *testing.T) {
	if _, err := Parse([]byte("PNG\x00 nope")); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestRead_TruncatedArchive(t *testing.T) {
	dir := t.TempDir()
	good := writeSkymapArchive(t, dir, "themis_skymap_gill_20230101_v02.sav", 2)
	raw, err := os.ReadFile(good)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	bad := filepath.Join(dir, "themis_skymap_fsmi_20230101_v02.sav")
	if err := os.WriteFile(bad, raw[:len(raw)/2], 0o644); err != nil {
		t.Fatalf("write truncated archive: %v", err)
	}
	if _, err := ReadSkymap(bad); err == nil {
		t.Fatal("expected error for truncated archive")
	}
}

func TestParse_TimestampAndVersionRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeSkymapArchive(t, dir, "themis_skymap_gill_20230101_v02.sav", 2)

	f, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Timestamp.User != "asi-pipeline" {
		t.Fatalf("timestamp user = %q", f.Timestamp.User)
	}
	if f.Version.Schema != 2 || f.Version.OS != "linux" {
		t.Fatalf("version = %+v", f.Version)
	}
}
