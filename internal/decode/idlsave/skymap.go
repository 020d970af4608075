package idlsave

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// GenerationInfo is the provenance sub-record carried by every skymap and
// calibration archive. CCDCenter and PixelAspectRatio only exist from
// schema revision 2 onward.
type GenerationInfo struct {
	Author             string
	DateGenerated      time.Time
	ValidIntervalStart time.Time
	ValidIntervalStop  time.Time // zero when the product is open-ended
	CCDCenter          []int32
	PixelAspectRatio   float32
}

// Skymap maps detector pixels to sky coordinates for one site and device.
type Skymap struct {
	Path       string
	Project    string
	Site       string
	Device     string
	Version    string
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Elevation  []float32
	Azimuth    []float32
	Generation GenerationInfo
}

// Calibration holds the per-detector optical calibration for one device.
type Calibration struct {
	Path           string
	Project        string
	Device         string
	Version        string
	FlatField      []float32
	RayleighsPerDN float32
	Generation     GenerationInfo
}

// provenance timestamps are written in the same shape as frame metadata.
var generationLayouts = []string{
	"2006-01-02 15:04:05 UTC",
	"2006-01-02",
	time.RFC3339,
}

func parseGenerationTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range generationLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// generationInfo projects the GENERATION_INFO variable, honoring the
// schema gate on optional fields.
func (f *File) generationInfo() (GenerationInfo, error) {
	recs, err := f.Struct("GENERATION_INFO")
	if err != nil {
		return GenerationInfo{}, err
	}
	if len(recs) != 1 {
		return GenerationInfo{}, fmt.Errorf("expected one generation record, found %d", len(recs))
	}
	rec := recs[0]

	var out GenerationInfo
	out.Author, _ = rec["AUTHOR"].(string)
	if s, ok := rec["DATE_GENERATED"].(string); ok {
		if out.DateGenerated, err = parseGenerationTime(s); err != nil {
			return out, fmt.Errorf("date_generated: %w", err)
		}
	}
	if s, ok := rec["VALID_INTERVAL_START"].(string); ok {
		if out.ValidIntervalStart, err = parseGenerationTime(s); err != nil {
			return out, fmt.Errorf("valid_interval_start: %w", err)
		}
	}
	if s, ok := rec["VALID_INTERVAL_STOP"].(string); ok {
		if out.ValidIntervalStop, err = parseGenerationTime(s); err != nil {
			return out, fmt.Errorf("valid_interval_stop: %w", err)
		}
	}
	if f.Version.Schema >= 2 {
		out.CCDCenter, _ = rec["CCD_CENTER"].([]int32)
		out.PixelAspectRatio, _ = rec["PIXEL_ASPECT_RATIO"].(float32)
	}
	return out, nil
}

// Skymap file names follow <project>_skymap_<site>_<date>_<version>.sav.
var skymapNameRe = regexp.MustCompile(`^([a-z0-9]+)_skymap_([a-z0-9]+)_.*_(v\d+)\.sav$`)

// ReadSkymap parses one skymap archive.
func ReadSkymap(path string) (*Skymap, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}

	out := &Skymap{Path: path}
	base := strings.ToLower(filepath.Base(path))
	m := skymapNameRe.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("file name %q does not follow the skymap convention", filepath.Base(path))
	}
	out.Project, out.Site, out.Version = m[1], m[2], m[3]

	recs, err := f.Struct("SKYMAP")
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("expected one skymap record, found %d", len(recs))
	}
	rec := recs[0]

	if s, ok := rec["IMAGER_UID"].(string); ok {
		out.Device = s
	}
	out.Latitude = asFloat64(rec["SITE_MAP_LATITUDE"])
	out.Longitude = asFloat64(rec["SITE_MAP_LONGITUDE"])
	out.Altitude = asFloat64(rec["SITE_MAP_ALTITUDE"])
	out.Elevation, _ = rec["FULL_ELEVATION"].([]float32)
	out.Azimuth, _ = rec["FULL_AZIMUTH"].([]float32)

	if out.Generation, err = f.generationInfo(); err != nil {
		return nil, err
	}
	return out, nil
}

// Calibration file names follow
// <project>_<device>_<kind>_<date>_<version>.sav, e.g.
// themis_19_flatfield_20230101_v01.sav.
var calibrationNameRe = regexp.MustCompile(`^([a-z0-9]+)_([a-z0-9-]+)_(?:flatfield|rayleighs)_.*_(v\d+)\.sav$`)

// ReadCalibration parses one calibration archive.
func ReadCalibration(path string) (*Calibration, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}

	out := &Calibration{Path: path}
	base := strings.ToLower(filepath.Base(path))
	m := calibrationNameRe.FindStringSubmatch(base)
	if m == nil {
		return nil, fmt.Errorf("file name %q does not follow the calibration convention", filepath.Base(path))
	}
	out.Project, out.Device, out.Version = m[1], m[2], m[3]

	recs, err := f.Struct("CALIBRATION")
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("expected one calibration record, found %d", len(recs))
	}
	rec := recs[0]

	out.FlatField, _ = rec["FLAT_FIELD_MULTIPLIER"].([]float32)
	if v, ok := rec["RAYLEIGHS_PERDN_PERSECOND"]; ok {
		out.RayleighsPerDN = float32(asFloat64(v))
	}

	if out.Generation, err = f.generationInfo(); err != nil {
		return nil, err
	}
	return out, nil
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case uint8:
		return float64(x)
	default:
		return 0
	}
}
