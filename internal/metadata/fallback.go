package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"birdstamp/internal/logging"
)

// extractEmbedded parses EXIF directly from the file bytes. It covers the
// tags the banner needs; files without EXIF yield an empty record rather
// than an error so rendering can proceed on filename data alone.
func extractEmbedded(path string, logger *slog.Logger) (*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	data, err := exif.Decode(file)
	if err != nil {
		logger.Debug("no embedded exif", logging.FieldSource, path, "error", err)
		return EmptyRecord(path), nil
	}

	tags := make(map[string]string)
	putString := func(key string, name exif.FieldName) {
		tag, err := data.Get(name)
		if err != nil || tag == nil {
			return
		}
		value, err := tag.StringVal()
		if err != nil {
			value = strings.Trim(tag.String(), `"`)
		}
		value = strings.TrimRight(strings.TrimSpace(value), "\x00")
		if value != "" {
			tags[key] = value
		}
	}
	putFloat := func(key string, name exif.FieldName) {
		value, ok := rationalValue(data, name)
		if ok {
			tags[key] = strconv.FormatFloat(value, 'f', -1, 64)
		}
	}
	putInt := func(key string, name exif.FieldName) {
		tag, err := data.Get(name)
		if err != nil || tag == nil {
			return
		}
		value, err := tag.Int(0)
		if err == nil {
			tags[key] = strconv.Itoa(value)
		}
	}

	putString("DateTimeOriginal", exif.DateTimeOriginal)
	putString("CreateDate", exif.DateTimeDigitized)
	putString("ModifyDate", exif.DateTime)
	putString("Make", exif.Make)
	putString("Model", exif.Model)
	putString("LensModel", exif.LensModel)
	putString("ImageDescription", exif.ImageDescription)
	putFloat("FNumber", exif.FNumber)
	putFloat("ExposureTime", exif.ExposureTime)
	putFloat("FocalLength", exif.FocalLength)
	putInt("ISO", exif.ISOSpeedRatings)
	putInt("FocalLengthIn35mmFormat", exif.FocalLengthIn35mmFilm)

	if lat, lon, err := data.LatLong(); err == nil {
		tags["GPSLatitude"] = strconv.FormatFloat(lat, 'f', -1, 64)
		tags["GPSLongitude"] = strconv.FormatFloat(lon, 'f', -1, 64)
	}

	if len(tags) == 0 {
		return EmptyRecord(path), nil
	}
	return NewRecord(path, ProvenanceEmbedded, tags), nil
}

// rationalValue reads a tag stored as num/den, falling back to an integer
// representation when the writer used one.
func rationalValue(data *exif.Exif, name exif.FieldName) (float64, bool) {
	tag, err := data.Get(name)
	if err != nil || tag == nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err == nil && den != 0 {
		return float64(num) / float64(den), true
	}
	value, err := tag.Int(0)
	if err == nil {
		return float64(value), true
	}
	return 0, false
}
