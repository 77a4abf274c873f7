package compliance

import (
	"path"
	"strings"
)

// LicenseFamily is the SPDX family a license text was classified into.
type LicenseFamily string

const (
	LicenseMIT      LicenseFamily = "MIT"
	LicenseApache2  LicenseFamily = "Apache-2.0"
	LicenseBSD      LicenseFamily = "BSD"
	LicenseGPL      LicenseFamily = "GPL"
	LicenseAGPL     LicenseFamily = "AGPL"
	LicenseLGPL     LicenseFamily = "LGPL"
	LicenseMPL      LicenseFamily = "MPL-2.0"
	LicenseISC      LicenseFamily = "ISC"
	LicenseUnlicKey LicenseFamily = "Unlicense"
	LicenseUnknown  LicenseFamily = "unknown"
)

// LicenseFinding is the classification of one license file.
type LicenseFinding struct {
	Path           string        `json:"path"`
	Family         LicenseFamily `json:"family"`
	StrongCopyleft bool          `json:"strongCopyleft"`
}

var licenseBaseNames = map[string]bool{
	"license":     true,
	"license.txt": true,
	"license.md":  true,
	"licence":     true,
	"licence.txt": true,
	"licence.md":  true,
	"copying":     true,
	"copying.txt": true,
	"unlicense":   true,
}

// IsLicenseFile reports whether a path names a top-level-style license file.
func IsLicenseFile(p string) bool {
	return licenseBaseNames[strings.ToLower(path.Base(p))]
}

// ClassifyLicense identifies the license family from the text of a license
// file. Classification is marker-based: distinctive phrases are checked in
// specificity order so AGPL is not swallowed by the GPL marker.
func ClassifyLicense(content string) LicenseFinding {
	text := strings.ToLower(content)

	var family LicenseFamily
	switch {
	case strings.Contains(text, "gnu affero general public license"):
		family = LicenseAGPL
	case strings.Contains(text, "gnu lesser general public license"):
		family = LicenseLGPL
	case strings.Contains(text, "gnu general public license"):
		family = LicenseGPL
	case strings.Contains(text, "apache license") && strings.Contains(text, "version 2.0"):
		family = LicenseApache2
	case strings.Contains(text, "mozilla public license"):
		family = LicenseMPL
	case strings.Contains(text, "permission to use, copy, modify, and/or distribute"):
		family = LicenseISC
	case strings.Contains(text, "this is free and unencumbered software released into the public domain"):
		family = LicenseUnlicKey
	case strings.Contains(text, "redistribution and use in source and binary forms"):
		family = LicenseBSD
	case strings.Contains(text, "permission is hereby granted, free of charge"):
		family = LicenseMIT
	default:
		family = LicenseUnknown
	}

	return LicenseFinding{
		Family:         family,
		StrongCopyleft: family == LicenseGPL || family == LicenseAGPL,
	}
}

// DetectLicenses classifies every license file found at depth <= 1 of the
// tree. Deeper license files usually belong to vendored dependencies and are
// skipped.
func DetectLicenses(paths []string, read func(string) ([]byte, error)) []LicenseFinding {
	var out []LicenseFinding
	for _, p := range paths {
		clean := path.Clean(p)
		if strings.Count(clean, "/") > 1 {
			continue
		}
		if !IsLicenseFile(clean) {
			continue
		}
		content, err := read(p)
		if err != nil {
			continue
		}
		f := ClassifyLicense(string(content))
		f.Path = p
		out = append(out, f)
	}
	return out
}
