// Package datafiles carries the sample settings the binaries fall back to
// when no settings file is found.
package datafiles

import _ "embed"

// SettingsFileName is the name binaries look for with paths.Find.
const SettingsFileName = "settings.json"

//go:embed settings.json
var Settings []byte
