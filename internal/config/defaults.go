// Package config provides configuration loading and defaults for projhist.
package config

import "time"

// DefaultRecognizedTypes are the marker extensions that identify a project
// directory.
var DefaultRecognizedTypes = []string{".bproj", ".csproj", ".vcxproj", ".xproj", ".sln"}

// DefaultYears is the default size of the year window.
const DefaultYears = 10

// DefaultOutputDir is where reports are written when no directory is given.
const DefaultOutputDir = "."

// DefaultIgnoreMode anchors ignore patterns at the scan root.
const DefaultIgnoreMode = "anchored"

// DefaultRowMode emits one row per project directory.
const DefaultRowMode = "directory"

// DefaultWorkers keeps history queries sequential.
const DefaultWorkers = 1

// DefaultQueryTimeout disables the per-query timeout.
const DefaultQueryTimeout = time.Duration(0)

// DefaultWatchInterval is how often watch polls HEAD.
const DefaultWatchInterval = 5 * time.Minute

// MinWatchInterval is the shortest interval watch accepts.
const MinWatchInterval = 30 * time.Second

// DefaultConfigDir is the default location for projhist configuration.
const DefaultConfigDir = "~/.config/projhist"

// DefaultDBName is the filename for the SQLite snapshot database.
const DefaultDBName = "projhist.db"

// EnvPrefix is prepended to every environment override, e.g. PROJHIST_YEARS.
const EnvPrefix = "PROJHIST"

// DefaultOutput holds the default terminal output preferences.
var DefaultOutput = Output{
	Color: true,
	Top:   10,
}
