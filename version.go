package main

import "github.com/YaleSpinup/bugsnag-mini/eventreporter"

// Version is the main version number
const Version = eventreporter.NotifierVersion

// VersionPrerelease is a prerelease marker
const VersionPrerelease = ""
