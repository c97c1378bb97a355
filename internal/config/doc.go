// Package config loads, normalizes, and validates pmtm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PMTM_FFMPEG. The Config type centralizes the external tool locations the
// original desktop settings dialog exposed, together with scan, probe, and
// logging knobs.
//
// Load the config once at startup and pass it to the components that need it;
// nothing in the repository reads settings from a package-level global.
package config
