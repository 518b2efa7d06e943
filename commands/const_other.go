//go:build !linux && !darwin && !windows

package commands

const DEFAULT_CONFIG = "gsheets.yaml"
