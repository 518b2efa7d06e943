package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted/gsheets"

	DEFAULT_CONFIG = _etc + "/gsheets.yaml"
)
