package commands

const (
	_etc = "/usr/local/etc/gsheets"

	DEFAULT_CONFIG = _etc + "/gsheets.yaml"
)
