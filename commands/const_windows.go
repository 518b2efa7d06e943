package commands

const (
	_etc = `C:\ProgramData\gsheets`

	DEFAULT_CONFIG = _etc + `\gsheets.yaml`
)
