package main

// Exit codes shared by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config or lookup tables)
	ExitDataError   = 3 // Data error (unparsable bibliography, fatal check failure)
	ExitCorrections = 4 // Corrections were found but not written
)
