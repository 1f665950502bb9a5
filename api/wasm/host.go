package wasm

// Host functions provided to the interop module.
//
// //go:wasmimport host log_message
// func logMessage(level, ptr, length uint32)

// HostModule is the import module name of the host functions.
const HostModule = "host"

// FuncLogMessage writes a message to the host console channel.
// Signature: log_message(level, ptr, length)
const FuncLogMessage = "log_message"

// LogLevel is the level argument of log_message.
type LogLevel uint32

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// LogLevelConsole is used for console output of the exported functions.
const LogLevelConsole = LogLevelInfo
