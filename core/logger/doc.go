// Package logger writes the shell's structured session log and summarizes
// it.
//
// Each line of the log is a JSON object written by charmbracelet/log. Every
// interactive session gets its own ID so interleaved sessions sharing a log
// file can be told apart.
package logger
