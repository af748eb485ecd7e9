// Package logger is a structured event log for the jobs the shell runs.
//
// Events are stored as newline delimited protobuf JSON so they can be tailed
// while the shell runs and summarized later with `smash events report`.
package logger
