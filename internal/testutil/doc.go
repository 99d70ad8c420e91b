// Package testutil contains helpers used across tests to reduce boilerplate
// when building agents backed by scripted models, tool calls and
// conversations. It is not intended for production usage.
package testutil
