// Package memory provides in-memory implementations of driven port interfaces.
// They back the memory vector index provider and the service tests.
package memory
