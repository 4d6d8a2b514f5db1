// Package output renders sasmint-cli results as tables, JSON, or
// YAML. The table renderer reflects over response structs and honors
// `table` tags for column selection.
package output
