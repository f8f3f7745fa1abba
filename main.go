// Package main serves as the entry point for the alertflow application.
// It provides a production-grade engine for classifying error events against
// a known-pattern database, applying automated remediation within safety
// constraints, and escalating to humans when automation cannot act.
package main

import "alertflow/cmd"

func main() {
	cmd.Execute()
}
