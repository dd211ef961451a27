// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// legallens scores terms of service, privacy policies and EULAs for unfair
// clauses.
//
// Usage:
//
//	legallens analyze terms.pdf privacy.md        # analyze documents
//	legallens analyze - < eula.txt                # analyze stdin
//	legallens analyze --github https://github.com/org/repo --path TERMS.md
//	legallens serve --addr :8080                  # HTTP API
//	legallens mcp                                 # MCP server on stdio
//	legallens taxonomy                            # list detected risks
//	legallens history list                        # stored analyses
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
