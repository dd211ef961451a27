// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

// Observer times named operations. The returned func must be called exactly
// once when the operation ends.
type Observer interface {
	StartTiming(component, operation, subject string) func(success bool, metadata map[string]any)
}

// Nop discards every timing.
type Nop struct{}

func (Nop) StartTiming(string, string, string) func(bool, map[string]any) {
	return func(bool, map[string]any) {}
}
