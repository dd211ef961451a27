// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "legallens "+Version) {
		t.Errorf("Info() = %q, want legallens prefix", info)
	}
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
	full := Full()
	for _, key := range []string{"version", "commit", "buildDate", "goVersion", "platform"} {
		if full[key] == "" {
			t.Errorf("Full()[%q] is empty", key)
		}
	}
}
