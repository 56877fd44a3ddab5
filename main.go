// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/eventloc/locator/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
