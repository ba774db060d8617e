// SPDX-License-Identifier: MPL-2.0

// lazymod runs module units with deferred imports.
package main

import cmd "github.com/invowk/lazymod/cmd/lazymod"

func main() {
	cmd.Execute()
}
