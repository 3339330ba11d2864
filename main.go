// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/abstractsdk/abstract/cmd/abstract"

func main() {
	cmd.Execute()
}
