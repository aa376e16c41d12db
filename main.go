// Command buildshim partitions build-script arguments and vets the rest with
// build-script-impl.
package main

import "github.com/aallbrig/buildshim/cmd"

func main() {
	cmd.Execute()
}
