// Ringdmasim runs a ring buffer DMA scenario and prints what happened.
package main

import "github.com/sarchlab/ringdma/cmd/ringdmasim/cmd"

func main() {
	cmd.Execute()
}
