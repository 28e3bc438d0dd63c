//go:build ignore

// Gen-capture writes a synthetic IBus capture to stdout, one burst of
// hex bytes per line, in the format 'ibuslink decode' reads.
//
// Usage:
//
//	go run tools/gen-capture.go [frames] > capture.txt
//
// The capture alternates channel sweeps with sensor value polls so both
// decode paths get exercised.
package main

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/rcwire/ibuslink/internal/ibus"
)

func main() {
	frames := 50
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "Usage: gen-capture [frames]\n")
			os.Exit(1)
		}
		frames = n
	}

	fmt.Println("# synthetic IBus capture, one burst per line")

	phase := 0.0
	for i := 0; i < frames; i++ {
		if i > 0 && i%10 == 0 {
			// Mix in a sensor value poll for address 1.
			frame, err := ibus.BuildPollFrame(ibus.CmdValue, 1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "gen-capture: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("% x\n", frame)
			continue
		}

		phase += 0.05
		channels := make([]uint16, ibus.MaxChannels)
		for c := range channels {
			offset := phase + float64(c)*0.6
			channels[c] = uint16(1500 + 400*math.Sin(offset))
		}
		frame, err := ibus.BuildChannelFrame(channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gen-capture: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("% x\n", frame)
	}
}
