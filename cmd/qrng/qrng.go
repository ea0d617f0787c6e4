// qrng.go prints random bytes generated from Hadamard measurements, along with
// a chi-square check of their balance.
//
// Usage: qrng [nbits]
package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/qdemo/qdemo/bitbuf"
	"github.com/qdemo/qdemo/internal/config"
	"github.com/qdemo/qdemo/internal/random"
	"github.com/qdemo/qdemo/qrng"
	"github.com/qdemo/qdemo/quantum"
	flag "github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	shots := flag.Int("shots", cfg.Shots, "The shots to take per simulator run.")
	seed := flag.Int64("seed", cfg.Seed, "Seed for the simulator; 0 picks a fresh one.")
	flag.Parse()

	nBits := 256
	if flag.NArg() > 0 {
		if nBits, err = strconv.Atoi(flag.Arg(0)); err != nil || nBits < 0 {
			log.Fatalf("Invalid bit count %q", flag.Arg(0))
		}
	}

	r, _, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	fmt.Printf("Generating %d random bits (quantum)...\n", nBits)
	bits, err := qrng.Bits(context.Background(), quantum.NewPolarizationOracle(r), nBits, *shots)
	if err != nil {
		log.Fatalf("Generating bits: %v", err)
	}
	data := bitbuf.Pack(bits)
	fmt.Println("Random bytes (hex):", bitbuf.Hex(bits))
	first := make([]int, 0, 10)
	for _, b := range data[:min(10, len(data))] {
		first = append(first, int(b))
	}
	fmt.Println("First 10 bytes as integers:", first)
	if len(bits) > 0 {
		chi2, p, err := qrng.Uniformity(bits)
		if err != nil {
			log.Fatalf("Testing uniformity: %v", err)
		}
		fmt.Printf("Chi-square %.3f, p-value %.3f\n", chi2, p)
	}
}
