// coinflip.go flips a quantum coin and prints the tally.
package main

import (
	"context"
	"fmt"
	"log"

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
	flips := flag.Int("flips", 10, "The number of coins to flip.")
	seed := flag.Int64("seed", cfg.Seed, "Seed for the simulator; 0 picks a fresh one.")
	flag.Parse()

	r, _, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	counts, err := qrng.CoinFlips(context.Background(), quantum.NewPolarizationOracle(r), *flips)
	if err != nil {
		log.Fatalf("Flipping: %v", err)
	}
	for _, k := range counts.Keys() {
		fmt.Printf("%s: %d\n", k, counts[k])
	}
}
