// dice.go rolls a six-sided die built from three qubits.
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
	n := flag.Int("rolls", 20, "The number of dice to roll.")
	seed := flag.Int64("seed", cfg.Seed, "Seed for the simulator; 0 picks a fresh one.")
	flag.Parse()

	r, _, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	o := quantum.NewPolarizationOracle(r)
	rolls := make([]int, 0, *n)
	var counts [7]int
	for i := 0; i < *n; i++ {
		v, err := qrng.RollDie(context.Background(), o)
		if err != nil {
			log.Fatalf("Rolling: %v", err)
		}
		rolls = append(rolls, v)
		counts[v]++
	}
	fmt.Println("Dice rolls:", rolls)
	fmt.Print("Counts:")
	for face := 1; face <= 6; face++ {
		fmt.Printf(" %d:%d", face, counts[face])
	}
	fmt.Println()
}
