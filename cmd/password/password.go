// password.go generates a short quantum-random password and sets up a toy
// Grover search for an index taken from its leading bits.
//
// This is a teaching aid for generated passwords only.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/qdemo/qdemo/grover"
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
	bitLen := flag.Int("bits", 8, "The password length in bits.")
	qubits := flag.Int("qubits", 1, fmt.Sprintf("The Grover register size (1..%d); the built-in simulator only runs 1.", grover.MaxQubits))
	shots := flag.Int("shots", 2048, "The shots for the Grover run.")
	seed := flag.Int64("seed", cfg.Seed, "Seed for the simulator; 0 picks a fresh one.")
	flag.Parse()

	r, _, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	o := quantum.NewPolarizationOracle(r)
	ctx := context.Background()

	fmt.Printf("Generating a demo password using quantum randomness (%d bits)...\n", *bitLen)
	pw, err := qrng.NewPassword(ctx, o, *bitLen)
	if err != nil {
		log.Fatalf("Generating password: %v", err)
	}
	fmt.Println("Generated (bits):", pw.BitString())
	fmt.Println("Hex representation:", pw.Hex)
	fmt.Println("ASCII (best-effort):", pw.ASCII)
	fmt.Println()

	target, err := grover.TargetFromBits(pw.Bits, *qubits)
	if err != nil {
		log.Fatalf("Choosing target: %v", err)
	}
	fmt.Printf("Using the first %d bits as the hidden target index: %d\n", *qubits, target)
	fmt.Printf("Grover iterations: %d, classical average checks: %.1f\n",
		grover.Iterations(*qubits), grover.ClassicalAverageChecks(*qubits))

	res, err := grover.Search(ctx, o, *qubits, target, *shots)
	switch {
	case errors.Is(err, quantum.ErrUnsupported):
		fmt.Println("The polarization simulator cannot execute entangling circuits; circuit follows.")
	case err != nil:
		log.Fatalf("Searching: %v", err)
	default:
		fmt.Println("Measurement counts:", res.Counts)
		fmt.Printf("Most-measured bitstring: %s, target %s, found: %v\n", res.Best, res.Target, res.Found())
	}

	c, err := grover.Circuit(*qubits, target)
	if err != nil {
		log.Fatalf("Building circuit: %v", err)
	}
	fmt.Println()
	fmt.Print(c.QASM())
}
