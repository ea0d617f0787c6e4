// grover.go compares classical brute force with Grover search on a 1 to 4
// qubit space, prints the search circuit, and extrapolates both to a large
// key.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/qdemo/qdemo/grover"
	"github.com/qdemo/qdemo/internal/config"
	"github.com/qdemo/qdemo/internal/random"
	"github.com/qdemo/qdemo/quantum"
	flag "github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	qubits := flag.Int("qubits", 1, fmt.Sprintf("The search register size (1..%d); the built-in simulator only runs 1.", grover.MaxQubits))
	target := flag.Int("target", -1, "The index to search for; negative picks one at random.")
	shots := flag.Int("shots", 2000, "The shots for the Grover run.")
	keyBits := flag.Int("key-bits", 64, "The key size to extrapolate to.")
	seed := flag.Int64("seed", cfg.Seed, "Seed for the simulator; 0 picks a fresh one.")
	flag.Parse()

	if *qubits < 1 || *qubits > grover.MaxQubits {
		log.Printf("Invalid qubit count %d, using 1.", *qubits)
		*qubits = 1
	}
	r, _, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	if *target < 0 {
		*target = r.Intn(1 << *qubits)
	}

	fmt.Printf("Using %d qubits -> search space size N = %d\n", *qubits, 1<<*qubits)
	fmt.Printf("Target index: %d (binary %s)\n\n", *target, grover.Outcome(*qubits, *target))
	fmt.Printf("Classical brute-force, expected checks (avg): %.1f\n", grover.ClassicalAverageChecks(*qubits))
	fmt.Printf("Grover iterations (oracle calls per run): %d\n\n", grover.Iterations(*qubits))

	res, err := grover.Search(context.Background(), quantum.NewPolarizationOracle(r), *qubits, *target, *shots)
	switch {
	case errors.Is(err, quantum.ErrUnsupported):
		fmt.Println("The polarization simulator cannot execute entangling circuits; skipping the run.")
	case err != nil:
		log.Fatalf("Searching: %v", err)
	default:
		for _, k := range res.Counts.Keys() {
			fmt.Printf("  %s : %d counts (%.2f%%)\n", k, res.Counts[k], 100*float64(res.Counts[k])/float64(*shots))
		}
		fmt.Printf("Most-measured bitstring: %s, found: %v\n", res.Best, res.Found())
	}

	c, err := grover.Circuit(*qubits, *target)
	if err != nil {
		log.Fatalf("Building circuit: %v", err)
	}
	fmt.Println("\nCircuit (OpenQASM):")
	fmt.Print(c.QASM())

	classical, calls := grover.Extrapolate(*keyBits)
	fmt.Printf("\nClassical average checks for a %d-bit key: 2^%d (~%s)\n", *keyBits, *keyBits-1, grover.HumanReadable(classical))
	fmt.Printf("Grover oracle calls for a %d-bit key (ideal): ~pi/4 * 2^%d (~%s)\n", *keyBits, *keyBits/2, grover.HumanReadable(calls))
}
