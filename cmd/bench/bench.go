// bench.go runs a BB84 session for each entry in the cartesian product of a
// collection of tuning parameters, e.g. rounds exchanged and eavesdropping
// probability, and outputs a CSV of relevant statistics for each combination,
// e.g. observed error rate and final key length.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/qdemo/qdemo/bb84"
	"github.com/qdemo/qdemo/internal/config"
	"github.com/qdemo/qdemo/quantum"
	flag "github.com/spf13/pflag"
)

var (
	inputs  = []string{"rounds", "disclose", "eavesdrop", "readout", "seed"}
	columns = []string{"Rounds", "Disclose", "Eavesdrop", "ReadoutError", "Seed",
		"Sifted", "Disclosed", "KeyBits", "Intercepted", "EmpiricalQBER",
		"WinnowLeaked", "Reconciled", "Leakage", "SecureBits", "Accepted"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Rounds       int
	Disclose     float64
	Eavesdrop    float64
	ReadoutError float64
	Seed         int

	// Fields corresponding to experiment results
	Sifted        int
	Disclosed     int
	KeyBits       int
	Intercepted   int
	EmpiricalQBER float64
	WinnowLeaked  int
	Reconciled    bool
	Leakage       float64
	SecureBits    int
	Accepted      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	flag.IntSlice("rounds", []int{cfg.Rounds, 1024}, "The qubits to exchange per session.")
	flag.Float64Slice("disclose", []float64{cfg.DiscloseFraction}, "The fractions of sifted bits to disclose.")
	flag.Float64Slice("eavesdrop", []float64{cfg.Eavesdrop}, "The probabilities that each qubit is intercepted.")
	flag.Float64Slice("readout", []float64{cfg.ReadoutError}, "The receiver's readout error rates.")
	flag.IntSlice("seed", []int{42}, "The seeds to run each parameterization with.")
	eps := flag.Float64("eps", 1e-9, "The failure probability tolerated by the leakage bound.")
	maxQBER := flag.Float64("maxQBER", 0.11, "Sessions observing a higher error rate are rejected.")
	flag.Parse()
	if !(*eps > 0 && *eps < 1) {
		log.Fatalf("--eps must lie in (0, 1), got %v", *eps)
	}

	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]any
	for _, inp := range inputs {
		args = append(args, lookupInput(inp))
	}
	applyCartesian(func(args []any) {
		exp := &Experiment{
			Rounds:       args[inpIndex("rounds")].(int),
			Disclose:     args[inpIndex("disclose")].(float64),
			Eavesdrop:    args[inpIndex("eavesdrop")].(float64),
			ReadoutError: args[inpIndex("readout")].(float64),
			Seed:         args[inpIndex("seed")].(int),
		}
		if err := bench(exp, *eps, *maxQBER); err != nil {
			log.Printf("Benching %+v: %v", exp, err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatalf("BUG: could not fill in line template: %v", err)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment, eps, maxQBER float64) error {
	if !(eps > 0 && eps < 1) {
		return fmt.Errorf("eps must lie in (0, 1), got %v", eps)
	}
	r := rand.New(rand.NewSource(int64(exp.Seed)))
	s, err := bb84.RunSession(context.Background(), bb84.SessionOpts{
		Rounds:           exp.Rounds,
		DiscloseFraction: exp.Disclose,
		Rand:             r,
		Oracle:           &quantum.PolarizationOracle{Rand: r, ReadoutError: exp.ReadoutError},
		Eavesdrop:        exp.Eavesdrop,
	})
	if err != nil {
		return err
	}
	st := s.Stats()
	exp.Sifted = st.Sifted
	exp.Disclosed = st.Disclosed
	exp.KeyBits = st.KeyBits
	exp.Intercepted = st.Intercepted
	exp.EmpiricalQBER = st.QBER
	exp.Leakage = bb84.LeakageBound(st.QBER, eps, st.KeyBits, st.Disclosed)

	res, err := s.Reconcile(bb84.WinnowOpts{Rand: rand.New(rand.NewSource(int64(exp.Seed)))})
	if err != nil {
		return err
	}
	exp.WinnowLeaked = res.Leaked
	exp.Reconciled = slices.Equal(res.Sender, res.Receiver)
	exp.SecureBits = max(0, len(res.Sender)-int(math.Ceil(exp.Leakage)))
	exp.Accepted = st.QBER <= maxQBER && exp.Reconciled && exp.SecureBits > 0
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(name string) []any {
	var r []any
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		log.Fatalf("Unknown type for input %s", name)
	}
	return r
}

func applyCartesian(f func([]any), args [][]any) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]any, len(args))
		r := make([][]any, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]any, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
