// bb84.go runs a single simulated BB84 exchange and prints each stage of the
// protocol: bases, sifted positions, the disclosed sample and the final keys.
// The session can optionally be saved as a transcript, hashed down with
// privacy amplification, and used to pad a short message.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/qdemo/qdemo/bb84"
	"github.com/qdemo/qdemo/bitbuf"
	"github.com/qdemo/qdemo/internal/config"
	"github.com/qdemo/qdemo/internal/random"
	"github.com/qdemo/qdemo/otp"
	"github.com/qdemo/qdemo/quantum"
	flag "github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	var (
		rounds     = flag.Int("rounds", cfg.Rounds, "The number of qubits to exchange.")
		disclose   = flag.Float64("disclose", cfg.DiscloseFraction, "The fraction of sifted bits revealed to estimate the error rate.")
		eavesdrop  = flag.Float64("eavesdrop", cfg.Eavesdrop, "The probability that an intercept-resend eavesdropper measures each qubit.")
		readout    = flag.Float64("readout-error", cfg.ReadoutError, "The probability that the receiver misreads a measurement.")
		seed       = flag.Int64("seed", cfg.Seed, "Seed for all randomness; 0 picks a fresh one.")
		transcript = flag.String("transcript", "", "If set, write the session transcript to this path.")
		compress   = flag.Bool("compress", cfg.TranscriptCompress, "Snappy-compress the transcript.")
		amplify    = flag.Int("amplify", 0, "If positive, hash the final key down to this many bits.")
		message    = flag.String("message", "", "If set, encrypt this message with the final key.")
		stretch    = flag.Bool("stretch", false, "Stretch the key with HKDF when it is shorter than the message.")
		eps        = flag.Float64("eps", 1e-9, "The failure probability tolerated by the leakage bound.")
		winnow     = flag.Bool("winnow", false, "Reconcile the keys with Winnow before amplification.")
		replay     = flag.String("replay", "", "If set, summarise the transcript at this path instead of running a session.")
	)
	flag.Parse()
	if !(*eps > 0 && *eps < 1) {
		log.Fatalf("--eps must lie in (0, 1), got %v", *eps)
	}

	if *replay != "" {
		if err := summarise(*replay); err != nil {
			log.Fatalf("Replaying %s: %v", *replay, err)
		}
		return
	}

	r, seedUsed, err := random.New(*seed)
	if err != nil {
		log.Fatalf("Seeding: %v", err)
	}
	s, err := bb84.RunSession(context.Background(), bb84.SessionOpts{
		Rounds:           *rounds,
		DiscloseFraction: *disclose,
		Rand:             r,
		Oracle:           &quantum.PolarizationOracle{Rand: r, ReadoutError: *readout},
		Eavesdrop:        *eavesdrop,
	})
	if err != nil {
		log.Fatalf("Running session: %v", err)
	}

	fmt.Printf("Session %s (seed %d)\n", s.ID, seedUsed)
	fmt.Println("Sender bases:  ", bases(s.Rounds, func(r bb84.Round) bb84.Basis { return r.SenderBasis }))
	fmt.Println("Receiver bases:", bases(s.Rounds, func(r bb84.Round) bb84.Basis { return r.ReceiverBasis }))
	fmt.Println("Sifted positions (where bases matched):", s.Sifted)
	fmt.Println("Sifted sender bits:  ", bitbuf.FromBits(s.SiftedSenderBits()))
	fmt.Println("Sifted receiver bits:", bitbuf.FromBits(s.SiftedReceiverBits()))
	fmt.Println("Disclosed positions for error checking:", s.Disclosed)
	var pairs []string
	for _, d := range s.Disclosures() {
		pairs = append(pairs, fmt.Sprintf("(%d,%d)", d.SenderBit, d.ReceiverBit))
	}
	fmt.Println("Disclosed (sender,receiver):", strings.Join(pairs, " "))
	fmt.Println("Final sender key (bits):  ", bitbuf.FromBits(s.SenderKey()))
	fmt.Println("Final receiver key (bits):", bitbuf.FromBits(s.ReceiverKey()))
	fmt.Println("Final key (hex):", bitbuf.Hex(s.FinalKey()))

	st := s.Stats()
	fmt.Printf("Rounds %d, sifted %d, disclosed %d, key bits %d, intercepted %d, QBER %.3f\n",
		st.Rounds, st.Sifted, st.Disclosed, st.KeyBits, st.Intercepted, st.QBER)
	fmt.Printf("Leakage bound: %.1f bits\n", bb84.LeakageBound(st.QBER, *eps, st.KeyBits, st.Disclosed))

	key := bitbuf.FromBits(s.FinalKey())
	if *winnow {
		res, err := s.Reconcile(bb84.WinnowOpts{Rand: rand.New(rand.NewSource(seedUsed))})
		if err != nil {
			log.Fatalf("Reconciling keys: %v", err)
		}
		fmt.Printf("Winnow: %d corrections, %d parity bits leaked, %d bits kept, keys agree: %v\n",
			res.Corrections, res.Leaked, len(res.Sender), bitbuf.Equal(bitbuf.FromBits(res.Sender), bitbuf.FromBits(res.Receiver)))
		key = bitbuf.FromBits(res.Sender)
	}
	if *amplify > 0 {
		seedBits := make([]uint8, bb84.SeedBits(key.Len(), *amplify))
		for i := range seedBits {
			seedBits[i] = uint8(r.Intn(2))
		}
		key, err = bb84.Amplify(key, bitbuf.FromBits(seedBits), *amplify)
		if err != nil {
			log.Fatalf("Amplifying key: %v", err)
		}
		fmt.Println("Amplified key (hex):", key.Hex())
	}

	if *message != "" {
		pad := key.Bytes()
		if key.Len() < 8*len(*message) && *stretch {
			pad, err = otp.Stretch(pad, len(*message), s.ID, "qdemo message pad")
			if err != nil {
				log.Fatalf("Stretching key: %v", err)
			}
		}
		ct, err := otp.XOR([]byte(*message), pad)
		if err != nil {
			log.Fatalf("Encrypting message: %v", err)
		}
		pt, err := otp.XOR(ct, pad)
		if err != nil {
			log.Fatalf("Decrypting message: %v", err)
		}
		fmt.Printf("Ciphertext (hex): %x\n", ct)
		fmt.Printf("Decrypted: %s\n", pt)
	}

	if *transcript != "" {
		f, err := os.Create(*transcript)
		if err != nil {
			log.Fatalf("Creating transcript: %v", err)
		}
		if err := bb84.WriteTranscript(f, s, bb84.TranscriptOpts{Compress: *compress}); err != nil {
			log.Fatalf("Writing transcript: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Closing transcript: %v", err)
		}
		fmt.Println("Transcript written to", *transcript)
	}
}

func summarise(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := bb84.ReadTranscript(f)
	if err != nil {
		return err
	}
	st := s.Stats()
	fmt.Printf("Session %s: rounds %d, sifted %d, disclosed %d, key bits %d, intercepted %d, QBER %.3f\n",
		s.ID, st.Rounds, st.Sifted, st.Disclosed, st.KeyBits, st.Intercepted, st.QBER)
	fmt.Println("Final key (hex):", bitbuf.Hex(s.FinalKey()))
	return nil
}

func bases(rounds []bb84.Round, pick func(bb84.Round) bb84.Basis) string {
	var sb strings.Builder
	for _, r := range rounds {
		sb.WriteString(pick(r).String())
	}
	return sb.String()
}
