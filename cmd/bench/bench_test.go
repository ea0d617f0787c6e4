package main

import (
	"reflect"
	"testing"
)

func TestApplyCartesian(t *testing.T) {
	var got [][]any
	applyCartesian(func(x []any) {
		got = append(got, x)
	}, [][]any{{1, 2}, {"a"}, {0.1, 0.2}})

	want := [][]any{
		{1, "a", 0.1},
		{1, "a", 0.2},
		{2, "a", 0.1},
		{2, "a", 0.2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applyCartesian visited %v, want %v", got, want)
	}
}

func TestBench(t *testing.T) {
	tcs := []struct {
		name      string
		exp       Experiment
		eaccepted bool
	}{
		{
			name:      "clean channel",
			exp:       Experiment{Rounds: 100000, Disclose: 0.5, Seed: 1},
			eaccepted: true,
		}, {
			name:      "full interception",
			exp:       Experiment{Rounds: 4000, Disclose: 0.5, Eavesdrop: 1, Seed: 2},
			eaccepted: false,
		}, {
			name:      "too short to bound",
			exp:       Experiment{Rounds: 64, Disclose: 0.1, Seed: 3},
			eaccepted: false,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			exp := tc.exp
			if err := bench(&exp, 1e-9, 0.11); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exp.Sifted != exp.Disclosed+exp.KeyBits {
				t.Errorf("sifted %d != disclosed %d + key %d", exp.Sifted, exp.Disclosed, exp.KeyBits)
			}
			if exp.Accepted != tc.eaccepted {
				t.Errorf("accepted == %v, want %v (%+v)", exp.Accepted, tc.eaccepted, exp)
			}
		})
	}

	bad := Experiment{Rounds: 10, Disclose: 2}
	if err := bench(&bad, 1e-9, 0.11); err == nil {
		t.Errorf("bench accepted a disclose fraction above one")
	}
	for _, eps := range []float64{0, 1, 2} {
		exp := Experiment{Rounds: 100, Disclose: 0.5, Seed: 4}
		if err := bench(&exp, eps, 0.11); err == nil {
			t.Errorf("bench accepted eps %v", eps)
		}
	}
}
