package polaram

import "math/rand"

// Observation is one mode's tensor and Mueller matrix under one random orientation.
type Observation struct {
	Head    string
	Tensor  Mat3
	Mueller Mat4
}

// SampleTask draws one orientation and applies it to every mode: all modes
// belong to the same molecule, so they share the rotation.
// Output order and heads follow tensors.
func SampleTask(tensors []RamanTensor, rng *rand.Rand) []Observation {
	out := make([]Observation, len(tensors))
	sampleInto(out, tensors, SampleRotation(rng))
	return out
}

func sampleInto(out []Observation, tensors []RamanTensor, r Mat3) {
	for i, t := range tensors {
		rt := Rotate(t.M, r)
		out[i] = Observation{Head: t.Head, Tensor: rt, Mueller: MuellerOf(rt)}
	}
}
