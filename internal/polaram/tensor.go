package polaram

import (
	"crypto/sha256"
	"encoding/hex"
)

// RamanTensor is one vibrational mode: a label and its 3×3 tensor in the molecule frame.
type RamanTensor struct {
	Head string
	M    Mat3
}

// Rotate expresses t in the frame given by r: rᵀ·t·r.
func Rotate(t, r Mat3) Mat3 {
	return r.Transpose().Mul(t).Mul(r)
}

// Heads returns the mode labels in order.
func Heads(tensors []RamanTensor) []string {
	out := make([]string, len(tensors))
	for i, t := range tensors {
		out[i] = t.Head
	}
	return out
}

// Fingerprint identifies a tensor list by its labels and exact values.
func Fingerprint(tensors []RamanTensor) string {
	h := sha256.New()
	for _, t := range tensors {
		h.Write([]byte(t.Head))
		h.Write([]byte{0})
		h.Write(encodeMat3(t.M))
	}
	return hex.EncodeToString(h.Sum(nil))
}
