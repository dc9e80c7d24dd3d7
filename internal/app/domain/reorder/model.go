package reorder

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// modelConfig is the single JSON config shipped next to the weights blob.
type modelConfig struct {
	VocabSize    int `json:"vocab_size"`
	EmbedDim     int `json:"embed_dim"`
	HiddenDim    int `json:"hidden_dim"`
	PadID        int `json:"pad_id"`
	BosID        int `json:"bos_id"`
	EosID        int `json:"eos_id"`
	UnkID        int `json:"unk_id"`
	MaxInputLen  int `json:"max_input_len"`
	MaxOutputLen int `json:"max_output_len"`
}

func (c modelConfig) validate() error {
	if c.VocabSize <= 0 || c.EmbedDim <= 0 || c.HiddenDim <= 0 {
		return fmt.Errorf("model config has non-positive dimensions: vocab=%d embed=%d hidden=%d", c.VocabSize, c.EmbedDim, c.HiddenDim)
	}
	for _, id := range []int{c.PadID, c.BosID, c.EosID, c.UnkID} {
		if id < 0 || id >= c.VocabSize {
			return fmt.Errorf("control token id %d outside vocab of size %d", id, c.VocabSize)
		}
	}
	return nil
}

// gruWeights holds one recurrent cell. Input matrices are hidden×embed,
// recurrent matrices hidden×hidden.
type gruWeights struct {
	Wz, Wr, Wh [][]float32
	Uz, Ur, Uh [][]float32
	Bz, Br, Bh []float32
}

// modelWeights is the gob payload of the opaque weights artifact: a tied
// embedding table, encoder and decoder cells, and the output projection.
type modelWeights struct {
	Embedding [][]float32
	Encoder   gruWeights
	Decoder   gruWeights
	OutW      [][]float32
	OutB      []float32
}

func decodeWeights(blob []byte) (*modelWeights, error) {
	var w modelWeights
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding model weights: %w", err)
	}
	return &w, nil
}

func (w *modelWeights) validate(cfg modelConfig) error {
	if len(w.Embedding) != cfg.VocabSize {
		return fmt.Errorf("embedding has %d rows, vocab has %d tokens", len(w.Embedding), cfg.VocabSize)
	}
	for i, row := range w.Embedding {
		if len(row) != cfg.EmbedDim {
			return fmt.Errorf("embedding row %d has dim %d, want %d", i, len(row), cfg.EmbedDim)
		}
	}
	if len(w.OutW) != cfg.VocabSize || len(w.OutB) != cfg.VocabSize {
		return fmt.Errorf("output projection shape (%d,%d) does not match vocab %d", len(w.OutW), len(w.OutB), cfg.VocabSize)
	}
	for _, cell := range []gruWeights{w.Encoder, w.Decoder} {
		if len(cell.Wz) != cfg.HiddenDim || len(cell.Uz) != cfg.HiddenDim {
			return fmt.Errorf("gru cell shape does not match hidden dim %d", cfg.HiddenDim)
		}
	}
	return nil
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// matVec computes m·v + b.
func matVec(m [][]float32, v, b []float32) []float32 {
	out := make([]float32, len(m))
	for i, row := range m {
		var sum float32
		for j, w := range row {
			sum += w * v[j]
		}
		if b != nil {
			sum += b[i]
		}
		out[i] = sum
	}
	return out
}

// step advances the cell by one input embedding.
func (g *gruWeights) step(x, h []float32) []float32 {
	wzx := matVec(g.Wz, x, g.Bz)
	uzh := matVec(g.Uz, h, nil)
	wrx := matVec(g.Wr, x, g.Br)
	urh := matVec(g.Ur, h, nil)

	z := make([]float32, len(h))
	r := make([]float32, len(h))
	for i := range h {
		z[i] = sigmoid(wzx[i] + uzh[i])
		r[i] = sigmoid(wrx[i] + urh[i])
	}

	rh := make([]float32, len(h))
	for i := range h {
		rh[i] = r[i] * h[i]
	}
	whx := matVec(g.Wh, x, g.Bh)
	uhr := matVec(g.Uh, rh, nil)

	next := make([]float32, len(h))
	for i := range h {
		cand := float32(math.Tanh(float64(whx[i] + uhr[i])))
		next[i] = (1-z[i])*h[i] + z[i]*cand
	}
	return next
}

// decode runs the greedy seq2seq pass: encode the input token run, then emit
// tokens until <eos> or the length budget runs out. Argmax ties break toward
// the lower token id, keeping decoding deterministic.
func (w *modelWeights) decode(cfg modelConfig, input []int) []int {
	h := make([]float32, cfg.HiddenDim)
	for _, tok := range input {
		h = w.Encoder.step(w.Embedding[tok], h)
	}

	budget := len(input) + 2
	if cfg.MaxOutputLen > 0 && budget > cfg.MaxOutputLen {
		budget = cfg.MaxOutputLen
	}

	var out []int
	tok := cfg.BosID
	for step := 0; step < budget; step++ {
		h = w.Decoder.step(w.Embedding[tok], h)
		logits := matVec(w.OutW, h, w.OutB)

		best := 0
		for i := 1; i < len(logits); i++ {
			if logits[i] > logits[best] {
				best = i
			}
		}
		if best == cfg.EosID {
			break
		}
		out = append(out, best)
		tok = best
	}
	return out
}
