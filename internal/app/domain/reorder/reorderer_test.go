package reorder

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/pkg/artifacts"
)

const (
	testEmbed  = 2
	testHidden = 2
)

// testModel builds a vocab of the four control tokens plus one token per id,
// with zeroed recurrent weights so the decoder's argmax is fully determined
// by the output bias: every step emits favoriteToken (or halts immediately
// when it is <eos>).
func testModel(t *testing.T, ids []uuid.UUID, favoriteToken int) ([]string, modelConfig, *modelWeights) {
	t.Helper()
	tokens := []string{"<pad>", "<bos>", "<eos>", "<unk>"}
	for _, id := range ids {
		tokens = append(tokens, id.String())
	}
	cfg := modelConfig{
		VocabSize: len(tokens),
		EmbedDim:  testEmbed,
		HiddenDim: testHidden,
		PadID:     0, BosID: 1, EosID: 2, UnkID: 3,
		MaxInputLen:  16,
		MaxOutputLen: 16,
	}

	zeroMat := func(rows, cols int) [][]float32 {
		m := make([][]float32, rows)
		for i := range m {
			m[i] = make([]float32, cols)
		}
		return m
	}
	cell := gruWeights{
		Wz: zeroMat(testHidden, testEmbed), Wr: zeroMat(testHidden, testEmbed), Wh: zeroMat(testHidden, testEmbed),
		Uz: zeroMat(testHidden, testHidden), Ur: zeroMat(testHidden, testHidden), Uh: zeroMat(testHidden, testHidden),
		Bz: make([]float32, testHidden), Br: make([]float32, testHidden), Bh: make([]float32, testHidden),
	}
	w := &modelWeights{
		Embedding: zeroMat(len(tokens), testEmbed),
		Encoder:   cell,
		Decoder:   cell,
		OutW:      zeroMat(len(tokens), testHidden),
		OutB:      make([]float32, len(tokens)),
	}
	w.OutB[favoriteToken] = 1
	return tokens, cfg, w
}

func TestDisabledReordererIsIdentity(t *testing.T) {
	r := Disabled(zap.NewNop())
	assert.False(t, r.Enabled())

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	out, err := r.Reorder(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, ids, out)
}

func TestReorderProducesFullPermutation(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	// Token 5 is ids[1]: the model pulls it to the front.
	tokens, cfg, w := testModel(t, ids, 5)
	r, err := NewReorderer(tokens, cfg, w, zap.NewNop())
	require.NoError(t, err)
	require.True(t, r.Enabled())

	out, err := r.Reorder(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, out, len(ids))
	assert.Equal(t, ids[1], out[0])
	assert.ElementsMatch(t, ids, out)
	// The ids the decode missed keep their original relative order.
	assert.Equal(t, []uuid.UUID{ids[1], ids[0], ids[2]}, out)
}

func TestReorderImmediateEosKeepsOriginalOrder(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	tokens, cfg, w := testModel(t, ids, 2) // <eos>
	r, err := NewReorderer(tokens, cfg, w, zap.NewNop())
	require.NoError(t, err)

	out, err := r.Reorder(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, ids, out)
}

func TestReorderIdempotent(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	tokens, cfg, w := testModel(t, ids, 6)
	r, err := NewReorderer(tokens, cfg, w, zap.NewNop())
	require.NoError(t, err)

	once, err := r.Reorder(context.Background(), ids)
	require.NoError(t, err)
	twice, err := r.Reorder(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestReorderUnknownIDsMapToUnk(t *testing.T) {
	known := []uuid.UUID{uuid.New(), uuid.New()}
	tokens, cfg, w := testModel(t, known, 4)
	r, err := NewReorderer(tokens, cfg, w, zap.NewNop())
	require.NoError(t, err)

	stranger := uuid.New()
	input := []uuid.UUID{stranger, known[0], known[1]}
	out, err := r.Reorder(context.Background(), input)
	require.NoError(t, err)
	// Still a full permutation of the input, stranger included.
	assert.ElementsMatch(t, input, out)
}

func TestCompletePermutation(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	outsider := uuid.New()

	tests := []struct {
		name    string
		input   []uuid.UUID
		decoded []uuid.UUID
		want    []uuid.UUID
	}{
		{"empty decode", []uuid.UUID{a, b, c}, nil, []uuid.UUID{a, b, c}},
		{"partial decode", []uuid.UUID{a, b, c}, []uuid.UUID{c}, []uuid.UUID{c, a, b}},
		{"duplicates collapsed", []uuid.UUID{a, b}, []uuid.UUID{b, b, a}, []uuid.UUID{b, a}},
		{"outsiders dropped", []uuid.UUID{a, b}, []uuid.UUID{outsider, b}, []uuid.UUID{b, a}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, completePermutation(tc.input, tc.decoded))
		})
	}
}

func TestLoadMissingArtifactsDisables(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	r := Load(store, zap.NewNop())
	assert.False(t, r.Enabled())
}

func TestLoadFromArtifactDir(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	tokens, cfg, w := testModel(t, ids, 4)

	dir := t.TempDir()
	writeJSON := func(name string, v any) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	writeJSON(vocabFile, vocabArtifact{Tokens: tokens})
	writeJSON(configFile, cfg)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(w))
	require.NoError(t, os.WriteFile(filepath.Join(dir, weightsFile), buf.Bytes(), 0o600))

	r := Load(artifacts.NewStore(dir), zap.NewNop())
	require.True(t, r.Enabled())

	out, err := r.Reorder(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[0], ids[1]}, out)
}

func TestLoadCorruptWeightsDisables(t *testing.T) {
	ids := []uuid.UUID{uuid.New()}
	tokens, cfg, _ := testModel(t, ids, 2)

	dir := t.TempDir()
	writeJSON := func(name string, v any) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	writeJSON(vocabFile, vocabArtifact{Tokens: tokens})
	writeJSON(configFile, cfg)
	require.NoError(t, os.WriteFile(filepath.Join(dir, weightsFile), []byte("not a gob stream"), 0o600))

	r := Load(artifacts.NewStore(dir), zap.NewNop())
	assert.False(t, r.Enabled())
}
