package spm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func appendPiece(blob []byte, text string, score float32, typ PieceType) []byte {
	var entry []byte
	entry = protowire.AppendTag(entry, fieldPieceText, protowire.BytesType)
	entry = protowire.AppendString(entry, text)
	entry = protowire.AppendTag(entry, fieldPieceScore, protowire.Fixed32Type)
	entry = protowire.AppendFixed32(entry, math.Float32bits(score))
	if typ != PieceTypeNormal {
		entry = protowire.AppendTag(entry, fieldPieceType, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(typ))
	}

	blob = protowire.AppendTag(blob, fieldModelPieces, protowire.BytesType)
	return protowire.AppendBytes(blob, entry)
}

func testModelBlob(t *testing.T) []byte {
	t.Helper()

	var blob []byte
	blob = appendPiece(blob, "<unk>", 0, PieceTypeUnknown)
	blob = appendPiece(blob, "<s>", 0, PieceTypeControl)
	blob = appendPiece(blob, "</s>", 0, PieceTypeControl)
	blob = appendPiece(blob, "▁HELLO", -2.5, PieceTypeNormal)
	blob = appendPiece(blob, "▁OBAMA", -3.0, PieceTypeNormal)
	blob = appendPiece(blob, "OBAMA", -3.5, PieceTypeNormal)

	// Unrelated trailing field, as real models carry trainer/normalizer specs.
	blob = protowire.AppendTag(blob, 2, protowire.BytesType)
	blob = protowire.AppendBytes(blob, []byte{0x0a, 0x01, 0x78})

	return blob
}

func TestParsePieceTable(t *testing.T) {
	table, err := ParsePieceTable(testModelBlob(t))
	require.NoError(t, err)

	assert.Equal(t, 6, table.Len())
	assert.Equal(t, 0, table.UnknownID())

	p, ok := table.Get(3)
	require.True(t, ok)
	assert.Equal(t, "▁HELLO", p.Text)
	assert.Equal(t, PieceTypeNormal, p.Type)
	assert.InDelta(t, -2.5, p.Score, 1e-6)

	id, ok := table.IDOf("OBAMA")
	require.True(t, ok)
	assert.Equal(t, 5, id)

	_, ok = table.IDOf("missing")
	assert.False(t, ok)

	_, ok = table.Get(-1)
	assert.False(t, ok)
	_, ok = table.Get(6)
	assert.False(t, ok)
}

func TestParsePieceTableImplicitNormalType(t *testing.T) {
	var entry []byte
	entry = protowire.AppendTag(entry, fieldPieceText, protowire.BytesType)
	entry = protowire.AppendString(entry, "a")

	var blob []byte
	blob = protowire.AppendTag(blob, fieldModelPieces, protowire.BytesType)
	blob = protowire.AppendBytes(blob, entry)

	table, err := ParsePieceTable(blob)
	require.NoError(t, err)

	p, ok := table.Get(0)
	require.True(t, ok)
	assert.Equal(t, PieceTypeNormal, p.Type)
	// No UNKNOWN-typed piece: trainer default id applies.
	assert.Equal(t, 0, table.UnknownID())
}

func TestParsePieceTableCorrupt(t *testing.T) {
	blob := testModelBlob(t)

	cases := map[string][]byte{
		"truncated": blob[:len(blob)-3],
		"garbage":   {0xff, 0xff, 0xff, 0xff},
		"empty":     nil,
		"no pieces": protowire.AppendVarint(protowire.AppendTag(nil, 3, protowire.VarintType), 1),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePieceTable(data)
			assert.Error(t, err)
		})
	}
}
