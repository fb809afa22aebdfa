package spm

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// PieceType mirrors the type enum of the serialized model's piece entries.
type PieceType int32

const (
	PieceTypeNormal      PieceType = 1
	PieceTypeUnknown     PieceType = 2
	PieceTypeControl     PieceType = 3
	PieceTypeUserDefined PieceType = 4
	PieceTypeUnused      PieceType = 5
	PieceTypeByte        PieceType = 6
)

// Piece is one vocabulary entry of a loaded model.
type Piece struct {
	Text  string
	Score float32
	Type  PieceType
}

// PieceTable is the piece inventory of a serialized SentencePiece model,
// indexed by piece id. It is built once at load time and immutable afterwards.
type PieceTable struct {
	pieces []Piece
	ids    map[string]int
	unkID  int
}

// Wire field numbers from sentencepiece_model.proto.
const (
	fieldModelPieces = 1

	fieldPieceText  = 1
	fieldPieceScore = 2
	fieldPieceType  = 3
)

// ParsePieceTable extracts the piece inventory from a serialized model blob.
// Only the piece list is read; trainer and normalizer sections are skipped.
func ParsePieceTable(blob []byte) (*PieceTable, error) {
	t := &PieceTable{unkID: -1}

	b := blob
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "model proto: bad tag")
		}
		b = b[n:]

		if num == fieldModelPieces && typ == protowire.BytesType {
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "model proto: bad piece entry")
			}
			b = b[n:]

			p, err := parsePiece(msg)
			if err != nil {
				return nil, err
			}
			t.pieces = append(t.pieces, p)
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, errors.Wrapf(protowire.ParseError(n), "model proto: bad field %d", num)
		}
		b = b[n:]
	}

	if len(t.pieces) == 0 {
		return nil, errors.New("model proto: no pieces")
	}

	t.ids = make(map[string]int, len(t.pieces))
	for id, p := range t.pieces {
		if _, dup := t.ids[p.Text]; !dup {
			t.ids[p.Text] = id
		}
		if p.Type == PieceTypeUnknown && t.unkID < 0 {
			t.unkID = id
		}
	}
	if t.unkID < 0 {
		// Trainer default when the model carries no UNKNOWN-typed piece.
		t.unkID = 0
	}
	return t, nil
}

func parsePiece(msg []byte) (Piece, error) {
	p := Piece{Type: PieceTypeNormal}

	b := msg
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, errors.Wrap(protowire.ParseError(n), "piece entry: bad tag")
		}
		b = b[n:]

		switch {
		case num == fieldPieceText && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "piece entry: bad text")
			}
			b = b[n:]
			p.Text = string(v)
		case num == fieldPieceScore && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "piece entry: bad score")
			}
			b = b[n:]
			p.Score = math.Float32frombits(v)
		case num == fieldPieceType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "piece entry: bad type")
			}
			b = b[n:]
			p.Type = PieceType(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return p, errors.Wrapf(protowire.ParseError(n), "piece entry: bad field %d", num)
			}
			b = b[n:]
		}
	}
	return p, nil
}

// Len returns the number of pieces in the model.
func (t *PieceTable) Len() int { return len(t.pieces) }

// Get returns the piece for id, and whether id is in range.
func (t *PieceTable) Get(id int) (Piece, bool) {
	if id < 0 || id >= len(t.pieces) {
		return Piece{}, false
	}
	return t.pieces[id], true
}

// IDOf returns the id of a piece by its surface text.
func (t *PieceTable) IDOf(text string) (int, bool) {
	id, ok := t.ids[text]
	return id, ok
}

// UnknownID returns the id of the model's unknown piece.
func (t *PieceTable) UnknownID() int { return t.unkID }
