// Package gosp implements spm.Engine on top of the pure-Go SentencePiece
// processor from github.com/eliben/go-sentencepiece.
//
// The processor handles segmentation only. Piece metadata (id to surface text,
// piece types, the unknown id) and the restricted-vocabulary mechanism are
// answered from the model's own piece table, read out of the same serialized
// blob the processor loads.
package gosp

import (
	"os"

	sentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"

	"github.com/techwithsergiu/spm_interop_go/spm"
)

// segmenter is the slice of the processor API the engine consumes.
type segmenter interface {
	Encode(text string) []sentencepiece.Token
}

// Engine is a loaded SentencePiece model with an optional restricted
// vocabulary.
type Engine struct {
	seg   segmenter
	table *spm.PieceTable

	// allowed is nil while unrestricted. When set, ids outside it are
	// rewritten to the unknown id during encoding.
	allowed map[int]struct{}
}

var _ spm.Engine = (*Engine)(nil)

// NewEngine loads a serialized SentencePiece model from a file path.
func NewEngine(modelPath string) (*Engine, error) {
	blob, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read model %q", modelPath)
	}

	table, err := spm.ParsePieceTable(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "parse model %q", modelPath)
	}

	proc, err := newProcessor(modelPath)
	if err != nil {
		return nil, err
	}

	return &Engine{seg: proc, table: table}, nil
}

// newProcessor constructs the backing processor. The processor trusts its
// input and panics on blobs that pass the piece-table scan but are otherwise
// malformed; such panics become load errors here.
func newProcessor(modelPath string) (seg segmenter, err error) {
	defer func() {
		if r := recover(); r != nil {
			seg, err = nil, errors.Errorf("load sentencepiece model %q: panic: %v", modelPath, r)
		}
	}()

	proc, err := sentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load sentencepiece model %q", modelPath)
	}
	return proc, nil
}

// NewEngineFromBytes loads a serialized SentencePiece model supplied in
// memory. The processor only exposes a file-path constructor, so the blob is
// spilled to a temporary file for the duration of the load.
func NewEngineFromBytes(blob []byte) (*Engine, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty model data")
	}

	f, err := os.CreateTemp("", "spm-*.model")
	if err != nil {
		return nil, errors.Wrap(err, "create temp model file")
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(blob); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "write temp model file")
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrap(err, "close temp model file")
	}

	return NewEngine(f.Name())
}

// EncodeAsIDs segments text into piece ids. Under a restricted vocabulary,
// pieces outside the allowed set come back as the unknown id.
func (e *Engine) EncodeAsIDs(text string) (ids []int, err error) {
	if e.seg == nil {
		return nil, errors.New("engine closed")
	}
	defer func() {
		if r := recover(); r != nil {
			ids, err = nil, errors.Errorf("encode: panic: %v", r)
		}
	}()

	toks := e.seg.Encode(text)
	ids = make([]int, len(toks))
	for i, tok := range toks {
		id := int(tok.ID)
		if e.allowed != nil {
			if _, ok := e.allowed[id]; !ok {
				id = e.table.UnknownID()
			}
		}
		ids[i] = id
	}
	return ids, nil
}

// SetVocabulary restricts encoding output to the given pieces, replacing any
// previous restriction. Pieces the model does not know are ignored; unknown
// and control pieces always stay producible.
func (e *Engine) SetVocabulary(pieces []string) error {
	if e.seg == nil {
		return errors.New("engine closed")
	}
	if len(pieces) == 0 {
		return errors.New("restricted vocabulary must not be empty")
	}

	allowed := make(map[int]struct{}, len(pieces))
	for _, p := range pieces {
		if id, ok := e.table.IDOf(p); ok {
			allowed[id] = struct{}{}
		}
	}
	for id := 0; id < e.table.Len(); id++ {
		p, _ := e.table.Get(id)
		if p.Type == spm.PieceTypeUnknown || p.Type == spm.PieceTypeControl {
			allowed[id] = struct{}{}
		}
	}
	allowed[e.table.UnknownID()] = struct{}{}

	e.allowed = allowed
	return nil
}

// IDToPiece returns the surface text of a piece id.
func (e *Engine) IDToPiece(id int) (string, error) {
	p, ok := e.table.Get(id)
	if !ok {
		return "", errors.Errorf("piece id %d out of range", id)
	}
	return p.Text, nil
}

// IsUnknown reports whether id denotes the model's unknown piece.
func (e *Engine) IsUnknown(id int) bool {
	p, ok := e.table.Get(id)
	return ok && p.Type == spm.PieceTypeUnknown
}

// Close releases the underlying processor.
func (e *Engine) Close() {
	e.seg = nil
}
