//go:build cgo

// The libspm_interop shared library exposes the tokenizer shim through a flat
// C ABI for hosts that cannot link Go directly:
//
//	go build -buildmode=c-shared -o libspm_interop.so ./cmd/libspm_interop
//
// Exported surface (wide-character boundary, UTF-16 text and paths):
//
//	intptr_t LoadModel(const uint16_t* modelPath, const uint16_t** vocab, size_t vocabSize)
//	int      EncodeAsIds(intptr_t object, const uint16_t* word, int* pieceIdBuffer, size_t pieceIdBufferSize)
//	int      UCS2LengthOfPieceId(intptr_t object, int pieceId)
//	void     UnloadModel(intptr_t object)
//
// No error object ever crosses the boundary; failures come back as the
// sentinel of each return type (0 handle, negative count, 0 length). Each
// entry point recovers panics, so nothing unwinds into the host process.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"log/slog"
	"unsafe"

	"github.com/techwithsergiu/spm_interop_go/gosp"
	"github.com/techwithsergiu/spm_interop_go/interop"
)

var registry = interop.NewRegistry()

// goStringFromWide reads a NUL-terminated UTF-16 string from caller memory.
func goStringFromWide(p *C.uint16_t) string {
	if p == nil {
		return ""
	}
	var units []uint16
	for q := unsafe.Pointer(p); ; q = unsafe.Add(q, 2) {
		u := *(*uint16)(q)
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return interop.StringFromUTF16(units)
}

// goVocabFromWide reads vocabSize NUL-terminated UTF-16 strings.
func goVocabFromWide(vocab **C.uint16_t, vocabSize C.size_t) []string {
	if vocab == nil || vocabSize == 0 {
		return nil
	}
	ptrs := unsafe.Slice(vocab, int(vocabSize))
	out := make([]string, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, goStringFromWide(p))
	}
	return out
}

// LoadModel constructs one engine from the model at modelPath and, when a
// non-empty vocabulary is supplied, restricts it to exactly those pieces.
// Returns an opaque non-zero handle, or 0 on any failure.
//
//export LoadModel
func LoadModel(modelPath *C.uint16_t, vocab **C.uint16_t, vocabSize C.size_t) (h C.intptr_t) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("LoadModel panicked", "recovered", r)
			h = 0
		}
	}()

	path := goStringFromWide(modelPath)

	eng, err := gosp.NewEngine(path)
	if err != nil {
		slog.Error("model load failed", "path", path, "error", err)
		return 0
	}

	if v := goVocabFromWide(vocab, vocabSize); len(v) > 0 {
		if err := eng.SetVocabulary(v); err != nil {
			eng.Close()
			slog.Error("vocabulary restriction failed", "path", path, "error", err)
			return 0
		}
	}

	return C.intptr_t(registry.Add(eng))
}

// EncodeAsIds segments word into piece ids written to pieceIdBuffer from
// offset 0. Returns the id count, the negated required length when the buffer
// is too small (buffer untouched), or -1 on any other failure.
//
//export EncodeAsIds
func EncodeAsIds(object C.intptr_t, word *C.uint16_t, pieceIdBuffer *C.int, pieceIdBufferSize C.size_t) (n C.int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("EncodeAsIds panicked", "recovered", r)
			n = C.int(interop.EncodeFailed)
		}
	}()

	var buf []int32
	if pieceIdBuffer != nil && pieceIdBufferSize > 0 {
		buf = unsafe.Slice((*int32)(unsafe.Pointer(pieceIdBuffer)), int(pieceIdBufferSize))
	}
	return C.int(registry.EncodeAsIDs(interop.Handle(object), goStringFromWide(word), buf))
}

// UCS2LengthOfPieceId returns the UTF-16 code-unit count of the piece's text,
// -1 if pieceId denotes the unknown piece, or 0 on failure.
//
//export UCS2LengthOfPieceId
func UCS2LengthOfPieceId(object C.intptr_t, pieceId C.int) (n C.int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("UCS2LengthOfPieceId panicked", "recovered", r)
			n = 0
		}
	}()

	return C.int(registry.UCS2LengthOfPieceID(interop.Handle(object), int(pieceId)))
}

// UnloadModel destroys the engine behind the handle. Unloading a handle that
// is not live is a no-op.
//
//export UnloadModel
func UnloadModel(object C.intptr_t) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("UnloadModel panicked", "recovered", r)
		}
	}()

	registry.Unload(interop.Handle(object))
}

func main() {}
