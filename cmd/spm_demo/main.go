package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/techwithsergiu/spm_interop_go/gosp"
	"github.com/techwithsergiu/spm_interop_go/interop"
)

var defaultSamples = []string{
	"▁HELLO",
	"▁OBAMA",
	"OBAMA",
	"HELL▁▁O", // out-of-vocab example
}

func readVocab(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vocab []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		// Vocab dumps are "piece<TAB>score" per line; only the piece matters.
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			line = line[:i]
		}
		vocab = append(vocab, line)
	}
	return vocab, nil
}

func main() {
	modelPath := flag.String("model", "", "path to a serialized SentencePiece model")
	vocabPath := flag.String("vocab", "", "optional vocabulary file, one piece per line")
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("usage: spm_demo -model <file.model> [-vocab <file.vocab>] [text ...]")
	}

	eng, err := gosp.NewEngine(*modelPath)
	if err != nil {
		log.Fatalf("NewEngine: %v", err)
	}

	if *vocabPath != "" {
		vocab, err := readVocab(*vocabPath)
		if err != nil {
			log.Fatalf("read vocab: %v", err)
		}
		if err := eng.SetVocabulary(vocab); err != nil {
			log.Fatalf("SetVocabulary: %v", err)
		}
	}

	registry := interop.NewRegistry()
	h := registry.Add(eng)
	defer registry.Unload(h)

	samples := flag.Args()
	if len(samples) == 0 {
		samples = defaultSamples
	}

	for _, text := range samples {
		fmt.Println("text:", text)

		buf := make([]int32, len(text)+1)
		n := registry.EncodeAsIDs(h, text, buf)
		if n < 0 {
			log.Fatalf("EncodeAsIds failed: %d", n)
		}

		for _, id := range buf[:n] {
			fmt.Printf("  piece id %d has %d UCS-2 characters\n",
				id, registry.UCS2LengthOfPieceID(h, int(id)))
		}
	}
}
