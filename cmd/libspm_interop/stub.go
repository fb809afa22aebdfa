//go:build !cgo

package main

import "log"

func main() {
	log.Fatal("libspm_interop: the shared-library surface requires cgo (build with -buildmode=c-shared)")
}
