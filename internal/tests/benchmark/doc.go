// Package benchmark holds cross-package performance benchmarks.
//
// Run with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare runs with benchstat:
//
//	go test -bench=. -benchmem -count=5 ./internal/tests/benchmark/... | tee bench.txt
//	benchstat old.txt bench.txt
package benchmark
