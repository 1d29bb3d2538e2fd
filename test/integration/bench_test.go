package integration

import (
	"net/http"
	"testing"
)

// Benchmark for GET /grid/columns; to run: go test -bench=. ./test/integration -run ^$
func BenchmarkGridColumns(b *testing.B) {
	u := baseURL()
	client := &http.Client{}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := client.Get(u + "/grid/columns")
			if err == nil {
				_ = resp.Body.Close()
			}
		}
	})
}
