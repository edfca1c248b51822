package signing

import (
	"fmt"
	"net/url"
	"testing"
	"time"
)

var paramCounts = []int{0, 5, 50}

func benchParams(n int) url.Values {
	params := make(url.Values, n)
	for i := range n {
		params.Set(fmt.Sprintf("param-%d", i), fmt.Sprintf("value-%d", i))
	}

	return params
}

func BenchmarkSignRequest(b *testing.B) {
	signer, err := NewSigner("278d425bdf160c739803", "7ad3773142a6692b25b8",
		WithClock(func() time.Time { return time.Unix(1353088179, 0) }))
	if err != nil {
		b.Fatal(err)
	}

	body := []byte(`{"name":"foo","channels":["project-3"],"data":"{\"some\":\"data\"}"}`)

	for _, n := range paramCounts {
		params := benchParams(n)

		b.Run(fmt.Sprintf("params=%d/no-body", n), func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				if _, err := signer.SignRequest("GET", "/apps/3/channels", params, nil); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("params=%d/body", n), func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				if _, err := signer.SignRequest("POST", "/apps/3/events", params, body); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCanonicalString(b *testing.B) {
	for _, n := range paramCounts {
		params := benchParams(n)

		b.Run(fmt.Sprintf("params=%d", n), func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				_ = CanonicalString("POST", "/apps/3/events", params)
			}
		})
	}
}
