package xgate

import (
	"io"
	"testing"
	"time"
)

func FuzzRecord(f *testing.F) {
	f.Add(uint16(8), uint8(0b10100101), uint8(1))
	f.Add(uint16(1), uint8(0), uint8(0))
	f.Add(uint16(200), uint8(0xFF), uint8(4))
	f.Add(uint16(50), uint8(0b00000001), uint8(2))

	f.Fuzz(func(t *testing.T, steps uint16, pattern uint8, tick uint8) {
		clock := newManualClock(1000)
		g := New("fuzz", Params{MaxErrRate: 0.3, WindowSec: 30, MinClosedSec: 2, HalfOpenProbe: 2},
			WithNowFunc(clock.Now),
			WithLogWriter(io.Discard),
			WithMaxBins(64),
		)

		n := int(steps%512) + 1
		for i := 0; i < n; i++ {
			isErr := pattern&(1<<(i%8)) != 0
			st := g.Record(isErr)
			if st != StateOpen && st != StateTripped && st != StateHalfOpen {
				t.Fatalf("Record returned invalid state %d at step %d", st, i)
			}
			clock.Advance(time.Duration(tick%5) * 500 * time.Millisecond)
		}

		snap := g.Snapshot()
		if snap.ErrRate < 0 || snap.ErrRate > 1 {
			t.Fatalf("err rate out of range: %f", snap.ErrRate)
		}
		if snap.WindowLen > 64 {
			t.Fatalf("window exceeded bin cap: %d", snap.WindowLen)
		}
		if snap.WindowLen < 0 {
			t.Fatalf("negative window length: %d", snap.WindowLen)
		}
	})
}

func FuzzParseState(f *testing.F) {
	f.Add("OPEN")
	f.Add("tripped")
	f.Add("  Half_Open ")
	f.Add("")
	f.Add("中文")

	f.Fuzz(func(t *testing.T, name string) {
		st := ParseState(name)
		if st != StateOpen && st != StateTripped && st != StateHalfOpen {
			t.Fatalf("ParseState(%q) returned invalid state %d", name, st)
		}
		// 解析已知状态名必须往返一致
		if st2 := ParseState(st.String()); st2 != st {
			t.Fatalf("round trip mismatch: %v -> %v", st, st2)
		}
	})
}
