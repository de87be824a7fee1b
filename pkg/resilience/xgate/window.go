package xgate

// bin 是一个逐秒聚合桶：同一整数秒内的全部结果并入一个桶。
type bin struct {
	sec int64
	ok  int
	err int
}

// window 是有界的逐秒桶序列，按时间递增排列。
// 容量满时追加新桶会淘汰最旧的桶（双端队列语义）。
type window struct {
	bins []bin
	max  int
}

func newWindow(max int) *window {
	if max < 1 {
		max = 1
	}
	return &window{
		bins: make([]bin, 0, max),
		max:  max,
	}
}

// add 将一次调用结果并入 sec 秒的桶。
// 若结果并入了已存在的当前秒桶（同秒合并），返回 true。
func (w *window) add(sec int64, isErr bool) bool {
	if n := len(w.bins); n > 0 && w.bins[n-1].sec == sec {
		if isErr {
			w.bins[n-1].err++
		} else {
			w.bins[n-1].ok++
		}
		return true
	}
	b := bin{sec: sec}
	if isErr {
		b.err = 1
	} else {
		b.ok = 1
	}
	if len(w.bins) >= w.max {
		// 容量已满：淘汰最旧桶
		n := copy(w.bins, w.bins[1:])
		w.bins = w.bins[:n]
	}
	w.bins = append(w.bins, b)
	return false
}

// prune 丢弃窗口外的桶，保留 sec >= cutoffSec 的桶。
// 没有事件的秒不产生桶，因此既不参与分子也不参与分母。
func (w *window) prune(cutoffSec int64) {
	i := 0
	for i < len(w.bins) && w.bins[i].sec < cutoffSec {
		i++
	}
	if i > 0 {
		n := copy(w.bins, w.bins[i:])
		w.bins = w.bins[:n]
	}
}

// rate 返回当前窗口内的错误率 Σerr/(Σok+Σerr)；窗口为空时返回 0。
func (w *window) rate() float64 {
	var ok, err int
	for _, b := range w.bins {
		ok += b.ok
		err += b.err
	}
	total := ok + err
	if total <= 0 {
		return 0
	}
	return float64(err) / float64(total)
}

// last 返回最新的桶。
func (w *window) last() (bin, bool) {
	if len(w.bins) == 0 {
		return bin{}, false
	}
	return w.bins[len(w.bins)-1], true
}

func (w *window) len() int {
	return len(w.bins)
}
