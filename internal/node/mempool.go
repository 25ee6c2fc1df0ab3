package node

import (
	"container/heap"
	"sync"
	"time"
)

type callResult struct {
	output []byte
	err    error
}

// pendingCall is a submitted call waiting to be included in a block
type pendingCall struct {
	data []byte
	ts   int64
	seq  uint64

	res chan callResult
}

func (c *pendingCall) resolve(output []byte, err error) {
	c.res <- callResult{output: output, err: err}
}

type callList []*pendingCall

func (l callList) Len() int { return len(l) }

func (l callList) Less(i, j int) bool {
	if l[i].ts == l[j].ts {
		return l[i].seq < l[j].seq
	}
	return l[i].ts < l[j].ts
}

func (l callList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

func (l *callList) Push(x interface{}) {
	*l = append(*l, x.(*pendingCall))
}

func (l *callList) Pop() interface{} {
	old := *l
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*l = old[0 : n-1]
	return x
}

// callPool orders pending calls by arrival
type callPool struct {
	mu    sync.Mutex
	plist callList
	seq   uint64
}

func newCallPool() *callPool {
	p := &callPool{plist: make(callList, 0)}
	heap.Init(&p.plist)

	return p
}

func (p *callPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.plist.Len()
}

// Add queues data returning the pending call to wait on
func (p *callPool) Add(data []byte) *pendingCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	c := &pendingCall{
		data: data,
		ts:   time.Now().UnixNano(),
		seq:  p.seq,
		res:  make(chan callResult, 1),
	}
	heap.Push(&p.plist, c)

	return c
}

// Take removes up to max of the oldest pending calls
func (p *callPool) Take(max int) []*pendingCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.plist.Len()
	if n > max {
		n = max
	}

	calls := make([]*pendingCall, 0, n)
	for i := 0; i < n; i++ {
		calls = append(calls, heap.Pop(&p.plist).(*pendingCall))
	}

	return calls
}
