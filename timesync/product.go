package timesync

// product enumerates the Cartesian product of index tuples over a set of
// pool sizes, one tuple at a time, by carry-incrementing a counter vector —
// the Go rendering of IterProducts.hpp's odometer. It never materializes
// the full product, which matters since a queue's pool size can be several
// entries deep across many topics.
type product struct {
	poolSizes []int
	cur       []int
	started   bool
	exhausted bool
}

func newProduct(poolSizes []int) *product {
	return &product{poolSizes: poolSizes}
}

func (p *product) hasEmptyPool() bool {
	for _, n := range p.poolSizes {
		if n == 0 {
			return true
		}
	}
	return false
}

// next returns the next index tuple, or ok=false once every combination has
// been produced (or if any pool is empty, in which case there are none).
func (p *product) next() (tuple []int, ok bool) {
	if p.exhausted || len(p.poolSizes) == 0 {
		return nil, false
	}

	if !p.started {
		if p.hasEmptyPool() {
			p.exhausted = true
			return nil, false
		}
		p.started = true
		p.cur = make([]int, len(p.poolSizes))
		return append([]int(nil), p.cur...), true
	}

	carry := true
	for i := 0; i < len(p.poolSizes) && carry; i++ {
		p.cur[i]++
		if p.cur[i] == p.poolSizes[i] {
			p.cur[i] = 0
		} else {
			carry = false
		}
	}
	if carry {
		p.exhausted = true
		return nil, false
	}
	return append([]int(nil), p.cur...), true
}
