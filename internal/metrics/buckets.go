package metrics

import "sort"

// Buckets groups per-month accumulators by their YYYY-MM key.
type Buckets[A any] struct {
	init    func() *A
	buckets map[string]*A
}

func NewBuckets[A any](init func() *A) *Buckets[A] {
	return &Buckets[A]{init: init, buckets: make(map[string]*A)}
}

// Bucket returns the accumulator for month, creating it on first use.
func (b *Buckets[A]) Bucket(month string) *A {
	acc, ok := b.buckets[month]
	if !ok {
		acc = b.init()
		b.buckets[month] = acc
	}
	return acc
}

// Keys lists the months in ascending order.
func (b *Buckets[A]) Keys() []string {
	keys := make([]string, 0, len(b.buckets))
	for k := range b.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Buckets[A]) Len() int {
	return len(b.buckets)
}
