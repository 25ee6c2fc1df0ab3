package storage

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/tcfw/runtimed/pkg/transaction"
)

const (
	falsePositive = 0.01

	expectedTagsPerTxn = 4
)

func newTagBloom() *bloom.BloomFilter {
	return bloom.NewWithEstimates(MaxBlockTxCount*expectedTagsPerTxn, falsePositive)
}

// MakeTagBloom builds a bloom filter of every txn tag in a block
func MakeTagBloom(txnTags []transaction.Tags) ([]byte, error) {
	b := newTagBloom()

	for _, tags := range txnTags {
		for _, t := range tags {
			b.Add(t.Bytes())
		}
	}

	return b.GobEncode()
}

// BloomContains reports whether the tag may have been emitted in the block.
// An empty bloom matches everything.
func BloomContains(b []byte, tag transaction.Tag) (bool, error) {
	if len(b) == 0 {
		return true, nil
	}

	bloom := newTagBloom()

	if err := bloom.GobDecode(b); err != nil {
		return false, err
	}

	return bloom.Test(tag.Bytes()), nil
}
