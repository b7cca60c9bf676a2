package gbt

import "sync"

// minExamplesToParallelize mirrors original_source's
// rearrange_examples_index.rs MIN_EXAMPLES_TO_PARALLELIZE: ranges
// smaller than this are partitioned with a simple two-pointer scan;
// larger ranges use a parallel scratch-buffer copy.
const minExamplesToParallelize = 1024

// rearrangeExamplesIndex partitions exampleIndex[start:end] in place so
// that every index for which goesLeft returns true comes before every
// index for which it returns false, and returns the split point. This
// is the example rearranger (C5): the permutation array itself is
// mutated, not copied, except for the large-range parallel path which
// needs a scratch buffer to merge partial partitions.
func rearrangeExamplesIndex(exampleIndex []int, start, end int, goesLeft func(example int) bool) int {
	n := end - start
	if n < minExamplesToParallelize {
		return rearrangeSerial(exampleIndex, start, end, goesLeft)
	}
	return rearrangeParallel(exampleIndex, start, end, goesLeft)
}

// rearrangeSerial is the classic two-pointer in-place partition.
func rearrangeSerial(exampleIndex []int, start, end int, goesLeft func(int) bool) int {
	i, j := start, end-1
	for i <= j {
		for i <= j && goesLeft(exampleIndex[i]) {
			i++
		}
		for i <= j && !goesLeft(exampleIndex[j]) {
			j--
		}
		if i < j {
			exampleIndex[i], exampleIndex[j] = exampleIndex[j], exampleIndex[i]
			i++
			j--
		}
	}
	return i
}

// rearrangeParallel splits [start,end) into per-worker chunks, has each
// worker partition its chunk in place (left run then right run), then
// merges the chunk boundaries into one contiguous left run using a
// scratch buffer sized to the range — avoiding an O(n^2) merge while
// still returning a single split point, following the chunked-copy
// strategy in original_source's rearrange_examples_index.
func rearrangeParallel(exampleIndex []int, start, end int, goesLeft func(int) bool) int {
	n := end - start
	workers := 4
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	leftCounts := make([]int, workers)
	chunkBounds := make([][2]int, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		cs := start + w*chunk
		ce := cs + chunk
		if cs >= end {
			chunkBounds[w] = [2]int{cs, cs}
			continue
		}
		if ce > end {
			ce = end
		}
		chunkBounds[w] = [2]int{cs, ce}
		wg.Add(1)
		go func(w, cs, ce int) {
			defer wg.Done()
			split := rearrangeSerial(exampleIndex, cs, ce, goesLeft)
			leftCounts[w] = split - cs
		}(w, cs, ce)
	}
	wg.Wait()

	scratch := make([]int, n)
	pos := 0
	for w := 0; w < workers; w++ {
		cs := chunkBounds[w][0]
		copy(scratch[pos:pos+leftCounts[w]], exampleIndex[cs:cs+leftCounts[w]])
		pos += leftCounts[w]
	}
	splitPoint := start + pos
	for w := 0; w < workers; w++ {
		cs, ce := chunkBounds[w][0], chunkBounds[w][1]
		rightStart := cs + leftCounts[w]
		n := ce - rightStart
		copy(scratch[pos:pos+n], exampleIndex[rightStart:ce])
		pos += n
	}
	copy(exampleIndex[start:end], scratch)
	return splitPoint
}
