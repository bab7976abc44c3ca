package protocol

import "github.com/pkg/errors"

const MaxBitsPerValue = 32

// LongArrayLength is the number of words needed for count values. Values never span two words.
func LongArrayLength(count, bitsPerValue int) int {
	valuesPerLong := 64 / bitsPerValue
	return (count + valuesPerLong - 1) / valuesPerLong
}

// UnpackLongArray extracts count values of bitsPerValue bits each. Value i
// sits in word i/(64/b) starting at bit (i%(64/b))*b, least significant first.
func UnpackLongArray(words []uint64, bitsPerValue, count int) ([]uint32, error) {
	if count < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "value count %d", count)
	}
	values := make([]uint32, count)
	if err := UnpackLongArrayInto(values, words, bitsPerValue); err != nil {
		return nil, err
	}
	return values, nil
}

// UnpackLongArrayInto fills all of dst.
func UnpackLongArrayInto(dst []uint32, words []uint64, bitsPerValue int) error {
	if bitsPerValue < 1 || bitsPerValue > MaxBitsPerValue {
		return errors.Wrapf(ErrBitsPerValue, "%d bits", bitsPerValue)
	}
	if len(dst) == 0 {
		return nil
	}
	if needed := LongArrayLength(len(dst), bitsPerValue); needed > len(words) {
		return errors.Wrapf(ErrLongArrayTooShort, "%d values at %d bits need %d longs, got %d", len(dst), bitsPerValue, needed, len(words))
	}
	valuesPerLong := 64 / bitsPerValue
	mask := uint64(1)<<bitsPerValue - 1
	i := 0
	for _, word := range words {
		for j := 0; j < valuesPerLong && i < len(dst); j++ {
			dst[i] = uint32(word >> (j * bitsPerValue) & mask)
			i++
		}
		if i == len(dst) {
			break
		}
	}
	return nil
}

// PackLongArray is the inverse of UnpackLongArray. Values wider than bitsPerValue are an error.
func PackLongArray(values []uint32, bitsPerValue int) ([]uint64, error) {
	if bitsPerValue < 1 || bitsPerValue > MaxBitsPerValue {
		return nil, errors.Wrapf(ErrBitsPerValue, "%d bits", bitsPerValue)
	}
	valuesPerLong := 64 / bitsPerValue
	limit := uint64(1) << bitsPerValue
	words := make([]uint64, LongArrayLength(len(values), bitsPerValue))
	for i, v := range values {
		if uint64(v) >= limit {
			return nil, errors.Errorf("value %d at index %d does not fit in %d bits", v, i, bitsPerValue)
		}
		words[i/valuesPerLong] |= uint64(v) << ((i % valuesPerLong) * bitsPerValue)
	}
	return words, nil
}

// BitsFor returns the bits needed to store values in [0, n).
func BitsFor(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}
