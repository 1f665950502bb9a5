package interop

import "fmt"

// Concat logs s and arr, then appends the rendering of v to buf in place.
// On failure buf keeps its previous content and the error matches
// ErrCapacityExceeded.
func Concat(console Console, v float64, buf *Buffer, arr []int8) error {
	console.Log(Delimiter)
	console.Log("concat, string argument:\n" + buf.String())

	console.Log("concat, array argument:")
	for i, e := range arr {
		console.Log(fmt.Sprintf("typedArray[%d] = %d", i, e))
	}

	err := buf.Append(FormatNumber(v))

	console.Log(Delimiter)
	return err
}

// ConcatCapacity returns the buffer size Concat needs for s in the worst
// case, bounded by limit when limit is positive.
func ConcatCapacity(s string, limit int) int {
	n := len(s) + StagingSize
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// AddToArray logs s and every element of arr, adding v to each element in
// place with AddTruncated. An empty arr is left alone and nothing is logged.
func AddToArray(console Console, v float64, s string, arr []int32) {
	if len(arr) == 0 {
		return
	}

	console.Log(Delimiter)
	console.Log("add_to_array, string argument:\n" + s)

	console.Log("add_to_array, array argument:")
	for i := range arr {
		console.Log(fmt.Sprintf("typedArray[%d] = %d", i, arr[i]))
		arr[i] = AddTruncated(arr[i], v)
	}

	console.Log(Delimiter)
}
