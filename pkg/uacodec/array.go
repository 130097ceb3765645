package uacodec

// EncodeArray writes a signed-i32 element count,
// then each element via putElem in order. Pass a nil slice for a
// semantically-null array.
func EncodeArray[T any](e *Encoder, items []T, putElem func(*Encoder, T)) {
	if items == nil {
		e.PutInt32(-1)
		return
	}
	e.PutInt32(int32(len(items)))
	for _, item := range items {
		putElem(e, item)
	}
}

// DecodeArray reads a signed-i32 element count and allocates exactly that
// many elements, decoding each via getElem. A count of -1 yields an empty
// (non-nil-observable) collection, indistinguishable from an explicit
// zero count.
func DecodeArray[T any](d *Decoder, getElem func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.Int32()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []T{}, nil
	}
	out := make([]T, n)
	for i := range out {
		v, err := getElem(d)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
