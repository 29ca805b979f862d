package entropy

// Method records how an entropy value was obtained.
type Method int

const (
	// MethodTrue means every byte of the file contributed.
	MethodTrue Method = iota
	// MethodEstimated means a single random window stood in for the file.
	MethodEstimated
)

func (m Method) String() string {
	if m == MethodEstimated {
		return "Estimated Entropy"
	}
	return "True Entropy"
}

// Result is the outcome of scoring one file.
type Result struct {
	Value     float64
	Method    Method
	BytesRead int64
}
