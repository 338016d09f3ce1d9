package enums

// ProvisionalStatus is the success/failure signal extracted from a gateway
// return callback before verification.
type ProvisionalStatus string

const (
	ProvisionalSuccess ProvisionalStatus = "SUCCESS"
	ProvisionalFailure ProvisionalStatus = "FAILURE"
	ProvisionalUnknown ProvisionalStatus = "UNKNOWN"
)

// String implements fmt.Stringer.
func (p ProvisionalStatus) String() string {
	return string(p)
}
