package common

//go:generate go run github.com/dmarkham/enumer -json -sql -type Status -trimprefix Status

// Status of an export job, from the point of view of this service
// (the completion of the job on the remote platform is not tracked)
type Status int

const (
	StatusNEW Status = iota
	StatusSUBMITTED
	StatusFAILED
)

func (s Status) Color() string {
	switch s {
	case StatusNEW:
		return "gray"
	case StatusSUBMITTED:
		return "green"
	case StatusFAILED:
		return "red"
	}
	return "white"
}
