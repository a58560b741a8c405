package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusFinished: true, StatusCancelled: true},
	StatusFinished:  {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}
