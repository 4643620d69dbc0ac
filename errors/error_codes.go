package errors

import "fmt"

// ERR is the numeric error code carried by every *Error.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_THRESHOLD_EXCEEDED ERR = 2
	ERR_NOT_FOUND          ERR = 3
	ERR_PROCESSING         ERR = 4
	ERR_CONFIGURATION      ERR = 5
	ERR_CONTEXT            ERR = 6
	ERR_CONTEXT_CANCELED   ERR = 7
	ERR_ERROR              ERR = 9
	ERR_ALREADY_EXISTS     ERR = 10
	ERR_INVARIANT          ERR = 11

	// 20-39 constraint machine
	ERR_STATELESS          ERR = 20
	ERR_ILLEGAL_TRANSITION ERR = 21
	ERR_MISSING_STATE      ERR = 22
	ERR_PROCEDURE          ERR = 23
	ERR_HOOK               ERR = 24
	ERR_TERMINAL_STATE     ERR = 25

	// 40-49 commit
	ERR_CONFLICT           ERR = 40
	ERR_MISSING_DEPENDENCY ERR = 41

	// 50-59 services and storage
	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52
	ERR_STORAGE_UNAVAILABLE ERR = 53
	ERR_STORAGE_ERROR       ERR = 54
	ERR_SERIALIZATION       ERR = 55
	ERR_KAFKA               ERR = 56
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "THRESHOLD_EXCEEDED",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	6:  "CONTEXT",
	7:  "CONTEXT_CANCELED",
	9:  "ERROR",
	10: "ALREADY_EXISTS",
	11: "INVARIANT",
	20: "STATELESS",
	21: "ILLEGAL_TRANSITION",
	22: "MISSING_STATE",
	23: "PROCEDURE",
	24: "HOOK",
	25: "TERMINAL_STATE",
	40: "CONFLICT",
	41: "MISSING_DEPENDENCY",
	50: "SERVICE_UNAVAILABLE",
	51: "SERVICE_NOT_STARTED",
	52: "SERVICE_ERROR",
	53: "STORAGE_UNAVAILABLE",
	54: "STORAGE_ERROR",
	55: "SERIALIZATION",
	56: "KAFKA",
}

var ERR_value = func() map[string]int32 {
	m := make(map[string]int32, len(ERR_name))
	for k, v := range ERR_name {
		m[v] = k
	}

	return m
}()

func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(x))
}

func (x ERR) String() string {
	return x.Enum()
}
