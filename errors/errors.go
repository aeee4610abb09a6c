package errors

import "fmt"

var (
	ErrDuplicateUsername = fmt.Errorf("username already taken")
	ErrNotAuthenticated  = fmt.Errorf("not authenticated")
	ErrProtocol          = fmt.Errorf("malformed frame")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
