package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnregisteredSender = fmt.Errorf("sender session never registered")
	ErrInvalidTicket      = fmt.Errorf("invalid connect ticket")
	ErrTicketGeneration   = fmt.Errorf("connect ticket could not be generated")
	ErrNotRegistered      = fmt.Errorf("client is not registered")
)
