package coremock

import (
	"fmt"
	"unsafe"
)

// Implement Stringer, so when Pusher is passed as arg to another mock call,
// it not read and data races not created.
func (_m *Pusher) String() string {
	return fmt.Sprintf("coremock.Pusher{%v}", unsafe.Pointer(_m))
}

func (_m *Storage) String() string {
	return fmt.Sprintf("coremock.Storage{%v}", unsafe.Pointer(_m))
}
