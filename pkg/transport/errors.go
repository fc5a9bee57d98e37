package transport

import "fmt"

var (
	errVersionNotExchanged = fmt.Errorf("transport: version exchange must complete before Step is called")
	errTerminated          = fmt.Errorf("transport: connection is terminated")
	errUnknownState        = fmt.Errorf("transport: machine is in an unrecognised state")
)

func errUnexpectedMessage(got, want byte) error {
	return fmt.Errorf("transport: unexpected message type %d, expected %d", got, want)
}
