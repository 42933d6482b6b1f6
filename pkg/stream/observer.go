// ABOUTME: Metric hooks for stream events
// ABOUTME: Lets a metrics backend count packets without the stream depending on it
package stream

// Observer receives stream events as they happen
type Observer interface {
	StreamOpened()
	StreamClosed()
	PacketReceived()
	FrameDecoded()
	FrameConcealed()
	FrameRecovered()
	DecodeFailed()
	PacketsLost(n int)
}

type nopObserver struct{}

func (nopObserver) StreamOpened()   {}
func (nopObserver) StreamClosed()   {}
func (nopObserver) PacketReceived() {}
func (nopObserver) FrameDecoded()   {}
func (nopObserver) FrameConcealed() {}
func (nopObserver) FrameRecovered() {}
func (nopObserver) DecodeFailed()   {}
func (nopObserver) PacketsLost(int) {}
