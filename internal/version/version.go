// ABOUTME: Version information for opushandle
// ABOUTME: Product and build constants shown by the CLI and advertised over mDNS
package version

const (
	// Version is the release version
	Version = "0.1.0"
	// Product is the product name
	Product = "opushandle"
	// Manufacturer identifies the maintainer
	Manufacturer = "Sendspin"
)
