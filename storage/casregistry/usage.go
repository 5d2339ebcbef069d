package casregistry

// Usage says which pixelz binaries may open a backend.
type Usage uint8

const (
	// UsageCLI backends can be named in pixelz.json.
	UsageCLI Usage = 1 << iota
	// UsageDaemon backends can be served by pixelz-casd. The grpc client is
	// CLI-only so a daemon cannot be pointed at itself.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

func (u Usage) String() string {
	switch u {
	case UsageCLI:
		return "the pixelz CLI"
	case UsageDaemon:
		return "pixelz-casd"
	case UsageCLI | UsageDaemon:
		return "pixelz and pixelz-casd"
	default:
		return "no binary"
	}
}
