// Package version reports the relay's own build identity, surfaced on
// /health so operators can tell which build is answering.
package version

var (
	// Name identifies this server in logs and the health envelope.
	Name = "filerelay"
	// Number is the release version; overridden at build time with
	// -ldflags "-X github.com/dannyzb/filerelay/version.Number=...".
	Number = "dev"
)

// String renders the "name/version" form used in the health envelope.
func String() string {
	return Name + "/" + Number
}
