//go:build !unix

package transfer

func platformProbe(string, string) Capabilities {
	return Capabilities{Reason: "hard links are not supported on this platform"}
}
