// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Lixing-Zhang/ecommerce-backend/internal/version.Version=1.2.0"
package version

var (
	Version = "dev"
	Commit  = "none"
)
