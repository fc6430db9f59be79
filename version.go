package stlview

// Version of the build. Set at link time with
//
//	go build -ldflags "-X github.com/soypat/stlview.Version=v1.2.3"
var Version = "devel"
