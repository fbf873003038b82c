package server

import "github.com/chazu/classrun/pkg/classfile"

// Procedure paths served by RunService.
const (
	RunServiceName   = "classrun.v1.RunService"
	RunProcedure     = "/" + RunServiceName + "/Run"
	InspectProcedure = "/" + RunServiceName + "/Inspect"
)

// RunRequest asks the server to decode Class and execute Method. An empty
// Method runs "main".
type RunRequest struct {
	Class  []byte `cbor:"1,keyasint"`
	Method string `cbor:"2,keyasint,omitempty"`
}

// RunResponse carries everything the method printed. Error is set when
// execution stopped early; Output then holds what was printed before.
type RunResponse struct {
	Output string `cbor:"1,keyasint"`
	Error  string `cbor:"2,keyasint,omitempty"`
	Hash   string `cbor:"3,keyasint"`
}

// InspectRequest asks for a description of Class.
type InspectRequest struct {
	Class []byte `cbor:"1,keyasint"`
}

// InspectResponse describes a class and lists the code of each method.
type InspectResponse struct {
	Summary classfile.Summary `cbor:"1,keyasint"`
	Listing string            `cbor:"2,keyasint"`
}
