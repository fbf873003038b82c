package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/classrun/manifest"
	"github.com/chazu/classrun/pkg/classfile"
	"github.com/chazu/classrun/store"
	"github.com/chazu/classrun/vm"
)

// RunService decodes uploaded classes and runs or inspects them. Each call
// gets its own interpreter; nothing mutable is shared between requests
// except the store.
type RunService struct {
	store Recorder
	trace bool
}

// Recorder persists uploaded classes and their runs. *store.Store
// implements it.
type Recorder interface {
	PutClass(raw []byte, cf *classfile.ClassFile) (classfile.Summary, error)
	RecordRun(r store.Run) error
}

// NewRunService creates a RunService. st may be nil.
func NewRunService(st *store.Store, trace bool) *RunService {
	s := &RunService{trace: trace}
	if st != nil {
		s.store = st
	}
	return s
}

// Run executes one method of the uploaded class. Execution failures are
// reported in the response; only undecodable classes and missing methods
// fail the call.
func (s *RunService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	log := commonlog.GetLogger("classrun.server")

	method := req.Msg.Method
	if method == "" {
		method = manifest.DefaultMethod
	}

	cf, sum, err := s.decode(req.Msg.Class)
	if err != nil {
		log.Errorf("run: %v", err)
		return nil, err
	}
	hash := store.HashKey(sum.Hash)
	log.Infof("run %s.%s (%s)", sum.ClassName, method, hash[:12])

	var out bytes.Buffer
	runErr := vm.New(cf, vm.WithOutput(&out), vm.WithTrace(s.trace)).Run(method)
	if errors.Is(runErr, classfile.ErrMethodNotFound) || errors.Is(runErr, classfile.ErrCodeNotFound) {
		log.Errorf("run %s.%s: %v", sum.ClassName, method, runErr)
		return nil, connect.NewError(connect.CodeNotFound, runErr)
	}

	resp := &RunResponse{Output: out.String(), Hash: hash}
	if runErr != nil {
		resp.Error = runErr.Error()
		log.Errorf("run %s.%s: %v", sum.ClassName, method, runErr)
	}

	if s.store != nil {
		if err := s.store.RecordRun(store.Run{
			Hash:   hash,
			Method: method,
			Output: resp.Output,
			Error:  resp.Error,
		}); err != nil {
			log.Warningf("run %s.%s not recorded: %v", sum.ClassName, method, err)
		}
	}

	return connect.NewResponse(resp), nil
}

// Inspect returns the summary and method listing of the uploaded class.
func (s *RunService) Inspect(
	ctx context.Context,
	req *connect.Request[InspectRequest],
) (*connect.Response[InspectResponse], error) {
	cf, sum, err := s.decode(req.Msg.Class)
	if err != nil {
		commonlog.GetLogger("classrun.server").Errorf("inspect: %v", err)
		return nil, err
	}
	commonlog.GetLogger("classrun.server").Infof("inspect %s", sum.ClassName)

	return connect.NewResponse(&InspectResponse{
		Summary: sum,
		Listing: vm.DisassembleClass(cf),
	}), nil
}

// decode parses raw and, when a store is configured, saves it. Errors are
// already connect errors.
func (s *RunService) decode(raw []byte) (*classfile.ClassFile, classfile.Summary, error) {
	if len(raw) == 0 {
		return nil, classfile.Summary{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("class is required"))
	}
	cf, err := classfile.Decode(raw)
	if err != nil {
		return nil, classfile.Summary{}, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if s.store == nil {
		return cf, classfile.Summarize(cf, raw), nil
	}
	sum, err := s.store.PutClass(raw, cf)
	if err != nil {
		return nil, classfile.Summary{}, connect.NewError(connect.CodeInternal, err)
	}
	return cf, sum, nil
}
