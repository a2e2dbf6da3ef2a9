package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tcgsim/battlesim/internal/report"
	"github.com/tcgsim/battlesim/internal/sim"
)

// Full method names of the simulation service.
const (
	ServiceName  = "battlesim.v1.Simulation"
	MethodRun    = "/" + ServiceName + "/Run"
	MethodGetRun = "/" + ServiceName + "/GetRun"
)

const (
	maxRunMatches  = 1_000_000
	defaultRunWait = 10 * time.Minute
)

// SimulationService is the server side of battlesim.v1.Simulation.
// Requests and responses are google.protobuf.Struct messages.
type SimulationService interface {
	Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the simulation service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: runHandler},
		{MethodName: "GetRun", Handler: getRunHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "battlesim/v1/simulation.proto",
}

// RegisterSimulationServer registers the service on s.
func RegisterSimulationServer(s grpc.ServiceRegistrar, srv SimulationService) {
	s.RegisterService(&ServiceDesc, srv)
}

func runHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationService).Run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRun}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SimulationService).Run(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getRunHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulationService).GetRun(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetRun}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SimulationService).GetRun(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// simulationServer implements SimulationService on top of a run manager.
type simulationServer struct {
	baseCtx    context.Context
	runs       *sim.Manager
	store      *report.SQLiteStore
	archetypes []string
	logger     *zap.Logger
}

// NewSimulationServer creates the service. Runs live as long as baseCtx;
// finished runs are saved to store when it is not nil. archetypes is the
// pool used when a request names none.
func NewSimulationServer(baseCtx context.Context, runs *sim.Manager, store *report.SQLiteStore, archetypes []string, logger *zap.Logger) SimulationService {
	return &simulationServer{
		baseCtx:    baseCtx,
		runs:       runs,
		store:      store,
		archetypes: append([]string(nil), archetypes...),
		logger:     logger,
	}
}

// Run starts a batch. Request fields: matches (number), archetypes (list of
// strings, optional), wait (bool, optional). With wait the response is sent
// once the run is over.
func (s *simulationServer) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	matches := int(fields["matches"].GetNumberValue())
	if matches <= 0 || matches > maxRunMatches {
		return nil, status.Errorf(codes.InvalidArgument, "matches must be between 1 and %d", maxRunMatches)
	}

	archetypes := make([]string, 0)
	for _, v := range fields["archetypes"].GetListValue().GetValues() {
		if name := strings.TrimSpace(v.GetStringValue()); name != "" {
			archetypes = append(archetypes, name)
		}
	}
	if len(archetypes) == 0 {
		archetypes = s.archetypes
	}

	run, err := s.runs.Submit(s.baseCtx, matches, archetypes)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.store != nil {
		go s.persist(run)
	}

	if !fields["wait"].GetBoolValue() {
		return runToStruct(run.Snapshot())
	}

	waitCtx, cancel := context.WithTimeout(ctx, defaultRunWait)
	defer cancel()
	snap, err := s.runs.Wait(waitCtx, run.ID)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return runToStruct(snap)
}

// GetRun returns a run by id, from memory or from the store.
func (s *simulationServer) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetFields()["id"].GetStringValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if run, ok := s.runs.Get(id); ok {
		return runToStruct(run.Snapshot())
	}
	if s.store != nil {
		stored, err := s.store.LoadRun(ctx, id)
		switch {
		case err == nil:
			return runToStruct(sim.RunSnapshot{
				ID:         stored.ID,
				Matches:    stored.Result.Matches,
				State:      sim.RunStateFinished,
				Result:     stored.Result,
				CreateTime: stored.CreatedAt,
			})
		case !errors.Is(err, report.ErrRunNotFound):
			return nil, status.Error(codes.Internal, err.Error())
		}
	}
	return nil, status.Errorf(codes.NotFound, "run %s not found", id)
}

func (s *simulationServer) persist(run *sim.Run) {
	select {
	case <-run.Done():
	case <-s.baseCtx.Done():
		return
	}
	snap := run.Snapshot()
	if snap.State != sim.RunStateFinished || snap.Result == nil {
		return
	}
	if err := s.store.SaveRun(s.baseCtx, snap.ID, snap.Result); err != nil {
		s.logger.Warn("failed to save run", zap.String("run_id", snap.ID), zap.Error(err))
		return
	}
	s.logger.Debug("run saved", zap.String("run_id", snap.ID))
}

// runView is the wire shape of a run.
type runView struct {
	ID         string               `json:"id"`
	State      string               `json:"state"`
	Matches    int                  `json:"matches"`
	Archetypes []string             `json:"archetypes,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreateTime time.Time            `json:"create_time"`
	StartTime  *time.Time           `json:"start_time,omitempty"`
	EndTime    *time.Time           `json:"end_time,omitempty"`
	Result     *sim.AggregateResult `json:"result,omitempty"`
	Summary    []report.Row         `json:"summary,omitempty"`
}

func runToStruct(snap sim.RunSnapshot) (*structpb.Struct, error) {
	view := runView{
		ID:         snap.ID,
		State:      snap.State.String(),
		Matches:    snap.Matches,
		Archetypes: snap.Archetypes,
		Error:      snap.Error,
		CreateTime: snap.CreateTime,
		StartTime:  snap.StartTime,
		EndTime:    snap.EndTime,
		Result:     snap.Result,
	}
	if snap.Result != nil {
		view.Summary = report.Summary(snap.Result)
	}
	return toStruct(view)
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// SimulationClient calls the simulation service over a client connection.
type SimulationClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulationClient(cc grpc.ClientConnInterface) *SimulationClient {
	return &SimulationClient{cc: cc}
}

func (c *SimulationClient) Run(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRun, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationClient) GetRun(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetRun, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
