package gameserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "choiceman.v1.RulesService"

// Method names of RulesService.
const (
	MethodStartSession         = "StartSession"
	MethodEndSession           = "EndSession"
	MethodPushCycle            = "PushCycle"
	MethodCheckInteraction     = "CheckInteraction"
	MethodConfirmClick         = "ConfirmClick"
	MethodSurfaceEvent         = "SurfaceEvent"
	MethodIsSpellEnabled       = "IsSpellEnabled"
	MethodIsSkillActionEnabled = "IsSkillActionEnabled"
	MethodUnlock               = "Unlock"
	MethodBaseState            = "BaseState"
	MethodStillLocked          = "StillLocked"
	MethodObserveInventory     = "ObserveInventory"
	MethodFilterExchange       = "FilterExchange"
	MethodObserveTotalLevel    = "ObserveTotalLevel"
	MethodNextOffer            = "NextOffer"
	MethodPick                 = "Pick"
)

// RulesService is the server API. Requests are JSON-shaped structs; the
// expected keys are documented on each RulesServer method.
type RulesService interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PushCycle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckInteraction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmClick(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SurfaceEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IsSpellEnabled(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	IsSkillActionEnabled(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Unlock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BaseState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StillLocked(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ObserveInventory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FilterExchange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ObserveTotalLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NextOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pick(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unary[Resp proto.Message](name string, call func(RulesService, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RulesService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RulesService), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// RulesServiceDesc describes RulesService for grpc.Server.RegisterService.
var RulesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RulesService)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodStartSession, RulesService.StartSession),
		unary(MethodEndSession, RulesService.EndSession),
		unary(MethodPushCycle, RulesService.PushCycle),
		unary(MethodCheckInteraction, RulesService.CheckInteraction),
		unary(MethodConfirmClick, RulesService.ConfirmClick),
		unary(MethodSurfaceEvent, RulesService.SurfaceEvent),
		unary(MethodIsSpellEnabled, RulesService.IsSpellEnabled),
		unary(MethodIsSkillActionEnabled, RulesService.IsSkillActionEnabled),
		unary(MethodUnlock, RulesService.Unlock),
		unary(MethodBaseState, RulesService.BaseState),
		unary(MethodStillLocked, RulesService.StillLocked),
		unary(MethodObserveInventory, RulesService.ObserveInventory),
		unary(MethodFilterExchange, RulesService.FilterExchange),
		unary(MethodObserveTotalLevel, RulesService.ObserveTotalLevel),
		unary(MethodNextOffer, RulesService.NextOffer),
		unary(MethodPick, RulesService.Pick),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "choiceman/v1/rules.proto",
}

// RegisterRulesService registers srv on s.
func RegisterRulesService(s grpc.ServiceRegistrar, srv RulesService) {
	s.RegisterService(&RulesServiceDesc, srv)
}

// RulesClient calls RulesService over a client connection.
type RulesClient struct {
	cc grpc.ClientConnInterface
}

// NewRulesClient returns a client over cc.
func NewRulesClient(cc grpc.ClientConnInterface) *RulesClient {
	return &RulesClient{cc: cc}
}

// Call invokes a struct-returning method with req encoded as a struct.
func (c *RulesClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallBool invokes a bool-returning method.
func (c *RulesClient) CallBool(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (bool, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
