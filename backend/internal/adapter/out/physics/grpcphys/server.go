package grpcphys

import (
	"context"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"x-course/backend/internal/core/port/out/physics"
)

// ServiceName полное имя сервиса физики
const ServiceName = "xcourse.physics.v1.Physics"

// PhysicsServer серверная часть сервиса
type PhysicsServer interface {
	CreateBody(context.Context, *CreateBodyRequest) (*CreateBodyResponse, error)
	RemoveBody(context.Context, *HandleRequest) (*Empty, error)
	ApplyImpulse(context.Context, *VectorRequest) (*Empty, error)
	ApplyTorqueImpulse(context.Context, *VectorRequest) (*Empty, error)
	SetNextKinematicTranslation(context.Context, *VectorRequest) (*Empty, error)
	SetNextKinematicRotation(context.Context, *RotationRequest) (*Empty, error)
	CastRay(context.Context, *CastRayRequest) (*CastRayResponse, error)
	Transform(context.Context, *HandleRequest) (*TransformResponse, error)
	Step(context.Context, *StepRequest) (*Empty, error)
	SetGravity(context.Context, *GravityRequest) (*Empty, error)
}

// GravitySetter движок с изменяемой гравитацией
type GravitySetter interface {
	SetGravity(g mgl64.Vec3)
}

// Server раздает physics.Engine по gRPC. Вызовы движка сериализуются.
type Server struct {
	mu     sync.Mutex
	engine physics.Engine
	logger zerolog.Logger
}

func NewServer(engine physics.Engine, logger zerolog.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

// Register регистрирует сервис на gRPC сервере
func Register(s *grpc.Server, srv PhysicsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func (s *Server) CreateBody(ctx context.Context, req *CreateBodyRequest) (*CreateBodyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.engine.CreateBody(ctx, req.Body)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateBodyResponse{Handle: h}, nil
}

func (s *Server) RemoveBody(ctx context.Context, req *HandleRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.RemoveBody(ctx, req.Handle))
}

func (s *Server) ApplyImpulse(ctx context.Context, req *VectorRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.ApplyImpulse(ctx, req.Handle, req.Vector))
}

func (s *Server) ApplyTorqueImpulse(ctx context.Context, req *VectorRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.ApplyTorqueImpulse(ctx, req.Handle, req.Vector))
}

func (s *Server) SetNextKinematicTranslation(ctx context.Context, req *VectorRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.SetNextKinematicTranslation(ctx, req.Handle, req.Vector))
}

func (s *Server) SetNextKinematicRotation(ctx context.Context, req *RotationRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.SetNextKinematicRotation(ctx, req.Handle, req.Rotation))
}

func (s *Server) CastRay(ctx context.Context, req *CastRayRequest) (*CastRayResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hit, err := s.engine.CastRay(ctx, req.Ray, req.MaxDistance, req.Solid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CastRayResponse{Hit: hit}, nil
}

func (s *Server) Transform(ctx context.Context, req *HandleRequest) (*TransformResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := s.engine.Transform(ctx, req.Handle)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TransformResponse{Transform: tr}, nil
}

func (s *Server) Step(ctx context.Context, req *StepRequest) (*Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Empty{}, toStatus(s.engine.Step(ctx, req.Dt))
}

func (s *Server) SetGravity(_ context.Context, req *GravityRequest) (*Empty, error) {
	setter, ok := s.engine.(GravitySetter)
	if !ok {
		return nil, status.Error(codes.Unimplemented, "engine does not support gravity changes")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	setter.SetGravity(req.Gravity)

	s.logger.Info().Floats64("gravity", req.Gravity[:]).Msg("gravity updated")
	return &Empty{}, nil
}

func unaryHandler[Req any, Resp any](method string, call func(PhysicsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PhysicsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PhysicsServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ServiceDesc описание сервиса для grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PhysicsServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateBody", PhysicsServer.CreateBody),
		unaryHandler("RemoveBody", PhysicsServer.RemoveBody),
		unaryHandler("ApplyImpulse", PhysicsServer.ApplyImpulse),
		unaryHandler("ApplyTorqueImpulse", PhysicsServer.ApplyTorqueImpulse),
		unaryHandler("SetNextKinematicTranslation", PhysicsServer.SetNextKinematicTranslation),
		unaryHandler("SetNextKinematicRotation", PhysicsServer.SetNextKinematicRotation),
		unaryHandler("CastRay", PhysicsServer.CastRay),
		unaryHandler("Transform", PhysicsServer.Transform),
		unaryHandler("Step", PhysicsServer.Step),
		unaryHandler("SetGravity", PhysicsServer.SetGravity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "grpcphys/server.go",
}

var _ PhysicsServer = (*Server)(nil)
