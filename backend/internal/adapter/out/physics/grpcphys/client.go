package grpcphys

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"x-course/backend/internal/core/port/out/physics"
)

// Client реализует physics.Engine поверх удаленного сервера физики
type Client struct {
	conn   *grpc.ClientConn
	logger zerolog.Logger
}

// Dial создает клиент. Соединение устанавливается лениво при первом вызове.
func Dial(address string, logger zerolog.Logger, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	conn, err := grpc.NewClient(address, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к серверу физики: %w", err)
	}

	logger.Info().Str("address", address).Msg("physics client created")
	return &Client{conn: conn, logger: logger}, nil
}

// Close закрывает соединение
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	err := c.conn.Invoke(ctx, fullMethod(method), req, resp)
	return fromStatus(method, err)
}

func (c *Client) CreateBody(ctx context.Context, desc physics.BodyDesc) (physics.Handle, error) {
	var resp CreateBodyResponse
	if err := c.invoke(ctx, "CreateBody", &CreateBodyRequest{Body: desc}, &resp); err != nil {
		return 0, err
	}
	return resp.Handle, nil
}

func (c *Client) RemoveBody(ctx context.Context, h physics.Handle) error {
	return c.invoke(ctx, "RemoveBody", &HandleRequest{Handle: h}, &Empty{})
}

func (c *Client) ApplyImpulse(ctx context.Context, h physics.Handle, impulse mgl64.Vec3) error {
	return c.invoke(ctx, "ApplyImpulse", &VectorRequest{Handle: h, Vector: impulse}, &Empty{})
}

func (c *Client) ApplyTorqueImpulse(ctx context.Context, h physics.Handle, torque mgl64.Vec3) error {
	return c.invoke(ctx, "ApplyTorqueImpulse", &VectorRequest{Handle: h, Vector: torque}, &Empty{})
}

func (c *Client) SetNextKinematicTranslation(ctx context.Context, h physics.Handle, translation mgl64.Vec3) error {
	return c.invoke(ctx, "SetNextKinematicTranslation", &VectorRequest{Handle: h, Vector: translation}, &Empty{})
}

func (c *Client) SetNextKinematicRotation(ctx context.Context, h physics.Handle, rotation mgl64.Quat) error {
	return c.invoke(ctx, "SetNextKinematicRotation", &RotationRequest{Handle: h, Rotation: rotation}, &Empty{})
}

func (c *Client) CastRay(ctx context.Context, ray physics.Ray, maxDistance float64, solid bool) (*physics.RayHit, error) {
	var resp CastRayResponse
	req := &CastRayRequest{Ray: ray, MaxDistance: maxDistance, Solid: solid}
	if err := c.invoke(ctx, "CastRay", req, &resp); err != nil {
		return nil, err
	}
	return resp.Hit, nil
}

func (c *Client) Transform(ctx context.Context, h physics.Handle) (physics.Transform, error) {
	var resp TransformResponse
	if err := c.invoke(ctx, "Transform", &HandleRequest{Handle: h}, &resp); err != nil {
		return physics.Transform{}, err
	}
	return resp.Transform, nil
}

func (c *Client) Step(ctx context.Context, dt float64) error {
	return c.invoke(ctx, "Step", &StepRequest{Dt: dt}, &Empty{})
}

// SetGravity отправляет гравитацию мира на сервер
func (c *Client) SetGravity(ctx context.Context, g mgl64.Vec3) error {
	if err := c.invoke(ctx, "SetGravity", &GravityRequest{Gravity: g}, &Empty{}); err != nil {
		return err
	}
	c.logger.Info().Floats64("gravity", g[:]).Msg("physics config sent to server")
	return nil
}

var _ physics.Engine = (*Client)(nil)
