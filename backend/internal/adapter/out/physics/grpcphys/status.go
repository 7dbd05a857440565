package grpcphys

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"x-course/backend/internal/core/port/out/physics"
)

var sentinels = []struct {
	err  error
	code codes.Code
}{
	{physics.ErrUnknownBody, codes.NotFound},
	{physics.ErrWrongBodyType, codes.FailedPrecondition},
	{physics.ErrUnsupportedShape, codes.InvalidArgument},
}

// toStatus переводит ошибку движка в статус gRPC
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus восстанавливает ошибки движка на стороне клиента
func fromStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	for _, s := range sentinels {
		if st.Code() == s.code {
			return fmt.Errorf("%s: %w (remote: %s)", method, s.err, st.Message())
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}
