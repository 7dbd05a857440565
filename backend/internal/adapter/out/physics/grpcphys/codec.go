package grpcphys

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName подтип content-type для сообщений физики
const codecName = "json"

// jsonCodec кодирует сообщения сервиса в JSON вместо protobuf
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
