package nats

import (
	"eztools/common"

	"github.com/nats-io/nats.go"
)

func TypedRobustGetObject[T any](
	osb nats.ObjectStore,
	id string,
	serializer common.Serializer[T],
	opts ...nats.GetObjectOpt,
) (*T, error) {
	data, err := RobustGetObjectBytes(osb, id, opts...)
	if err != nil {
		return nil, err
	}
	return serializer.Deserialize(data)
}

func TypedRobustPutObject[T any](
	osb nats.ObjectStore,
	content *T,
	serializer common.Serializer[T],
	objectName string,
	opts ...nats.ObjectOpt,
) (*nats.ObjectInfo, error) {
	data, err := serializer.Serialize(content)
	if err != nil {
		return nil, err
	}
	return RobustPutObjectBytes(osb, data, objectName, opts...)
}

func TypedRobustPutObjectRandomName[T any](
	osb nats.ObjectStore,
	content *T,
	serializer common.Serializer[T],
	opts ...nats.ObjectOpt,
) (*nats.ObjectInfo, error) {
	return TypedRobustPutObject(osb, content, serializer, common.GetRandomId(), opts...)
}
