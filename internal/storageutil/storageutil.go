package storageutil

import (
	"context"
	"errors"
	"time"

	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	"github.com/pierrec/lz4/v4"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrObjectNotFound indicates an object was not found.
var ErrObjectNotFound = errors.New("object not found")

// CompressedWrite compresses and writes data to the bucket.
func CompressedWrite(ctx context.Context, bucket *blob.Bucket, objectName string, d interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ow, err := bucket.NewWriter(ctx, objectName, nil)
	if err != nil {
		return err
	}
	zw := lz4.NewWriter(ow)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
	err = gojson.NewEncoder(zw).Encode(d)
	if err != nil {
		return err
	}
	err = zw.Close()
	if err != nil {
		return err
	}
	return ow.Close()
}

// UnmarshalCompressed reads compressed JSON data from the bucket and
// unmarshals it. If the object does not exist, it returns
// ErrObjectNotFound.
func UnmarshalCompressed(ctx context.Context, bucket *blob.Bucket, objectName string, d interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	or, err := bucket.NewReader(ctx, objectName, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return ErrObjectNotFound
		}
		return err
	}
	defer or.Close()
	zr := lz4.NewReader(or)
	return jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(zr).Decode(d)
}
