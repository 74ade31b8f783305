package docmodel

import (
	"context"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/logging"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StorageTimestamp is the store's native timestamp type. Inside the store
// every date field is one of these; at the application boundary it is an
// epoch-millisecond integer.
type StorageTimestamp = primitive.DateTime

// ToStorageTimestamp converts epoch milliseconds to the native timestamp
// type.
func ToStorageTimestamp(millis int64) StorageTimestamp {
	return primitive.DateTime(millis)
}

// FromStorageTimestamp converts a native timestamp back to epoch
// milliseconds. Fails with a *common.TypeMismatchError if the value is not
// a storage timestamp.
func FromStorageTimestamp(v any) (int64, error) {
	ts, ok := v.(primitive.DateTime)
	if !ok {
		return 0, &common.TypeMismatchError{Expected: "primitive.DateTime", Got: v}
	}
	return int64(ts), nil
}

// ConvertMillisToTimestamps returns a copy of rec with the named fields
// converted from epoch milliseconds to storage timestamps. Fields listed but
// absent from the record log a warning and are skipped; all other fields
// pass through untouched.
func ConvertMillisToTimestamps(ctx context.Context, rec Record, fields []string, log logging.Logger) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	for _, field := range fields {
		v, ok := out[field]
		if !ok {
			log.Warn(ctx, "expected date field not found, skipping", "field", field)
			continue
		}
		millis, ok := toInt64(v)
		if !ok {
			// Already converted (e.g. inside a read-modify-write cycle).
			if _, isTS := v.(primitive.DateTime); isTS {
				continue
			}
			log.Warn(ctx, "date field is not epoch millis, skipping", "field", field)
			continue
		}
		out[field] = ToStorageTimestamp(millis)
	}

	return out
}

// ConvertTimestampsToMillis returns a copy of rec with the named fields
// converted from storage timestamps to epoch milliseconds. Fields listed but
// absent log a warning and are skipped; a present field of the wrong type is
// a TypeMismatchError.
func ConvertTimestampsToMillis(ctx context.Context, rec Record, fields []string, log logging.Logger) (Record, error) {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	for _, field := range fields {
		v, ok := out[field]
		if !ok {
			log.Warn(ctx, "expected date field not found, skipping", "field", field)
			continue
		}
		millis, err := FromStorageTimestamp(v)
		if err != nil {
			if tme, isTME := err.(*common.TypeMismatchError); isTME {
				tme.Field = field
			}
			return nil, err
		}
		out[field] = millis
	}

	return out, nil
}
